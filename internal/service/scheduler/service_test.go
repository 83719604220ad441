package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/questforge/internal/config"
	prommetrics "github.com/aimd54/questforge/internal/metrics"
	"github.com/aimd54/questforge/pkg/logger"
)

type fakeSweeper struct {
	calls   atomic.Int32
	awarded int
	err     error
}

func (f *fakeSweeper) EvaluateAll(_ context.Context) (int, error) {
	f.calls.Add(1)
	return f.awarded, f.err
}

func TestBuildCronExpression(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    string
		wantErr bool
	}{
		{name: "daily at 3am", spec: "03:00", want: "0 3 * * *"},
		{name: "daily at 14:30", spec: "14:30", want: "30 14 * * *"},
		{name: "cron expression passes through", spec: "*/15 * * * *", want: "*/15 * * * *"},
		{name: "descriptor", spec: "@every 1h", want: "@every 1h"},
		{name: "trimmed", spec: "  22:05 ", want: "5 22 * * *"},
		{name: "empty", spec: "", wantErr: true},
		{name: "invalid format no colon", spec: "0300", wantErr: true},
		{name: "invalid hour", spec: "25:00", wantErr: true},
		{name: "invalid minute", spec: "09:60", wantErr: true},
		{name: "invalid cron", spec: "61 * * * *", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildCronExpression(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunAchievementSweep(t *testing.T) {
	sweeper := &fakeSweeper{awarded: 3}
	s := NewService(&config.SchedulerConfig{}, sweeper, logger.New("error", "json", "stdout"))
	before := testutil.ToFloat64(prommetrics.SchedulerJobsRunTotal.WithLabelValues(jobAchievementSweep, "success"))

	s.runAchievementSweep(context.Background())

	assert.Equal(t, int32(1), sweeper.calls.Load())
	assert.Equal(t, before+1, testutil.ToFloat64(prommetrics.SchedulerJobsRunTotal.WithLabelValues(jobAchievementSweep, "success")))
	assert.NotZero(t, testutil.ToFloat64(prommetrics.SchedulerLastRunTimestamp))
}

func TestRunAchievementSweep_Error(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("db down")}
	s := NewService(&config.SchedulerConfig{}, sweeper, logger.New("error", "json", "stdout"))
	before := testutil.ToFloat64(prommetrics.SchedulerJobsRunTotal.WithLabelValues(jobAchievementSweep, "error"))

	s.runAchievementSweep(context.Background())

	assert.Equal(t, before+1, testutil.ToFloat64(prommetrics.SchedulerJobsRunTotal.WithLabelValues(jobAchievementSweep, "error")))
}

func TestStart_Disabled(t *testing.T) {
	s := NewService(&config.SchedulerConfig{Enabled: false}, &fakeSweeper{}, logger.New("error", "json", "stdout"))

	require.NoError(t, s.Start())
	assert.Nil(t, s.cron)
	s.Stop()
}

func TestStart_InvalidConfig(t *testing.T) {
	log := logger.New("error", "json", "stdout")

	badZone := NewService(&config.SchedulerConfig{Enabled: true, AchievementSweep: "03:00", Timezone: "Mars/Olympus"}, &fakeSweeper{}, log)
	assert.Error(t, badZone.Start())

	badSpec := NewService(&config.SchedulerConfig{Enabled: true, AchievementSweep: "3am", Timezone: "UTC"}, &fakeSweeper{}, log)
	assert.Error(t, badSpec.Start())
}

func TestStartStop_RunsJob(t *testing.T) {
	sweeper := &fakeSweeper{}
	s := NewService(&config.SchedulerConfig{Enabled: true, AchievementSweep: "@every 1s", Timezone: "UTC"},
		sweeper, logger.New("error", "json", "stdout"))

	require.NoError(t, s.Start())
	assert.Eventually(t, func() bool { return sweeper.calls.Load() > 0 }, 5*time.Second, 50*time.Millisecond)
	s.Stop()
	s.Stop()
}

func TestCronLogger(t *testing.T) {
	var buf bytes.Buffer
	l := cronLogger{log: logger.NewFromWriter(&buf, "debug")}

	l.Info("schedule", "entry", 1)
	l.Error(errors.New("boom"), "job panicked", "entry", 2)

	out := buf.String()
	assert.Contains(t, out, `"message":"schedule"`)
	assert.Contains(t, out, `"entry":1`)
	assert.Contains(t, out, `"error":"boom"`)
}
