package main

import (
	"github.com/spf13/cobra"

	"github.com/aimd54/questforge/internal/config"
	"github.com/aimd54/questforge/pkg/logger"
)

// Version is overridden at build time.
var Version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "questforge",
		Short:         "Quest generation and progression engine",
		Long:          "QuestForge turns everyday tasks into RPG quests and tracks XP, levels, stats and achievements.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "Path to config file (defaults to ./config.yaml)")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newGenerateCmd(),
	)
	return root
}

// loadConfig reads the configuration named by --config and builds the logger it describes.
func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	log := logger.NewWithRotation(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, logger.RotationOptions{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	return cfg, log, nil
}
