package achievements

import (
	"sort"
	"time"
)

// LongestStreak returns the longest run of consecutive UTC calendar days that
// contain at least one of the given times.
func LongestStreak(times []time.Time) int {
	if len(times) == 0 {
		return 0
	}

	days := make(map[int64]struct{}, len(times))
	for _, t := range times {
		days[dayNumber(t)] = struct{}{}
	}

	sorted := make([]int64, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	longest, current := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1]+1 {
			current++
		} else {
			current = 1
		}
		longest = max(longest, current)
	}
	return longest
}

func dayNumber(t time.Time) int64 {
	return t.UTC().Unix() / 86400
}
