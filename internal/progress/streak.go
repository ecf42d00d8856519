package progress

import (
	"sort"
	"time"
)

// Streak holds consecutive-day study counts.
type Streak struct {
	Current int
	Longest int
}

// StartOfDay truncates t to its calendar day, keeping the wall-clock date of t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(later, earlier time.Time) int {
	return int(later.Sub(earlier).Hours() / 24)
}

// AnalyzeStreak computes current and longest streaks over session dates.
// today is supplied by the caller. Sessions dated after today still count
// toward the longest streak but never start the current one.
func AnalyzeStreak(dates []time.Time, today time.Time) Streak {
	if len(dates) == 0 {
		return Streak{}
	}

	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := StartOfDay(d)
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	return Streak{
		Current: currentStreak(days, StartOfDay(today)),
		Longest: longestStreak(days),
	}
}

// days must be distinct and sorted newest first.
func currentStreak(days []time.Time, today time.Time) int {
	i := 0
	for i < len(days) && days[i].After(today) {
		i++
	}
	if i == len(days) || daysBetween(today, days[i]) > 1 {
		return 0
	}

	streak := 1
	for j := i + 1; j < len(days); j++ {
		if daysBetween(days[j-1], days[j]) != 1 {
			break
		}
		streak++
	}
	return streak
}

func longestStreak(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i-1], days[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
