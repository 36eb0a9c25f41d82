package domain

import (
	"fmt"
	"strings"
)

// HourRun is a maximal contiguous span of hours [Start, End) within one day.
type HourRun struct {
	Start int
	End   int
}

// Duration returns the run length in hours.
func (r HourRun) Duration() int { return r.End - r.Start }

// Hours lists the clock hours covered by the run.
func (r HourRun) Hours() []int {
	hours := make([]int, 0, r.Duration())
	for h := r.Start; h < r.End; h++ {
		hours = append(hours, h)
	}
	return hours
}

// String renders the run as "14:00–16:00".
func (r HourRun) String() string {
	return fmt.Sprintf("%d:00–%d:00", r.Start, r.End)
}

// findRuns returns the maximal runs of consecutive indexes for which match
// returns true.
func findRuns(codes []int, match func(int) bool) []HourRun {
	var runs []HourRun
	start := -1
	for h, code := range codes {
		switch {
		case match(code) && start < 0:
			start = h
		case !match(code) && start >= 0:
			runs = append(runs, HourRun{Start: start, End: h})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, HourRun{Start: start, End: len(codes)})
	}
	return runs
}

// FormatRuns joins runs as "0:00–12:00, 16:00–24:00".
func FormatRuns(runs []HourRun) string {
	parts := make([]string, len(runs))
	for i, r := range runs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

// dayHourlyPattern is the hourly classification of a single day.
type dayHourlyPattern struct {
	dangerous []HourRun
	safe      []HourRun
}

func (p dayHourlyPattern) hasSustained(minHours int) bool {
	for _, r := range p.dangerous {
		if r.Duration() >= minHours {
			return true
		}
	}
	return false
}

func classifyHours(codes []int, t Thresholds) dayHourlyPattern {
	return dayHourlyPattern{
		dangerous: findRuns(codes, t.IsDangerous),
		safe:      findRuns(codes, func(c int) bool { return !t.IsHazardous(c) }),
	}
}
