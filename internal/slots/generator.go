// Package slots expands recurring schedule rules into discrete bookable
// time points. It is pure: no clock, no storage.
package slots

import (
	"fmt"
	"sort"
	"time"
)

const timeFormat = "15:04"

// Expand generates the ordered time points of a single rule window: every
// "HH:MM" t with start <= t < end stepping by interval minutes.
func Expand(startTime, endTime string, intervalMinutes int) ([]string, error) {
	if intervalMinutes <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %d", intervalMinutes)
	}

	start, err := time.Parse(timeFormat, startTime)
	if err != nil {
		return nil, fmt.Errorf("parse start time %q: %w", startTime, err)
	}
	end, err := time.Parse(timeFormat, endTime)
	if err != nil {
		return nil, fmt.Errorf("parse end time %q: %w", endTime, err)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("start time %s must be before end time %s", startTime, endTime)
	}

	step := time.Duration(intervalMinutes) * time.Minute
	var points []string
	for cursor := start; cursor.Before(end); cursor = cursor.Add(step) {
		points = append(points, cursor.Format(timeFormat))
	}
	return points, nil
}

// Union merges several expanded windows into one sorted set, collapsing
// duplicates. "HH:MM" strings order lexicographically, so a plain string
// sort yields chronological order.
func Union(sets ...[]string) []string {
	seen := make(map[string]struct{})
	for _, set := range sets {
		for _, t := range set {
			seen[t] = struct{}{}
		}
	}

	merged := make([]string, 0, len(seen))
	for t := range seen {
		merged = append(merged, t)
	}
	sort.Strings(merged)
	return merged
}

// Contains reports whether t is one of the points in a sorted slot list.
func Contains(points []string, t string) bool {
	i := sort.SearchStrings(points, t)
	return i < len(points) && points[i] == t
}
