package schedule

import (
	"fmt"
	"sort"
)

// Interval is a half-open [Start, End) range in minutes of day.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (iv Interval) Minutes() int { return iv.End - iv.Start }

// Overlaps reports whether two half-open intervals intersect.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// FormatClock renders a minutes-of-day value as "15:04".
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// MergeIntervals sorts by start and coalesces overlapping or adjacent
// intervals into a disjoint sorted set. Empty and inverted inputs are
// dropped. Bookings should never overlap, merging before summing keeps the
// arithmetic right even when ranges touch.
func MergeIntervals(intervals []Interval) []Interval {
	in := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.End > iv.Start {
			in = append(in, iv)
		}
	}
	if len(in) == 0 {
		return nil
	}

	sort.Slice(in, func(i, j int) bool { return in[i].Start < in[j].Start })

	merged := make([]Interval, 0, len(in))
	merged = append(merged, in[0])
	for _, iv := range in[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Gaps returns the maximal free sub-intervals of window not covered by
// booked. booked must be disjoint and sorted (MergeIntervals output);
// portions outside the window are clipped.
func Gaps(window Interval, booked []Interval) []Interval {
	if window.End <= window.Start {
		return nil
	}

	var gaps []Interval
	cur := window.Start
	for _, b := range booked {
		if b.End <= window.Start || b.Start >= window.End {
			continue
		}
		if b.Start > cur {
			gaps = append(gaps, Interval{Start: cur, End: minInt(b.Start, window.End)})
		}
		if b.End > cur {
			cur = b.End
		}
		if cur >= window.End {
			break
		}
	}
	if cur < window.End {
		gaps = append(gaps, Interval{Start: cur, End: window.End})
	}
	return gaps
}

// TotalMinutes sums interval lengths.
func TotalMinutes(intervals []Interval) int {
	total := 0
	for _, iv := range intervals {
		total += iv.Minutes()
	}
	return total
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
