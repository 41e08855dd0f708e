package timeutil

import (
	"fmt"
	"iter"
	"time"

	"github.com/nkamath/calshare/internal/model"
)

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals share any instant.
// An interval ending exactly when another begins does not overlap it.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// OverlapsAny reports whether iv overlaps any interval in busy.
func OverlapsAny(iv Interval, busy []Interval) bool {
	for _, b := range busy {
		if Overlaps(iv, b) {
			return true
		}
	}
	return false
}

// SplitIntoSlots returns a lazy, restartable sequence of consecutive
// non-overlapping intervals of exactly durationMinutes, starting at
// windowStart. A trailing remainder shorter than the duration is
// discarded, never emitted short.
func SplitIntoSlots(windowStart, windowEnd time.Time, durationMinutes int) (iter.Seq[Interval], error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("duration %d minutes: %w", durationMinutes, model.ErrInvalidConfig)
	}
	if !windowEnd.After(windowStart) {
		return nil, fmt.Errorf("window end not after start: %w", model.ErrInvalidTime)
	}
	step := time.Duration(durationMinutes) * time.Minute
	return func(yield func(Interval) bool) {
		for t := windowStart; !t.Add(step).After(windowEnd); t = t.Add(step) {
			if !yield(Interval{Start: t, End: t.Add(step)}) {
				return
			}
		}
	}, nil
}
