// Package availability computes the bookable slots of a calendar day.
//
// The engine is a pure function: events, working hours and the current
// time are all supplied by the caller, which owns fetching them from
// storage. Passing now explicitly keeps the result deterministic.
package availability

import (
	"fmt"
	"time"

	"github.com/nkamath/calshare/internal/model"
	"github.com/nkamath/calshare/internal/timeutil"
)

// ComputeSlots returns the bookable slots of day in chronological order.
// A candidate slot is bookable iff it overlaps no existing event and its
// start is strictly after now.
//
// A degenerate working-hours window (missing bounds, or end not after
// start) is a valid "no availability" result, not an error.
func ComputeSlots(
	day timeutil.Date,
	hours model.WorkingHours,
	durationMinutes int,
	loc *time.Location,
	events []model.Event,
	now time.Time,
) ([]model.Slot, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("duration %d minutes: %w", durationMinutes, model.ErrInvalidConfig)
	}
	if hours.Start == "" || hours.End == "" {
		return nil, nil
	}

	startClock, err := timeutil.ParseClock(hours.Start)
	if err != nil {
		return nil, err
	}
	endClock, err := timeutil.ParseClock(hours.End)
	if err != nil {
		return nil, err
	}

	windowStart := timeutil.ToAbsolute(day, startClock, loc)
	windowEnd := timeutil.ToAbsolute(day, endClock, loc)
	if !windowEnd.After(windowStart) {
		return nil, nil
	}

	busy := make([]timeutil.Interval, 0, len(events))
	for _, e := range events {
		busy = append(busy, timeutil.Interval{Start: e.StartUTC, End: e.EndUTC})
	}

	candidates, err := timeutil.SplitIntoSlots(windowStart, windowEnd, durationMinutes)
	if err != nil {
		return nil, err
	}

	var slots []model.Slot
	for iv := range candidates {
		if !iv.Start.After(now) {
			continue
		}
		if timeutil.OverlapsAny(iv, busy) {
			continue
		}
		slots = append(slots, model.Slot{Start: iv.Start, End: iv.End})
	}
	return slots, nil
}
