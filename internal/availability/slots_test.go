package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/nkamath/calshare/internal/model"
	"github.com/nkamath/calshare/internal/timeutil"
)

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}
	return loc
}

var (
	workday = model.WorkingHours{Start: "09:00", End: "18:00"}
	testDay = timeutil.Date{Year: 2026, Month: time.March, Day: 10}
)

// ist builds an instant on the test day at the given IST wall-clock time.
func ist(loc *time.Location, hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, loc).UTC()
}

func TestComputeSlots_EmptyDay(t *testing.T) {
	loc := kolkata(t)
	now := ist(loc, 8, 0)

	slots, err := ComputeSlots(testDay, workday, 30, loc, nil, now)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}
	if len(slots) != 18 {
		t.Fatalf("expected 18 slots, got %d", len(slots))
	}
	if !slots[0].Start.Equal(ist(loc, 9, 0)) {
		t.Errorf("first slot = %s, want 09:00 IST", slots[0].Start)
	}
	if !slots[17].End.Equal(ist(loc, 18, 0)) {
		t.Errorf("last slot ends %s, want 18:00 IST", slots[17].End)
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i].Start.After(slots[i-1].Start) {
			t.Fatalf("slots out of order at index %d", i)
		}
	}
}

func TestComputeSlots_ExcludesOverlapping(t *testing.T) {
	loc := kolkata(t)
	now := ist(loc, 8, 0)
	events := []model.Event{
		{StartUTC: ist(loc, 10, 0), EndUTC: ist(loc, 10, 30)},
	}

	slots, err := ComputeSlots(testDay, workday, 30, loc, events, now)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}
	// Only the 10:00 candidate conflicts; 09:30-10:00 ends exactly when the
	// event begins and stays bookable under half-open semantics.
	if len(slots) != 17 {
		t.Fatalf("expected 17 slots, got %d", len(slots))
	}
	for _, s := range slots {
		if s.Start.Equal(ist(loc, 10, 0)) {
			t.Fatal("10:00 slot should be excluded")
		}
		for _, e := range events {
			if timeutil.Overlaps(
				timeutil.Interval{Start: s.Start, End: s.End},
				timeutil.Interval{Start: e.StartUTC, End: e.EndUTC},
			) {
				t.Fatalf("slot %s overlaps event", s.Start)
			}
		}
	}
}

func TestComputeSlots_ExcludesPast(t *testing.T) {
	loc := kolkata(t)
	now := ist(loc, 12, 0)

	slots, err := ComputeSlots(testDay, workday, 30, loc, nil, now)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}
	for _, s := range slots {
		if !s.Start.After(now) {
			t.Fatalf("slot %s does not start strictly after now", s.Start)
		}
	}
	// 12:00 itself is not strictly after now; first bookable is 12:30.
	if len(slots) == 0 || !slots[0].Start.Equal(ist(loc, 12, 30)) {
		t.Fatalf("first slot = %v, want 12:30 IST", slots)
	}
}

func TestComputeSlots_DegenerateWindow(t *testing.T) {
	loc := kolkata(t)
	now := ist(loc, 8, 0)

	cases := []model.WorkingHours{
		{},
		{Start: "09:00"},
		{End: "18:00"},
		{Start: "18:00", End: "09:00"},
		{Start: "09:00", End: "09:00"},
	}
	for _, hours := range cases {
		slots, err := ComputeSlots(testDay, hours, 30, loc, nil, now)
		if err != nil {
			t.Errorf("hours %+v: unexpected error %v", hours, err)
		}
		if len(slots) != 0 {
			t.Errorf("hours %+v: expected no slots, got %d", hours, len(slots))
		}
	}
}

func TestComputeSlots_InvalidInput(t *testing.T) {
	loc := kolkata(t)
	now := ist(loc, 8, 0)

	if _, err := ComputeSlots(testDay, workday, 0, loc, nil, now); !errors.Is(err, model.ErrInvalidConfig) {
		t.Errorf("zero duration: got %v, want ErrInvalidConfig", err)
	}
	if _, err := ComputeSlots(testDay, workday, -30, loc, nil, now); !errors.Is(err, model.ErrInvalidConfig) {
		t.Errorf("negative duration: got %v, want ErrInvalidConfig", err)
	}
	bad := model.WorkingHours{Start: "9am", End: "18:00"}
	if _, err := ComputeSlots(testDay, bad, 30, loc, nil, now); !errors.Is(err, model.ErrInvalidTime) {
		t.Errorf("malformed hours: got %v, want ErrInvalidTime", err)
	}
}
