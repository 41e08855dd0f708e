package timeutil

import (
	"errors"
	"testing"
	"time"

	"github.com/nkamath/calshare/internal/model"
)

func TestOverlaps_HalfOpen(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	mins := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", Interval{mins(0), mins(30)}, Interval{mins(0), mins(30)}, true},
		{"partial", Interval{mins(0), mins(30)}, Interval{mins(15), mins(45)}, true},
		{"contained", Interval{mins(0), mins(60)}, Interval{mins(15), mins(30)}, true},
		{"touching ends", Interval{mins(0), mins(30)}, Interval{mins(30), mins(60)}, false},
		{"disjoint", Interval{mins(0), mins(30)}, Interval{mins(45), mins(60)}, false},
	}
	for _, tc := range cases {
		if got := Overlaps(tc.a, tc.b); got != tc.want {
			t.Errorf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
		if got := Overlaps(tc.b, tc.a); got != tc.want {
			t.Errorf("%s (swapped): Overlaps = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSplitIntoSlots_NineHourWindow(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(9 * time.Hour)

	seq, err := SplitIntoSlots(start, end, 30)
	if err != nil {
		t.Fatalf("SplitIntoSlots failed: %v", err)
	}

	var slots []Interval
	for iv := range seq {
		slots = append(slots, iv)
	}
	if len(slots) != 18 {
		t.Fatalf("expected 18 slots, got %d", len(slots))
	}
	if !slots[0].Start.Equal(start) {
		t.Errorf("first slot starts %s, want %s", slots[0].Start, start)
	}
	if !slots[17].End.Equal(end) {
		t.Errorf("last slot ends %s, want %s", slots[17].End, end)
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i].Start.Equal(slots[i-1].End) {
			t.Fatalf("slot %d not consecutive: %s vs %s", i, slots[i].Start, slots[i-1].End)
		}
	}
}

func TestSplitIntoSlots_DiscardsPartialRemainder(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(100 * time.Minute)

	seq, err := SplitIntoSlots(start, end, 30)
	if err != nil {
		t.Fatalf("SplitIntoSlots failed: %v", err)
	}
	var n int
	for iv := range seq {
		n++
		if iv.End.Sub(iv.Start) != 30*time.Minute {
			t.Fatalf("slot %d has length %s, want 30m", n, iv.End.Sub(iv.Start))
		}
	}
	if n != 3 {
		t.Fatalf("expected 3 full slots, got %d", n)
	}
}

func TestSplitIntoSlots_Restartable(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	seq, err := SplitIntoSlots(start, start.Add(2*time.Hour), 60)
	if err != nil {
		t.Fatalf("SplitIntoSlots failed: %v", err)
	}
	for range 2 {
		var n int
		for range seq {
			n++
		}
		if n != 2 {
			t.Fatalf("expected 2 slots on each pass, got %d", n)
		}
	}
}

func TestSplitIntoSlots_Invalid(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	if _, err := SplitIntoSlots(start, start.Add(time.Hour), 0); !errors.Is(err, model.ErrInvalidConfig) {
		t.Errorf("zero duration: got %v, want ErrInvalidConfig", err)
	}
	if _, err := SplitIntoSlots(start, start.Add(time.Hour), -15); !errors.Is(err, model.ErrInvalidConfig) {
		t.Errorf("negative duration: got %v, want ErrInvalidConfig", err)
	}
	if _, err := SplitIntoSlots(start, start, 30); !errors.Is(err, model.ErrInvalidTime) {
		t.Errorf("empty window: got %v, want ErrInvalidTime", err)
	}
	if _, err := SplitIntoSlots(start, start.Add(-time.Hour), 30); !errors.Is(err, model.ErrInvalidTime) {
		t.Errorf("inverted window: got %v, want ErrInvalidTime", err)
	}
}
