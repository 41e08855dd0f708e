package sharetoken

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/nkamath/calshare/internal/model"
)

var testLogger = slog.New(slog.DiscardHandler)

// memCalendars holds a single calendar, enough to stand in for the
// storage layer under the resolver.
type memCalendars struct {
	cal model.Calendar
}

func (s *memCalendars) GetByID(_ context.Context, calendarID string) (model.Calendar, error) {
	if s.cal.ID != calendarID {
		return model.Calendar{}, model.ErrNotFound
	}
	return s.cal, nil
}

func (s *memCalendars) GetByShareToken(_ context.Context, token string) (model.Calendar, error) {
	if s.cal.ShareToken != token {
		return model.Calendar{}, model.ErrNotFound
	}
	return s.cal, nil
}

func (s *memCalendars) UpdateShareToken(_ context.Context, calendarID, newToken string) (string, error) {
	if s.cal.ID != calendarID {
		return "", model.ErrNotFound
	}
	old := s.cal.ShareToken
	s.cal.ShareToken = newToken
	return old, nil
}

func TestResolve_RotationKillsOldToken(t *testing.T) {
	ctx := context.Background()
	oldToken := "AAAAbbbb0000"
	store := &memCalendars{cal: model.Calendar{ID: "cal-1", ShareToken: oldToken}}
	r := NewResolver(store, nil, 0, testLogger)

	if _, err := r.Resolve(ctx, oldToken); err != nil {
		t.Fatalf("Resolve before rotation failed: %v", err)
	}

	newToken, err := r.Rotate(ctx, "cal-1")
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if newToken == oldToken {
		t.Fatal("Rotate returned the old token")
	}

	if _, err := r.Resolve(ctx, oldToken); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("old token after rotation: got %v, want ErrNotFound", err)
	}
	cal, err := r.Resolve(ctx, newToken)
	if err != nil {
		t.Fatalf("new token after rotation failed: %v", err)
	}
	if cal.ID != "cal-1" {
		t.Fatalf("resolved calendar %q, want cal-1", cal.ID)
	}
}

func TestResolveCached_StaleEntryRevalidated(t *testing.T) {
	ctx := context.Background()
	current := "AAAAbbbb0000"
	rotatedAway := "1111ccccDDDD"
	store := &memCalendars{cal: model.Calendar{ID: "cal-1", ShareToken: current}}
	r := NewResolver(store, nil, 0, testLogger)

	// A cache entry that outlived a rotation still points at the right
	// calendar, but its token no longer matches the row.
	if _, err := r.resolveCached(ctx, rotatedAway, "cal-1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("stale cached token: got %v, want ErrNotFound", err)
	}

	cal, err := r.resolveCached(ctx, current, "cal-1")
	if err != nil {
		t.Fatalf("current cached token failed: %v", err)
	}
	if cal.ShareToken != current {
		t.Fatalf("resolved token %q, want %q", cal.ShareToken, current)
	}

	// A cached ID whose calendar is gone reads as an unknown token.
	if _, err := r.resolveCached(ctx, current, "cal-9"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("vanished calendar: got %v, want ErrNotFound", err)
	}
}

func TestResolve_MalformedToken(t *testing.T) {
	store := &memCalendars{cal: model.Calendar{ID: "cal-1", ShareToken: "AAAAbbbb0000"}}
	r := NewResolver(store, nil, 0, testLogger)
	for _, token := range []string{"", "short", "has spaces!!", "AAAAbbbb00001"} {
		if _, err := r.Resolve(context.Background(), token); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("Resolve(%q): got %v, want ErrNotFound", token, err)
		}
	}
}
