package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nkamath/calshare/internal/model"
)

func TestMonthScoped(t *testing.T) {
	at := func(s string) time.Time {
		x, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t.Fatalf("bad instant %q: %v", s, err)
		}
		return x
	}

	cases := []struct {
		name           string
		start          string
		month          string
		timezone       string
		wantErr        error
		wantValidation bool
	}{
		{
			name:     "inside displayed month",
			start:    "2026-03-10T04:00:00Z",
			month:    "2026-03",
			timezone: "Asia/Kolkata",
		},
		{
			name:           "outside displayed month",
			start:          "2026-04-01T10:00:00Z",
			month:          "2026-03",
			timezone:       "Asia/Kolkata",
			wantValidation: true,
		},
		{
			// 19:00 UTC Feb 28 is already March 1st in Kolkata, so it
			// belongs to March, not February.
			name:     "month resolved in calendar zone",
			start:    "2026-02-28T19:00:00Z",
			month:    "2026-03",
			timezone: "Asia/Kolkata",
		},
		{
			name:           "calendar zone boundary rejected against prior month",
			start:          "2026-02-28T19:00:00Z",
			month:          "2026-02",
			timezone:       "Asia/Kolkata",
			wantValidation: true,
		},
		{
			name:     "missing month",
			start:    "2026-03-10T04:00:00Z",
			month:    "",
			timezone: "Asia/Kolkata",
			wantErr:  model.ErrInvalidTime,
		},
		{
			name:     "malformed month",
			start:    "2026-03-10T04:00:00Z",
			month:    "03-2026",
			timezone: "Asia/Kolkata",
			wantErr:  model.ErrInvalidTime,
		},
		{
			name:     "broken timezone",
			start:    "2026-03-10T04:00:00Z",
			month:    "2026-03",
			timezone: "Mars/Olympus",
			wantErr:  model.ErrInvalidConfig,
		},
	}
	for _, tc := range cases {
		err := monthScoped(at(tc.start), tc.month, tc.timezone)
		switch {
		case tc.wantValidation:
			if !model.IsValidation(err) {
				t.Errorf("%s: got %v, want validation error", tc.name, err)
			}
		case tc.wantErr != nil:
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("%s: got %v, want %v", tc.name, err, tc.wantErr)
			}
		default:
			if err != nil {
				t.Errorf("%s: unexpected error %v", tc.name, err)
			}
		}
	}
}

func TestEventBodyParse(t *testing.T) {
	cases := []struct {
		name   string
		body   eventBody
		wantOK bool
	}{
		{
			name: "valid",
			body: eventBody{
				Title: "Focus block",
				Start: "2026-03-10T04:00:00Z",
				End:   "2026-03-10T05:00:00Z",
			},
			wantOK: true,
		},
		{
			name: "blank title",
			body: eventBody{
				Title: "   ",
				Start: "2026-03-10T04:00:00Z",
				End:   "2026-03-10T05:00:00Z",
			},
		},
		{
			name: "unparseable start",
			body: eventBody{Title: "x", Start: "tomorrowish", End: "2026-03-10T05:00:00Z"},
		},
		{
			name: "end before start",
			body: eventBody{
				Title: "x",
				Start: "2026-03-10T05:00:00Z",
				End:   "2026-03-10T04:00:00Z",
			},
		},
		{
			name: "zero length",
			body: eventBody{
				Title: "x",
				Start: "2026-03-10T04:00:00Z",
				End:   "2026-03-10T04:00:00Z",
			},
		},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		_, _, _, ok := tc.body.parse(rec)
		if ok != tc.wantOK {
			t.Errorf("%s: parse ok = %v, want %v", tc.name, ok, tc.wantOK)
			continue
		}
		if !tc.wantOK && rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, rec.Code)
		}
	}
}
