package handlers

import (
	"time"

	"github.com/nkamath/calshare/internal/model"
)

type calendarView struct {
	ID              string             `json:"id,omitempty"`
	ShareToken      string             `json:"share_token,omitempty"`
	Timezone        string             `json:"timezone"`
	WorkingHours    model.WorkingHours `json:"working_hours"`
	DurationMinutes int                `json:"duration_minutes"`
}

func ownerCalendarView(cal model.Calendar) calendarView {
	return calendarView{
		ID:              cal.ID,
		ShareToken:      cal.ShareToken,
		Timezone:        cal.Timezone,
		WorkingHours:    cal.WorkingHours,
		DurationMinutes: cal.DefaultDurationMinutes,
	}
}

// publicCalendarView omits identifiers; visitors address the calendar by
// its share token alone.
func publicCalendarView(cal model.Calendar) calendarView {
	return calendarView{
		Timezone:        cal.Timezone,
		WorkingHours:    cal.WorkingHours,
		DurationMinutes: cal.DefaultDurationMinutes,
	}
}

type eventView struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Start       string          `json:"start"`
	End         string          `json:"end"`
	Meta        model.EventMeta `json:"meta"`
}

func newEventView(evt model.Event) eventView {
	return eventView{
		ID:          evt.ID,
		Title:       evt.Title,
		Description: evt.Description,
		Start:       evt.StartUTC.Format(time.RFC3339),
		End:         evt.EndUTC.Format(time.RFC3339),
		Meta:        evt.Meta,
	}
}

// busyView is the public projection of an event: the time range and
// nothing else.
type busyView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func newBusyViews(events []model.Event) []busyView {
	out := make([]busyView, 0, len(events))
	for _, evt := range events {
		out = append(out, busyView{
			Start: evt.StartUTC.Format(time.RFC3339),
			End:   evt.EndUTC.Format(time.RFC3339),
		})
	}
	return out
}

type requestView struct {
	ID             string `json:"id"`
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email"`
	Title          string `json:"title,omitempty"`
	Description    string `json:"description,omitempty"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

func newRequestView(req model.BookingRequest) requestView {
	return requestView{
		ID:             req.ID,
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
		Title:          req.Title,
		Description:    req.Description,
		Start:          req.RequestedStartUTC.Format(time.RFC3339),
		End:            req.RequestedEndUTC.Format(time.RFC3339),
		Status:         req.Status,
		CreatedAt:      req.CreatedAt.Format(time.RFC3339),
	}
}

type slotView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func newSlotViews(slots []model.Slot) []slotView {
	out := make([]slotView, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotView{
			Start: s.Start.Format(time.RFC3339),
			End:   s.End.Format(time.RFC3339),
		})
	}
	return out
}
