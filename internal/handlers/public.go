package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nkamath/calshare/internal/availability"
	"github.com/nkamath/calshare/internal/booking"
	"github.com/nkamath/calshare/internal/ics"
	"github.com/nkamath/calshare/internal/model"
	"github.com/nkamath/calshare/internal/sharetoken"
	"github.com/nkamath/calshare/internal/storage"
	"github.com/nkamath/calshare/internal/timeutil"
	"github.com/nkamath/calshare/internal/watch"
)

// PublicHandler serves everything a share-link visitor can reach. Every
// route resolves the {token} path segment first; an unknown or rotated
// token is a plain 404 with no hint whether the calendar exists.
type PublicHandler struct {
	resolver *sharetoken.Resolver
	events   *storage.EventRepository
	booking  *booking.Service
	hub      *watch.Hub
	logger   *slog.Logger
}

func NewPublicHandler(
	resolver *sharetoken.Resolver,
	events *storage.EventRepository,
	bookingSvc *booking.Service,
	hub *watch.Hub,
	logger *slog.Logger,
) *PublicHandler {
	return &PublicHandler{
		resolver: resolver,
		events:   events,
		booking:  bookingSvc,
		hub:      hub,
		logger:   logger,
	}
}

func (h *PublicHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/public/{token}/calendar", h.Calendar)
	mux.HandleFunc("GET /api/v1/public/{token}/events", h.Events)
	mux.HandleFunc("GET /api/v1/public/{token}/slots", h.Slots)
	mux.HandleFunc("POST /api/v1/public/{token}/book", h.CreateRequest)
	mux.HandleFunc("GET /api/v1/public/{token}/calendar.ics", h.Feed)
	mux.HandleFunc("GET /api/v1/public/{token}/watch", h.Watch)
}

func (h *PublicHandler) resolve(w http.ResponseWriter, r *http.Request) (model.Calendar, bool) {
	cal, err := h.resolver.Resolve(r.Context(), r.PathValue("token"))
	if err != nil {
		writeDomainError(w, err)
		return model.Calendar{}, false
	}
	return cal, true
}

func (h *PublicHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.resolve(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, publicCalendarView(cal))
}

// Events lists the calendar's busy blocks for one month, time ranges
// only. Titles and requester details stay private to the owner.
func (h *PublicHandler) Events(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.resolve(w, r)
	if !ok {
		return
	}
	loc, month, ok := monthParams(w, r, cal)
	if !ok {
		return
	}

	start, end := month.Bounds(loc)
	events, err := h.events.ListBetween(r.Context(), cal.ID, start, end)
	if err != nil {
		h.logger.Error("event listing failed", "err", err, "calendar_id", cal.ID)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":  month.String(),
		"events": newBusyViews(events),
	})
}

// Slots returns the bookable slots of one day.
func (h *PublicHandler) Slots(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.resolve(w, r)
	if !ok {
		return
	}
	day, err := timeutil.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		badRequest(w, "date must be YYYY-MM-DD")
		return
	}
	loc, err := time.LoadLocation(cal.Timezone)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	slots, err := h.daySlots(r.Context(), cal, day, loc, time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  r.URL.Query().Get("date"),
		"slots": newSlotViews(slots),
	})
}

func (h *PublicHandler) daySlots(ctx context.Context, cal model.Calendar, day timeutil.Date, loc *time.Location, now time.Time) ([]model.Slot, error) {
	dayStart := time.Date(day.Year, day.Month, day.Day, 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	events, err := h.events.ListBetween(ctx, cal.ID, dayStart.UTC(), dayEnd.UTC())
	if err != nil {
		return nil, err
	}
	return availability.ComputeSlots(day, cal.WorkingHours, cal.DefaultDurationMinutes, loc, events, now)
}

type createRequestBody struct {
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Month          string `json:"month"`
}

// CreateRequest files a pending booking request for a slot. The month
// field is required and carries the month the visitor was looking at
// when they picked the slot; a slot outside that month is rejected.
func (h *PublicHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.resolve(w, r)
	if !ok {
		return
	}
	var body createRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	start, err := time.Parse(time.RFC3339, body.Start)
	if err != nil {
		badRequest(w, "start must be RFC3339")
		return
	}
	end, err := time.Parse(time.RFC3339, body.End)
	if err != nil {
		badRequest(w, "end must be RFC3339")
		return
	}

	month, err := requiredMonth(body.Month)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	req, err := h.booking.CreateRequest(r.Context(), cal, booking.CreateRequestInput{
		RequesterName:  body.RequesterName,
		RequesterEmail: body.RequesterEmail,
		Title:          body.Title,
		Description:    body.Description,
		Start:          start,
		End:            end,
	}, month, time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRequestView(req))
}

// Feed serves the masked iCalendar document: busy blocks from one month
// back to three months out.
func (h *PublicHandler) Feed(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.resolve(w, r)
	if !ok {
		return
	}
	now := time.Now()
	events, err := h.events.ListBetween(r.Context(), cal.ID, now.AddDate(0, -1, 0), now.AddDate(0, 3, 0))
	if err != nil {
		h.logger.Error("event listing failed", "err", err, "calendar_id", cal.ID)
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = w.Write([]byte(ics.Feed(cal, events, true)))
}

// Watch streams the month's busy blocks over SSE, re-sent whenever they
// change.
func (h *PublicHandler) Watch(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.resolve(w, r)
	if !ok {
		return
	}
	loc, month, ok := monthParams(w, r, cal)
	if !ok {
		return
	}
	start, end := month.Bounds(loc)

	streamSSE(w, r, h.hub, func(ctx context.Context) ([]byte, error) {
		// Re-resolve each poll so a rotated token ends the stream.
		if _, err := h.resolver.Resolve(ctx, cal.ShareToken); err != nil {
			return nil, err
		}
		events, err := h.events.ListBetween(ctx, cal.ID, start, end)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{
			"month":  month.String(),
			"events": newBusyViews(events),
		})
	})
}

// requiredMonth parses the month a write must carry. Defaulting it from
// the requested start would let the month-scope check pass vacuously,
// so an absent field is an error.
func requiredMonth(raw string) (timeutil.Month, error) {
	if raw == "" {
		return timeutil.Month{}, fmt.Errorf("month is required: %w", model.ErrInvalidTime)
	}
	return timeutil.ParseMonth(raw)
}

// monthParams parses the month query parameter (default: the current
// month in the calendar's timezone).
func monthParams(w http.ResponseWriter, r *http.Request, cal model.Calendar) (*time.Location, timeutil.Month, bool) {
	loc, err := time.LoadLocation(cal.Timezone)
	if err != nil {
		writeDomainError(w, err)
		return nil, timeutil.Month{}, false
	}
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return loc, timeutil.MonthOf(time.Now(), loc), true
	}
	month, err := timeutil.ParseMonth(raw)
	if err != nil {
		badRequest(w, "month must be YYYY-MM")
		return nil, timeutil.Month{}, false
	}
	return loc, month, true
}
