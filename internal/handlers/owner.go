package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkamath/calshare/internal/auth"
	"github.com/nkamath/calshare/internal/booking"
	"github.com/nkamath/calshare/internal/ics"
	"github.com/nkamath/calshare/internal/model"
	"github.com/nkamath/calshare/internal/sharetoken"
	"github.com/nkamath/calshare/internal/storage"
	"github.com/nkamath/calshare/internal/timeutil"
	"github.com/nkamath/calshare/internal/watch"
)

// OwnerHandler serves the authenticated management surface. Every route
// loads the caller's calendar from the bearer token's user ID; owners
// can only ever touch their own calendar.
type OwnerHandler struct {
	calendars *storage.CalendarRepository
	events    *storage.EventRepository
	requests  *storage.RequestRepository
	booking   *booking.Service
	resolver  *sharetoken.Resolver
	hub       *watch.Hub
	logger    *slog.Logger
}

func NewOwnerHandler(
	calendars *storage.CalendarRepository,
	events *storage.EventRepository,
	requests *storage.RequestRepository,
	bookingSvc *booking.Service,
	resolver *sharetoken.Resolver,
	hub *watch.Hub,
	logger *slog.Logger,
) *OwnerHandler {
	return &OwnerHandler{
		calendars: calendars,
		events:    events,
		requests:  requests,
		booking:   bookingSvc,
		resolver:  resolver,
		hub:       hub,
		logger:    logger,
	}
}

func (h *OwnerHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/owner/calendar", h.Calendar)
	mux.HandleFunc("PUT /api/v1/owner/calendar", h.UpdateSettings)
	mux.HandleFunc("POST /api/v1/owner/calendar/rotate-token", h.RotateToken)
	mux.HandleFunc("GET /api/v1/owner/events", h.Events)
	mux.HandleFunc("POST /api/v1/owner/events", h.CreateEvent)
	mux.HandleFunc("PUT /api/v1/owner/events/{id}", h.UpdateEvent)
	mux.HandleFunc("DELETE /api/v1/owner/events/{id}", h.DeleteEvent)
	mux.HandleFunc("GET /api/v1/owner/requests", h.Requests)
	mux.HandleFunc("POST /api/v1/owner/requests/{id}/confirm", h.ConfirmRequest)
	mux.HandleFunc("POST /api/v1/owner/requests/{id}/reject", h.RejectRequest)
	mux.HandleFunc("GET /api/v1/owner/calendar.ics", h.Feed)
	mux.HandleFunc("GET /api/v1/owner/watch", h.Watch)
}

func (h *OwnerHandler) calendar(w http.ResponseWriter, r *http.Request) (model.Calendar, bool) {
	cal, err := h.calendars.GetByOwner(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return model.Calendar{}, false
	}
	return cal, true
}

func (h *OwnerHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.calendar(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ownerCalendarView(cal))
}

type settingsBody struct {
	Timezone        string             `json:"timezone"`
	WorkingHours    model.WorkingHours `json:"working_hours"`
	DurationMinutes int                `json:"duration_minutes"`
}

// UpdateSettings rewrites timezone, working hours and slot duration.
// Existing events keep their absolute instants; only future availability
// computations see the new settings.
func (h *OwnerHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.calendar(w, r)
	if !ok {
		return
	}
	var body settingsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	if _, err := time.LoadLocation(body.Timezone); err != nil {
		badRequest(w, "unknown timezone")
		return
	}
	if _, err := timeutil.ParseClock(body.WorkingHours.Start); err != nil {
		badRequest(w, "working_hours.start must be HH:MM")
		return
	}
	if _, err := timeutil.ParseClock(body.WorkingHours.End); err != nil {
		badRequest(w, "working_hours.end must be HH:MM")
		return
	}
	if body.DurationMinutes <= 0 {
		badRequest(w, "duration_minutes must be positive")
		return
	}

	cal.Timezone = body.Timezone
	cal.WorkingHours = body.WorkingHours
	cal.DefaultDurationMinutes = body.DurationMinutes
	if err := h.calendars.UpdateSettings(r.Context(), &cal); err != nil {
		writeDomainError(w, err)
		return
	}
	h.logger.Info("calendar settings updated", "calendar_id", cal.ID)
	writeJSON(w, http.StatusOK, ownerCalendarView(cal))
}

// RotateToken replaces the share token. The old link dies the moment the
// swap commits.
func (h *OwnerHandler) RotateToken(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.calendar(w, r)
	if !ok {
		return
	}
	token, err := h.resolver.Rotate(r.Context(), cal.ID)
	if err != nil {
		h.logger.Error("share token rotation failed", "err", err, "calendar_id", cal.ID)
		writeDomainError(w, err)
		return
	}
	h.logger.Info("share token rotated", "calendar_id", cal.ID)
	writeJSON(w, http.StatusOK, map[string]string{"share_token": token})
}

func (h *OwnerHandler) Events(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.calendar(w, r)
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
		writeDomainError(w, err)
		return
	}
	views := make([]eventView, 0, len(events))
	for _, evt := range events {
		views = append(views, newEventView(evt))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":  month.String(),
		"events": views,
	})
}

type eventBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Month       string `json:"month"`
}

func (b eventBody) parse(w http.ResponseWriter) (title string, start, end time.Time, ok bool) {
	title = strings.TrimSpace(b.Title)
	if title == "" {
		badRequest(w, "title is required")
		return
	}
	start, err := time.Parse(time.RFC3339, b.Start)
	if err != nil {
		badRequest(w, "start must be RFC3339")
		return
	}
	end, err = time.Parse(time.RFC3339, b.End)
	if err != nil {
		badRequest(w, "end must be RFC3339")
		return
	}
	if !end.After(start) {
		badRequest(w, "end must be after start")
		return
	}
	return title, start, end, true
}

// monthScoped enforces the same rule on manual events that booking
// requests go through: the start must fall inside the displayed month,
// observed in the calendar's timezone.
func monthScoped(start time.Time, monthRaw, timezone string) error {
	month, err := requiredMonth(monthRaw)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", timezone, model.ErrInvalidConfig)
	}
	if got := timeutil.MonthOf(start, loc); got != month {
		return model.Validationf("events are limited to the displayed month %s (start falls in %s)", month, got)
	}
	return nil
}

// CreateEvent blocks a time range directly, with no booking request
// involved. The month field carries the month the owner is looking at;
// like booking requests, a start outside it is rejected. Overlapping an
// existing event fails with a conflict.
func (h *OwnerHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.calendar(w, r)
	if !ok {
		return
	}
	var body eventBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	title, start, end, ok := body.parse(w)
	if !ok {
		return
	}
	if err := monthScoped(start, body.Month, cal.Timezone); err != nil {
		writeDomainError(w, err)
		return
	}

	evt := model.Event{
		ID:          uuid.NewString(),
		CalendarID:  cal.ID,
		Title:       title,
		Description: strings.TrimSpace(body.Description),
		StartUTC:    start.UTC(),
		EndUTC:      end.UTC(),
		Meta:        model.EventMeta{Origin: model.OriginOwner},
	}
	if err := h.events.Insert(r.Context(), &evt); err != nil {
		writeDomainError(w, err)
		return
	}
	h.logger.Info("event created", "calendar_id", cal.ID, "event_id", evt.ID)
	writeJSON(w, http.StatusCreated, newEventView(evt))
}

// UpdateEvent reschedules or retitles an event. A move onto another
// event fails with a conflict and leaves the row unchanged.
func (h *OwnerHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.calendar(w, r)
	if !ok {
		return
	}
	evt, err := h.events.Get(r.Context(), cal.ID, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var body eventBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid json body")
		return
	}
	title, start, end, ok := body.parse(w)
	if !ok {
		return
	}

	evt.Title = title
	evt.Description = strings.TrimSpace(body.Description)
	evt.StartUTC = start.UTC()
	evt.EndUTC = end.UTC()
	if err := h.events.Update(r.Context(), &evt); err != nil {
		writeDomainError(w, err)
		return
	}
	h.logger.Info("event updated", "calendar_id", cal.ID, "event_id", evt.ID)
	writeJSON(w, http.StatusOK, newEventView(evt))
}

func (h *OwnerHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.calendar(w, r)
	if !ok {
		return
	}
	if err := h.events.Delete(r.Context(), cal.ID, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	h.logger.Info("event deleted", "calendar_id", cal.ID, "event_id", r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *OwnerHandler) Requests(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.calendar(w, r)
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")
	switch status {
	case "", model.StatusPending, model.StatusConfirmed, model.StatusRejected:
	default:
		badRequest(w, "unknown status")
		return
	}
	reqs, err := h.requests.ListByStatus(r.Context(), cal.ID, status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]requestView, 0, len(reqs))
	for _, req := range reqs {
		views = append(views, newRequestView(req))
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": views})
}

func (h *OwnerHandler) ConfirmRequest(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.calendar(w, r)
	if !ok {
		return
	}
	evt, err := h.booking.Confirm(r.Context(), cal, r.PathValue("id"), time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newEventView(evt))
}

func (h *OwnerHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.calendar(w, r)
	if !ok {
		return
	}
	if err := h.booking.Reject(r.Context(), cal, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Feed serves the unmasked iCalendar document for calendar clients.
func (h *OwnerHandler) Feed(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.calendar(w, r)
	if !ok {
		return
	}
	now := time.Now()
	events, err := h.events.ListBetween(r.Context(), cal.ID, now.AddDate(0, -1, 0), now.AddDate(0, 3, 0))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = w.Write([]byte(ics.Feed(cal, events, false)))
}

// Watch streams the month's events and pending requests over SSE.
func (h *OwnerHandler) Watch(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.calendar(w, r)
	if !ok {
		return
	}
	loc, month, ok := monthParams(w, r, cal)
	if !ok {
		return
	}
	start, end := month.Bounds(loc)

	streamSSE(w, r, h.hub, func(ctx context.Context) ([]byte, error) {
		events, err := h.events.ListBetween(ctx, cal.ID, start, end)
		if err != nil {
			return nil, err
		}
		pending, err := h.requests.ListByStatus(ctx, cal.ID, model.StatusPending)
		if err != nil {
			return nil, err
		}
		eventViews := make([]eventView, 0, len(events))
		for _, evt := range events {
			eventViews = append(eventViews, newEventView(evt))
		}
		requestViews := make([]requestView, 0, len(pending))
		for _, req := range pending {
			requestViews = append(requestViews, newRequestView(req))
		}
		return json.Marshal(map[string]any{
			"month":    month.String(),
			"events":   eventViews,
			"requests": requestViews,
		})
	})
}
