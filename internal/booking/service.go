package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkamath/calshare/internal/model"
	"github.com/nkamath/calshare/internal/timeutil"
)

// Outbox event types. Topic names equal event types.
const (
	TopicRequestCreated   = "calendar.request.created.v1"
	TopicBookingConfirmed = "calendar.booking.confirmed.v1"
	TopicRequestRejected  = "calendar.request.rejected.v1"
)

type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

type CreateRequestInput struct {
	RequesterName  string
	RequesterEmail string
	Title          string
	Description    string
	Start          time.Time
	End            time.Time
}

// CreateRequest validates and persists a pending booking request.
// No conflict check happens here; conflicts are resolved at confirmation
// time so that read-time availability and confirm-time commit cannot race.
func (s *Service) CreateRequest(
	ctx context.Context,
	cal model.Calendar,
	in CreateRequestInput,
	displayedMonth timeutil.Month,
	now time.Time,
) (model.BookingRequest, error) {
	name := strings.TrimSpace(in.RequesterName)
	email := strings.TrimSpace(in.RequesterEmail)
	if name == "" {
		return model.BookingRequest{}, model.Validationf("requester name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return model.BookingRequest{}, model.Validationf("a valid requester email is required")
	}
	if !in.End.After(in.Start) {
		return model.BookingRequest{}, model.Validationf("requested end must be after requested start")
	}
	if in.Start.Before(now) {
		return model.BookingRequest{}, model.Validationf("requested slot is in the past")
	}

	loc, err := time.LoadLocation(cal.Timezone)
	if err != nil {
		return model.BookingRequest{}, fmt.Errorf("calendar timezone %q: %w", cal.Timezone, model.ErrInvalidTime)
	}
	if got := timeutil.MonthOf(in.Start, loc); got != displayedMonth {
		return model.BookingRequest{}, model.Validationf(
			"requests are limited to the displayed month %s (slot falls in %s)", displayedMonth, got)
	}

	req := model.BookingRequest{
		ID:                uuid.NewString(),
		CalendarID:        cal.ID,
		RequesterName:     name,
		RequesterEmail:    email,
		Title:             strings.TrimSpace(in.Title),
		Description:       strings.TrimSpace(in.Description),
		RequestedStartUTC: in.Start.UTC(),
		RequestedEndUTC:   in.End.UTC(),
		Status:            model.StatusPending,
		CreatedAt:         now.UTC(),
	}

	err = s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.InsertRequest(ctx, &req); err != nil {
			return err
		}
		return tx.AppendOutbox(ctx, TopicRequestCreated, req.ID, requestPayload(req))
	})
	if err != nil {
		return model.BookingRequest{}, domainOrTransaction("create request", err)
	}

	s.logger.Info("booking request created",
		"calendar_id", cal.ID, "request_id", req.ID,
		"start", req.RequestedStartUTC.Format(time.RFC3339))
	return req, nil
}

// Confirm promotes a pending request to a calendar event. The conflict
// check, the event insert and the status transition run in one isolated
// transaction: of two concurrent confirmations for overlapping ranges
// exactly one commits, the other fails with ErrSlotConflict and its
// request stays pending.
func (s *Service) Confirm(ctx context.Context, cal model.Calendar, requestID string, now time.Time) (model.Event, error) {
	var evt model.Event
	err := s.store.InTx(ctx, func(tx Tx) error {
		req, err := tx.GetRequestForUpdate(ctx, cal.ID, requestID)
		if err != nil {
			return err
		}
		if req.Status != model.StatusPending {
			return fmt.Errorf("confirm a %s request: %w", req.Status, model.ErrInvalidState)
		}

		conflicts, err := tx.OverlappingEvents(ctx, cal.ID, req.RequestedStartUTC, req.RequestedEndUTC)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return model.ErrSlotConflict
		}

		title := req.Title
		if title == "" {
			title = "Booking with " + req.RequesterName
		}
		evt = model.Event{
			ID:          uuid.NewString(),
			CalendarID:  cal.ID,
			Title:       title,
			Description: req.Description,
			StartUTC:    req.RequestedStartUTC,
			EndUTC:      req.RequestedEndUTC,
			Meta: model.EventMeta{
				Origin:         model.OriginBooking,
				RequesterName:  req.RequesterName,
				RequesterEmail: req.RequesterEmail,
			},
			CreatedAt: now.UTC(),
		}
		if err := tx.InsertEvent(ctx, &evt); err != nil {
			return err
		}

		changed, err := tx.UpdateRequestStatus(ctx, cal.ID, req.ID, model.StatusPending, model.StatusConfirmed)
		if err != nil {
			return err
		}
		if !changed {
			return model.ErrInvalidState
		}
		return tx.AppendOutbox(ctx, TopicBookingConfirmed, req.ID, confirmPayload(req, evt))
	})
	if err != nil {
		return model.Event{}, domainOrTransaction("confirm", err)
	}

	s.logger.Info("booking confirmed",
		"calendar_id", cal.ID, "request_id", requestID, "event_id", evt.ID)
	return evt, nil
}

// Reject moves a pending request to its rejected terminal state.
func (s *Service) Reject(ctx context.Context, cal model.Calendar, requestID string) error {
	err := s.store.InTx(ctx, func(tx Tx) error {
		req, err := tx.GetRequestForUpdate(ctx, cal.ID, requestID)
		if err != nil {
			return err
		}
		if req.Status != model.StatusPending {
			return fmt.Errorf("reject a %s request: %w", req.Status, model.ErrInvalidState)
		}
		changed, err := tx.UpdateRequestStatus(ctx, cal.ID, req.ID, model.StatusPending, model.StatusRejected)
		if err != nil {
			return err
		}
		if !changed {
			return model.ErrInvalidState
		}
		return tx.AppendOutbox(ctx, TopicRequestRejected, req.ID, requestPayload(req))
	})
	if err != nil {
		return domainOrTransaction("reject", err)
	}

	s.logger.Info("booking request rejected", "calendar_id", cal.ID, "request_id", requestID)
	return nil
}

func requestPayload(req model.BookingRequest) []byte {
	payload, _ := json.Marshal(map[string]any{
		"request_id":      req.ID,
		"calendar_id":     req.CalendarID,
		"requester_name":  req.RequesterName,
		"requester_email": req.RequesterEmail,
		"start":           req.RequestedStartUTC.Format(time.RFC3339),
		"end":             req.RequestedEndUTC.Format(time.RFC3339),
	})
	return payload
}

func confirmPayload(req model.BookingRequest, evt model.Event) []byte {
	payload, _ := json.Marshal(map[string]any{
		"request_id":      req.ID,
		"calendar_id":     req.CalendarID,
		"event_id":        evt.ID,
		"title":           evt.Title,
		"requester_name":  req.RequesterName,
		"requester_email": req.RequesterEmail,
		"start":           evt.StartUTC.Format(time.RFC3339),
		"end":             evt.EndUTC.Format(time.RFC3339),
	})
	return payload
}

// domainOrTransaction passes domain errors through unchanged and wraps
// anything else (a storage failure) as a TransactionError.
func domainOrTransaction(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, domain := range []error{
		model.ErrSlotConflict,
		model.ErrInvalidState,
		model.ErrNotFound,
		model.ErrInvalidTime,
		model.ErrInvalidConfig,
	} {
		if errors.Is(err, domain) {
			return err
		}
	}
	if model.IsValidation(err) {
		return err
	}
	return &model.TransactionError{Op: op, Err: err}
}
