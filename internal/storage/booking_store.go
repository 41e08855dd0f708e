package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nkamath/calshare/internal/booking"
	"github.com/nkamath/calshare/internal/model"
	"github.com/nkamath/calshare/libs/db"
)

// BookingStore implements booking.Store over a Postgres pool. The events
// table carries an exclusion constraint on (calendar_id, time range), so
// an overlapping insert that slips past the in-transaction read check is
// still rejected at commit with a conflict error.
type BookingStore struct {
	pool *db.Pool
}

func NewBookingStore(pool *db.Pool) *BookingStore {
	return &BookingStore{pool: pool}
}

func (s *BookingStore) InTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&bookingTx{tx: tx}); err != nil {
		return err
	}
	return mapErr(tx.Commit(ctx))
}

type bookingTx struct {
	tx pgx.Tx
}

func (t *bookingTx) GetRequestForUpdate(ctx context.Context, calendarID, requestID string) (model.BookingRequest, error) {
	var req model.BookingRequest
	err := t.tx.QueryRow(ctx, `
		SELECT id, calendar_id, requester_name, requester_email,
			COALESCE(title, ''), COALESCE(description, ''),
			requested_start_utc, requested_end_utc, status, created_at
		FROM booking_requests
		WHERE id = $1 AND calendar_id = $2
		FOR UPDATE
	`, requestID, calendarID).Scan(
		&req.ID,
		&req.CalendarID,
		&req.RequesterName,
		&req.RequesterEmail,
		&req.Title,
		&req.Description,
		&req.RequestedStartUTC,
		&req.RequestedEndUTC,
		&req.Status,
		&req.CreatedAt,
	)
	if err != nil {
		return model.BookingRequest{}, mapErr(err)
	}
	return req, nil
}

func (t *bookingTx) InsertRequest(ctx context.Context, req *model.BookingRequest) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO booking_requests
			(id, calendar_id, requester_name, requester_email, title, description,
			requested_start_utc, requested_end_utc, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, req.ID, req.CalendarID, req.RequesterName, req.RequesterEmail,
		req.Title, req.Description, req.RequestedStartUTC, req.RequestedEndUTC, req.Status)
	return mapErr(err)
}

func (t *bookingTx) UpdateRequestStatus(ctx context.Context, calendarID, requestID, from, to string) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
		UPDATE booking_requests
		SET status = $4
		WHERE id = $1 AND calendar_id = $2 AND status = $3
	`, requestID, calendarID, from, to)
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *bookingTx) OverlappingEvents(ctx context.Context, calendarID string, start, end time.Time) ([]model.Event, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, calendar_id, title, COALESCE(description, ''),
			start_utc, end_utc, origin,
			COALESCE(requester_name, ''), COALESCE(requester_email, ''),
			created_at, updated_at
		FROM events
		WHERE calendar_id = $1
			AND start_utc < $3
			AND end_utc > $2
		ORDER BY start_utc ASC
	`, calendarID, start, end)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (t *bookingTx) InsertEvent(ctx context.Context, evt *model.Event) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO events
			(id, calendar_id, title, description, start_utc, end_utc,
			origin, requester_name, requester_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, evt.ID, evt.CalendarID, evt.Title, evt.Description, evt.StartUTC, evt.EndUTC,
		evt.Meta.Origin, evt.Meta.RequesterName, evt.Meta.RequesterEmail)
	return mapErr(err)
}

func (t *bookingTx) AppendOutbox(ctx context.Context, eventType, aggregateID string, payload []byte) error {
	return mapErr(appendOutbox(ctx, t.tx, "booking_request", aggregateID, eventType, payload))
}

func scanEvents(rows pgx.Rows) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		var evt model.Event
		if err := rows.Scan(
			&evt.ID,
			&evt.CalendarID,
			&evt.Title,
			&evt.Description,
			&evt.StartUTC,
			&evt.EndUTC,
			&evt.Meta.Origin,
			&evt.Meta.RequesterName,
			&evt.Meta.RequesterEmail,
			&evt.CreatedAt,
			&evt.UpdatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}
