package storage

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/nkamath/calshare/internal/model"
	"github.com/nkamath/calshare/libs/db"
)

type RequestRepository struct {
	pool *db.Pool
}

func NewRequestRepository(pool *db.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

const requestColumns = `
	id, calendar_id, requester_name, requester_email,
	COALESCE(title, ''), COALESCE(description, ''),
	requested_start_utc, requested_end_utc, status, created_at`

// ListByStatus returns the calendar's requests in one lifecycle state,
// oldest first. An empty status lists everything.
func (r *RequestRepository) ListByStatus(ctx context.Context, calendarID, status string) ([]model.BookingRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM booking_requests
		WHERE calendar_id = $1
			AND ($2 = '' OR status = $2)
		ORDER BY created_at ASC
	`, calendarID, status)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *RequestRepository) Get(ctx context.Context, calendarID, requestID string) (model.BookingRequest, error) {
	var req model.BookingRequest
	err := r.pool.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM booking_requests
		WHERE id = $1 AND calendar_id = $2
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

func scanRequests(rows pgx.Rows) ([]model.BookingRequest, error) {
	var reqs []model.BookingRequest
	for rows.Next() {
		var req model.BookingRequest
		if err := rows.Scan(
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
		); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return reqs, nil
}
