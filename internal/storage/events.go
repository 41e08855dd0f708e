package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nkamath/calshare/internal/model"
	"github.com/nkamath/calshare/libs/db"
)

type EventRepository struct {
	pool *db.Pool
}

func NewEventRepository(pool *db.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = `
	id, calendar_id, title, COALESCE(description, ''),
	start_utc, end_utc, origin,
	COALESCE(requester_name, ''), COALESCE(requester_email, ''),
	created_at, updated_at`

// ListBetween returns the calendar's events intersecting [start, end),
// ordered by start time. Callers pass month bounds computed in the
// calendar's timezone.
func (r *EventRepository) ListBetween(ctx context.Context, calendarID string, start, end time.Time) ([]model.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
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

func (r *EventRepository) Get(ctx context.Context, calendarID, eventID string) (model.Event, error) {
	var evt model.Event
	err := r.pool.QueryRow(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE id = $1 AND calendar_id = $2
	`, eventID, calendarID).Scan(
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
	)
	if err != nil {
		return model.Event{}, mapErr(err)
	}
	return evt, nil
}

// Insert writes an owner-created event and its outbox announcement in
// one transaction. An overlap with any existing event of the calendar
// violates the exclusion constraint and surfaces as ErrSlotConflict.
func (r *EventRepository) Insert(ctx context.Context, evt *model.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO events
			(id, calendar_id, title, description, start_utc, end_utc,
			origin, requester_name, requester_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, evt.ID, evt.CalendarID, evt.Title, evt.Description, evt.StartUTC, evt.EndUTC,
		evt.Meta.Origin, evt.Meta.RequesterName, evt.Meta.RequesterEmail)
	if err != nil {
		return mapErr(err)
	}
	if err := appendOutbox(ctx, tx, "event", evt.ID, TopicEventCreated, eventPayload(evt)); err != nil {
		return err
	}
	return mapErr(tx.Commit(ctx))
}

// Update rewrites an event's title, description and time range. Moving
// it onto another event fails with ErrSlotConflict; the row keeps its
// previous range.
func (r *EventRepository) Update(ctx context.Context, evt *model.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE events
		SET title = $3,
			description = $4,
			start_utc = $5,
			end_utc = $6,
			updated_at = now()
		WHERE id = $1 AND calendar_id = $2
	`, evt.ID, evt.CalendarID, evt.Title, evt.Description, evt.StartUTC, evt.EndUTC)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	if err := appendOutbox(ctx, tx, "event", evt.ID, TopicEventUpdated, eventPayload(evt)); err != nil {
		return err
	}
	return mapErr(tx.Commit(ctx))
}

func (r *EventRepository) Delete(ctx context.Context, calendarID, eventID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		DELETE FROM events
		WHERE id = $1 AND calendar_id = $2
	`, eventID, calendarID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	payload, _ := json.Marshal(map[string]string{
		"event_id":    eventID,
		"calendar_id": calendarID,
	})
	if err := appendOutbox(ctx, tx, "event", eventID, TopicEventDeleted, payload); err != nil {
		return err
	}
	return mapErr(tx.Commit(ctx))
}

func eventPayload(evt *model.Event) []byte {
	payload, _ := json.Marshal(map[string]string{
		"event_id":    evt.ID,
		"calendar_id": evt.CalendarID,
		"title":       evt.Title,
		"start":       evt.StartUTC.Format(time.RFC3339),
		"end":         evt.EndUTC.Format(time.RFC3339),
	})
	return payload
}
