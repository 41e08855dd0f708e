package storage

import (
	"context"
	"encoding/json"

	"github.com/nkamath/calshare/internal/model"
	"github.com/nkamath/calshare/libs/db"
)

type CalendarRepository struct {
	pool *db.Pool
}

func NewCalendarRepository(pool *db.Pool) *CalendarRepository {
	return &CalendarRepository{pool: pool}
}

// CreateOwnerAndCalendar registers a user and provisions their calendar
// in one transaction, so a failed calendar insert never leaves an
// orphaned account.
func (r *CalendarRepository) CreateOwnerAndCalendar(ctx context.Context, user *model.User, cal *model.Calendar) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, display_name)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Email, user.PasswordHash, user.DisplayName)
	if err != nil {
		return mapErr(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO calendars
			(id, owner_id, share_token, timezone, workday_start, workday_end, default_duration_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, cal.ID, cal.OwnerID, cal.ShareToken, cal.Timezone,
		cal.WorkingHours.Start, cal.WorkingHours.End, cal.DefaultDurationMinutes)
	if err != nil {
		return mapErr(err)
	}
	return tx.Commit(ctx)
}

const calendarColumns = `
	id, owner_id, share_token, timezone, workday_start, workday_end,
	default_duration_minutes, created_at, updated_at`

func (r *CalendarRepository) GetByShareToken(ctx context.Context, token string) (model.Calendar, error) {
	return r.getWhere(ctx, `share_token = $1`, token)
}

func (r *CalendarRepository) GetByOwner(ctx context.Context, ownerID string) (model.Calendar, error) {
	return r.getWhere(ctx, `owner_id = $1`, ownerID)
}

func (r *CalendarRepository) GetByID(ctx context.Context, calendarID string) (model.Calendar, error) {
	return r.getWhere(ctx, `id = $1`, calendarID)
}

// UpdateSettings writes the owner-editable settings. The share token and
// ownership are immutable here; the token changes only through rotation.
func (r *CalendarRepository) UpdateSettings(ctx context.Context, cal *model.Calendar) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE calendars
		SET timezone = $2,
			workday_start = $3,
			workday_end = $4,
			default_duration_minutes = $5,
			updated_at = now()
		WHERE id = $1
	`, cal.ID, cal.Timezone, cal.WorkingHours.Start, cal.WorkingHours.End, cal.DefaultDurationMinutes)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// UpdateShareToken atomically swaps the calendar's share token and
// returns the token it replaced. The rotation announcement commits with
// the swap.
func (r *CalendarRepository) UpdateShareToken(ctx context.Context, calendarID, newToken string) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var old string
	err = tx.QueryRow(ctx, `
		UPDATE calendars c
		SET share_token = $2,
			updated_at = now()
		FROM (SELECT share_token FROM calendars WHERE id = $1 FOR UPDATE) prev
		WHERE c.id = $1
		RETURNING prev.share_token
	`, calendarID, newToken).Scan(&old)
	if err != nil {
		return "", mapErr(err)
	}

	// Tokens themselves stay out of the payload; consumers only need to
	// know which calendar's link died.
	payload, _ := json.Marshal(map[string]string{"calendar_id": calendarID})
	if err := appendOutbox(ctx, tx, "calendar", calendarID, TopicTokenRotated, payload); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", mapErr(err)
	}
	return old, nil
}

func (r *CalendarRepository) getWhere(ctx context.Context, where string, arg any) (model.Calendar, error) {
	var cal model.Calendar
	err := r.pool.QueryRow(ctx,
		`SELECT `+calendarColumns+` FROM calendars WHERE `+where, arg,
	).Scan(
		&cal.ID,
		&cal.OwnerID,
		&cal.ShareToken,
		&cal.Timezone,
		&cal.WorkingHours.Start,
		&cal.WorkingHours.End,
		&cal.DefaultDurationMinutes,
		&cal.CreatedAt,
		&cal.UpdatedAt,
	)
	if err != nil {
		return model.Calendar{}, mapErr(err)
	}
	return cal, nil
}
