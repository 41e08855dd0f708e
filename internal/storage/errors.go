package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkamath/calshare/internal/model"
)

// IsConflict reports whether err is a Postgres exclusion-constraint
// violation, raised when an event insert overlaps an existing row.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports a duplicate key, e.g. an already-registered
// email or a share token collision.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// mapErr translates driver-level failures into domain sentinels so
// callers never see pgx internals.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case IsNotFound(err):
		return model.ErrNotFound
	case IsConflict(err):
		return model.ErrSlotConflict
	default:
		return err
	}
}
