package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkamath/calshare/internal/model"
)

func TestMapErr(t *testing.T) {
	exclusion := &pgconn.PgError{Code: "23P01", ConstraintName: "events_no_overlap"}
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}

	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, model.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("get: %w", pgx.ErrNoRows), model.ErrNotFound},
		{"exclusion violation", exclusion, model.ErrSlotConflict},
	}
	for _, tc := range cases {
		if got := mapErr(tc.in); !errors.Is(got, tc.want) {
			t.Errorf("%s: mapErr = %v, want %v", tc.name, got, tc.want)
		}
	}

	// Other driver errors pass through untranslated.
	if got := mapErr(unique); errors.Is(got, model.ErrSlotConflict) || errors.Is(got, model.ErrNotFound) {
		t.Errorf("unique violation mistranslated to %v", got)
	}
	if !IsUniqueViolation(unique) {
		t.Error("IsUniqueViolation missed a 23505")
	}
	if IsConflict(unique) || !IsConflict(exclusion) {
		t.Error("IsConflict confuses error codes")
	}
}
