package storage

import (
	"context"

	"github.com/nkamath/calshare/internal/model"
	"github.com/nkamath/calshare/libs/db"
)

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, COALESCE(display_name, ''), created_at
		FROM users
		WHERE email = $1
	`, email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.CreatedAt,
	)
	if err != nil {
		return model.User{}, mapErr(err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (model.User, error) {
	var user model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, COALESCE(display_name, ''), created_at
		FROM users
		WHERE id = $1
	`, userID).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.CreatedAt,
	)
	if err != nil {
		return model.User{}, mapErr(err)
	}
	return user, nil
}
