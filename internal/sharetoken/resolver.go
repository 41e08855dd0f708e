package sharetoken

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkamath/calshare/internal/model"
)

// CalendarStore is the slice of calendar storage the resolver needs.
type CalendarStore interface {
	GetByID(ctx context.Context, calendarID string) (model.Calendar, error)
	GetByShareToken(ctx context.Context, token string) (model.Calendar, error)
	UpdateShareToken(ctx context.Context, calendarID, newToken string) (string, error)
}

// Resolver maps share tokens to calendars, caching hits in Redis. Cached
// entries hold only the calendar ID; the calendar row is always reloaded
// and its current token compared, so a rotated token stops working even
// while a stale cache entry survives.
type Resolver struct {
	calendars CalendarStore
	rdb       *redis.Client
	ttl       time.Duration
	logger    *slog.Logger
}

func NewResolver(calendars CalendarStore, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Resolver {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Resolver{calendars: calendars, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(token string) string { return "sharetoken:" + token }

// Resolve returns the calendar currently bearing token, or ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, token string) (model.Calendar, error) {
	if !Valid(token) {
		return model.Calendar{}, model.ErrNotFound
	}

	if r.rdb != nil {
		calID, err := r.rdb.Get(ctx, cacheKey(token)).Result()
		switch {
		case err == nil:
			return r.resolveCached(ctx, token, calID)
		case !errors.Is(err, redis.Nil):
			r.logger.Warn("share token cache read failed", "err", err)
		}
	}

	cal, err := r.calendars.GetByShareToken(ctx, token)
	if err != nil {
		return model.Calendar{}, err
	}
	if r.rdb != nil {
		if err := r.rdb.Set(ctx, cacheKey(token), cal.ID, r.ttl).Err(); err != nil {
			r.logger.Warn("share token cache write failed", "err", err)
		}
	}
	return cal, nil
}

// resolveCached revalidates a cached token mapping against the stored
// calendar row. The cached entry only narrows the lookup; the row's
// current token decides, so an entry left behind by a rotation resolves
// to not-found, not to the calendar.
func (r *Resolver) resolveCached(ctx context.Context, token, calID string) (model.Calendar, error) {
	cal, err := r.calendars.GetByID(ctx, calID)
	if err == nil && cal.ShareToken == token {
		return cal, nil
	}
	// Stale: the token was rotated away or the calendar is gone.
	r.invalidate(ctx, token)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.Calendar{}, err
	}
	return model.Calendar{}, model.ErrNotFound
}

// Rotate issues a new token for the calendar, swaps it in storage and
// drops the old token's cache entry. Requests carrying the old token
// fail from the moment the swap commits.
func (r *Resolver) Rotate(ctx context.Context, calendarID string) (string, error) {
	token, err := Issue()
	if err != nil {
		return "", err
	}
	old, err := r.calendars.UpdateShareToken(ctx, calendarID, token)
	if err != nil {
		return "", err
	}
	r.invalidate(ctx, old)
	return token, nil
}

func (r *Resolver) invalidate(ctx context.Context, token string) {
	if r.rdb == nil || token == "" {
		return
	}
	if err := r.rdb.Del(ctx, cacheKey(token)).Err(); err != nil {
		r.logger.Warn("share token cache invalidation failed", "err", err, "token", token)
	}
}
