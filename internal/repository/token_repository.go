package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRepo is the refresh-token store. It keeps exactly one record per
// user under refresh_token:<id>; every Store unconditionally overwrites
// the previous value, which is what invalidates a rotated-out token even
// while it is still cryptographically valid.
//
// Availability policy: with strict=false (the default) an absent or
// unreachable Redis degrades to no-ops — writes are dropped and reads
// report the token as absent, so authentication keeps working at the
// cost of refresh. With strict=true such failures surface as
// ErrStoreUnavailable and the request fails instead.
type TokenRepo struct {
	rdb    *redis.Client
	ttl    time.Duration
	strict bool
}

func NewTokenRepo(rdb *redis.Client, ttlDays int, strict bool) *TokenRepo {
	return &TokenRepo{rdb: rdb, ttl: time.Duration(ttlDays) * 24 * time.Hour, strict: strict}
}

func refreshKey(userID uint64) string { return fmt.Sprintf("refresh_token:%d", userID) }

// Store overwrites the user's current refresh token and resets the TTL
// to the full refresh lifetime. Single-key SET is atomic, so a
// concurrent Get observes either the old or the new token, never a
// partial write.
func (r *TokenRepo) Store(ctx context.Context, userID uint64, token string) error {
	if r.rdb == nil {
		if r.strict {
			return ErrStoreUnavailable
		}
		return nil
	}
	if err := r.rdb.Set(ctx, refreshKey(userID), token, r.ttl).Err(); err != nil {
		if r.strict {
			return err
		}
		return nil
	}
	return nil
}

// Get returns the user's current refresh token. The second return value
// is false when no record exists, which happens after logout, after TTL
// expiry, or in lax mode while Redis is down.
func (r *TokenRepo) Get(ctx context.Context, userID uint64) (string, bool, error) {
	if r.rdb == nil {
		if r.strict {
			return "", false, ErrStoreUnavailable
		}
		return "", false, nil
	}
	val, err := r.rdb.Get(ctx, refreshKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		if r.strict {
			return "", false, err
		}
		return "", false, nil
	}
	return val, true, nil
}

// Delete removes the user's record so any outstanding refresh token is
// rejected from now on. Used by logout.
func (r *TokenRepo) Delete(ctx context.Context, userID uint64) error {
	if r.rdb == nil {
		if r.strict {
			return ErrStoreUnavailable
		}
		return nil
	}
	if err := r.rdb.Del(ctx, refreshKey(userID)).Err(); err != nil {
		if r.strict {
			return err
		}
	}
	return nil
}
