package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sometime-community/forum-auth/internal/domain"
)

const (
	refreshKeyPrefix = "auth:refresh:"
	minRefreshTTL    = time.Second
)

// rotateRefreshScript swaps the stored token only when it still equals ARGV[1].
var rotateRefreshScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
  return 0
end
if current ~= ARGV[1] then
  return 0
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

type redisRefreshLedger struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisRefreshLedger stores one key per subject, expiring with the token.
func NewRedisRefreshLedger(client redis.UniversalClient, now func() time.Time) RefreshTokenLedger {
	if now == nil {
		now = time.Now
	}
	return &redisRefreshLedger{client: client, now: now}
}

func (l *redisRefreshLedger) Put(ctx context.Context, rec domain.RefreshRecord) error {
	if err := l.client.Set(ctx, refreshKey(rec.SubjectID), rec.Token, l.ttl(rec.ExpiresAt)).Err(); err != nil {
		return fmt.Errorf("redis set refresh token: %w", err)
	}
	return nil
}

func (l *redisRefreshLedger) Get(ctx context.Context, subjectID string) (domain.RefreshRecord, error) {
	token, err := l.client.Get(ctx, refreshKey(subjectID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.RefreshRecord{}, domain.ErrNotFound
		}
		return domain.RefreshRecord{}, fmt.Errorf("redis get refresh token: %w", err)
	}
	return domain.RefreshRecord{SubjectID: subjectID, Token: token}, nil
}

func (l *redisRefreshLedger) Rotate(ctx context.Context, expected string, next domain.RefreshRecord) (bool, error) {
	res, err := rotateRefreshScript.Run(ctx, l.client,
		[]string{refreshKey(next.SubjectID)},
		expected, next.Token, l.ttl(next.ExpiresAt).Milliseconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("redis rotate refresh token: %w", err)
	}
	return res == 1, nil
}

func (l *redisRefreshLedger) Remove(ctx context.Context, subjectID string) error {
	if err := l.client.Del(ctx, refreshKey(subjectID)).Err(); err != nil {
		return fmt.Errorf("redis delete refresh token: %w", err)
	}
	return nil
}

// PurgeExpired is a no-op: keys carry their own TTL.
func (l *redisRefreshLedger) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// ttl never returns zero for a set deadline: zero would keep the key forever.
func (l *redisRefreshLedger) ttl(expiresAt time.Time) time.Duration {
	if expiresAt.IsZero() {
		return 0
	}
	d := expiresAt.Sub(l.now())
	if d < minRefreshTTL {
		return minRefreshTTL
	}
	return d
}

func refreshKey(subjectID string) string {
	return refreshKeyPrefix + subjectID
}
