package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sometime-community/forum-auth/internal/domain"
)

const (
	verificationKeyPrefix = "auth:verify:"

	fieldCode      = "code"
	fieldExpiresAt = "expires_at"
)

type redisVerificationLedger struct {
	client    redis.UniversalClient
	retention time.Duration
	now       func() time.Time
}

// NewRedisVerificationLedger keeps a record past its expiry for the retention
// window so that late attempts still resolve to an expired code.
func NewRedisVerificationLedger(client redis.UniversalClient, retention time.Duration, now func() time.Time) VerificationCodeLedger {
	if now == nil {
		now = time.Now
	}
	if retention <= 0 {
		retention = time.Minute
	}
	return &redisVerificationLedger{client: client, retention: retention, now: now}
}

func (l *redisVerificationLedger) Put(ctx context.Context, rec domain.VerificationRecord) error {
	key := verificationKey(rec.Email)
	ttl := rec.ExpiresAt.Sub(l.now()) + l.retention
	if ttl < time.Second {
		ttl = time.Second
	}

	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldCode, rec.Code,
			fieldExpiresAt, strconv.FormatInt(rec.ExpiresAt.UnixNano(), 10),
		)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put verification code: %w", err)
	}
	return nil
}

func (l *redisVerificationLedger) Find(ctx context.Context, email string) (domain.VerificationRecord, error) {
	fields, err := l.client.HGetAll(ctx, verificationKey(email)).Result()
	if err != nil {
		return domain.VerificationRecord{}, fmt.Errorf("redis get verification code: %w", err)
	}
	code, ok := fields[fieldCode]
	if !ok {
		return domain.VerificationRecord{}, domain.ErrNotFound
	}
	nanos, err := strconv.ParseInt(fields[fieldExpiresAt], 10, 64)
	if err != nil {
		return domain.VerificationRecord{}, fmt.Errorf("redis verification code expiry: %w", err)
	}
	return domain.VerificationRecord{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Unix(0, nanos).UTC(),
	}, nil
}

// PurgeExpired is a no-op: keys carry their own TTL.
func (l *redisVerificationLedger) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func verificationKey(email string) string {
	return verificationKeyPrefix + email
}
