package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sometime-community/forum-auth/internal/domain"
)

// RefreshTokenLedger keeps at most one refresh token per subject.
type RefreshTokenLedger interface {
	// Put overwrites the subject's slot unconditionally.
	Put(ctx context.Context, rec domain.RefreshRecord) error
	// Get returns domain.ErrNotFound when the subject has no active session.
	Get(ctx context.Context, subjectID string) (domain.RefreshRecord, error)
	// Rotate replaces the slot only if it still holds expected.
	Rotate(ctx context.Context, expected string, next domain.RefreshRecord) (bool, error)
	// Remove drops the subject's slot. Removing an absent slot is not an error.
	Remove(ctx context.Context, subjectID string) error
	// PurgeExpired deletes slots whose token expired before the cutoff.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type refreshTokenRepository struct {
	db DBTX
}

// NewRefreshTokenRepository returns a Postgres-backed ledger.
func NewRefreshTokenRepository(db DBTX) RefreshTokenLedger {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Put(ctx context.Context, rec domain.RefreshRecord) error {
	const query = `
        INSERT INTO refresh_tokens (subject_id, token, expires_at, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (subject_id) DO UPDATE
        SET token=EXCLUDED.token, expires_at=EXCLUDED.expires_at, updated_at=NOW()`

	if _, err := r.db.Exec(ctx, query, rec.SubjectID, rec.Token, rec.ExpiresAt); err != nil {
		return fmt.Errorf("upsert refresh token: %w", err)
	}
	return nil
}

func (r *refreshTokenRepository) Get(ctx context.Context, subjectID string) (domain.RefreshRecord, error) {
	const query = `
        SELECT subject_id, token, expires_at, updated_at
        FROM refresh_tokens WHERE subject_id=$1`

	var rec domain.RefreshRecord
	if err := r.db.QueryRow(ctx, query, subjectID).Scan(
		&rec.SubjectID,
		&rec.Token,
		&rec.ExpiresAt,
		&rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RefreshRecord{}, domain.ErrNotFound
		}
		return domain.RefreshRecord{}, fmt.Errorf("select refresh token: %w", err)
	}
	return rec, nil
}

func (r *refreshTokenRepository) Rotate(ctx context.Context, expected string, next domain.RefreshRecord) (bool, error) {
	const query = `
        UPDATE refresh_tokens SET token=$3, expires_at=$4, updated_at=NOW()
        WHERE subject_id=$1 AND token=$2`

	cmd, err := r.db.Exec(ctx, query, next.SubjectID, expected, next.Token, next.ExpiresAt)
	if err != nil {
		return false, fmt.Errorf("rotate refresh token: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *refreshTokenRepository) Remove(ctx context.Context, subjectID string) error {
	const query = `DELETE FROM refresh_tokens WHERE subject_id=$1`
	if _, err := r.db.Exec(ctx, query, subjectID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

func (r *refreshTokenRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM refresh_tokens WHERE expires_at < $1`
	cmd, err := r.db.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	return cmd.RowsAffected(), nil
}
