package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sometime-community/forum-auth/internal/domain"
)

// VerificationCodeLedger keeps the outstanding verification code per email.
type VerificationCodeLedger interface {
	// Put overwrites any earlier code for the same email.
	Put(ctx context.Context, rec domain.VerificationRecord) error
	// Find returns domain.ErrNotFound when no code was issued for the email.
	Find(ctx context.Context, email string) (domain.VerificationRecord, error)
	// PurgeExpired deletes records that expired before the cutoff.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type verificationCodeRepository struct {
	db DBTX
}

// NewVerificationCodeRepository constructs the Postgres ledger.
func NewVerificationCodeRepository(db DBTX) VerificationCodeLedger {
	return &verificationCodeRepository{db: db}
}

func (r *verificationCodeRepository) Put(ctx context.Context, rec domain.VerificationRecord) error {
	const query = `
        INSERT INTO verification_codes (email, code, expires_at)
        VALUES ($1,$2,$3)
        ON CONFLICT (email) DO UPDATE
        SET code=EXCLUDED.code, expires_at=EXCLUDED.expires_at, created_at=NOW()`
	if _, err := r.db.Exec(ctx, query, rec.Email, rec.Code, rec.ExpiresAt); err != nil {
		return fmt.Errorf("upsert verification code: %w", err)
	}
	return nil
}

func (r *verificationCodeRepository) Find(ctx context.Context, email string) (domain.VerificationRecord, error) {
	const query = `
        SELECT email, code, expires_at
        FROM verification_codes WHERE email=$1`
	var rec domain.VerificationRecord
	if err := r.db.QueryRow(ctx, query, email).Scan(
		&rec.Email,
		&rec.Code,
		&rec.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.VerificationRecord{}, domain.ErrNotFound
		}
		return domain.VerificationRecord{}, fmt.Errorf("select verification code: %w", err)
	}
	return rec, nil
}

func (r *verificationCodeRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM verification_codes WHERE expires_at < $1`
	cmd, err := r.db.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("purge verification codes: %w", err)
	}
	return cmd.RowsAffected(), nil
}
