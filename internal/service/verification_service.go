package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sometime-community/forum-auth/internal/config"
	"github.com/sometime-community/forum-auth/internal/domain"
	"github.com/sometime-community/forum-auth/internal/events"
	"github.com/sometime-community/forum-auth/internal/mail"
	"github.com/sometime-community/forum-auth/internal/repository"
)

// Codes are drawn uniformly from [codeMin, codeMin+codeSpan).
const (
	codeMin  = 100000
	codeSpan = 900000
)

// VerificationService issues and checks email verification codes.
type VerificationService struct {
	ledger     repository.VerificationCodeLedger
	sender     mail.Sender
	dispatcher events.Dispatcher
	logger     *zap.Logger
	subject    string
	ttl        time.Duration
	now        func() time.Time
}

// VerificationDependencies encapsulates collaborators for the verification service.
type VerificationDependencies struct {
	Ledger     repository.VerificationCodeLedger
	Sender     mail.Sender
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewVerificationService builds the service.
func NewVerificationService(cfg config.VerificationConfig, subject string, deps VerificationDependencies) *VerificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	ttl := cfg.CodeTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &VerificationService{
		ledger:     deps.Ledger,
		sender:     deps.Sender,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		subject:    subject,
		ttl:        ttl,
		now:        now,
	}
}

// RequestCode replaces any outstanding code for email and mails the new one.
// The record is kept even when delivery fails.
func (s *VerificationService) RequestCode(ctx context.Context, email string) error {
	code, err := newCode()
	if err != nil {
		return err
	}

	rec := domain.VerificationRecord{
		Email:     email,
		Code:      code,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.ledger.Put(ctx, rec); err != nil {
		return err
	}

	sendErr := s.sender.Send(ctx, email, s.subject, mail.VerificationBody(code))
	s.publish(ctx, events.EventVerificationCodeRequested, email, events.DeliveryPayload{Delivered: sendErr == nil})
	if sendErr != nil {
		s.logger.Warn("verification mail not delivered", zap.String("email", email), zap.Error(sendErr))
		return fmt.Errorf("%w: %w", domain.ErrDeliveryError, sendErr)
	}
	return nil
}

// VerifyCode reports why a code is rejected: ErrCodeNotFound, ErrCodeExpired
// or ErrCodeMismatch. A nil error means the code is accepted.
func (s *VerificationService) VerifyCode(ctx context.Context, email, code string) error {
	rec, err := s.ledger.Find(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrCodeNotFound
		}
		return err
	}
	if rec.ExpiredAt(s.now()) {
		return domain.ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		return domain.ErrCodeMismatch
	}
	return nil
}

// ValidateCode collapses VerifyCode into the boolean the boundary exposes.
// Only storage failures are returned as errors.
func (s *VerificationService) ValidateCode(ctx context.Context, email, code string) (bool, error) {
	err := s.VerifyCode(ctx, email, code)
	switch {
	case err == nil:
		s.publish(ctx, events.EventVerificationCodeChecked, email, events.VerificationCheckedPayload{Success: true})
		return true, nil
	case errors.Is(err, domain.ErrCodeNotFound), errors.Is(err, domain.ErrCodeExpired), errors.Is(err, domain.ErrCodeMismatch):
		s.logger.Debug("verification code rejected", zap.String("email", email), zap.String("reason", err.Error()))
		s.publish(ctx, events.EventVerificationCodeChecked, email, events.VerificationCheckedPayload{Reason: err.Error()})
		return false, nil
	default:
		return false, err
	}
}

func (s *VerificationService) publish(ctx context.Context, eventType events.EventType, email string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	ev := events.New(eventType, s.now())
	ev.Email = email
	ev.Payload = payload
	if err := s.dispatcher.Publish(ctx, ev); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return strconv.FormatInt(codeMin+n.Int64(), 10), nil
}
