package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sometime-community/forum-auth/internal/repository"
)

// LedgerCompactor periodically drops expired refresh slots and verification
// codes. Validation re-checks expiry, so compaction only reclaims space.
type LedgerCompactor struct {
	refresh   repository.RefreshTokenLedger
	codes     repository.VerificationCodeLedger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewLedgerCompactor builds a compactor. Codes are kept for retention past
// their expiry.
func NewLedgerCompactor(refresh repository.RefreshTokenLedger, codes repository.VerificationCodeLedger, interval, retention time.Duration, logger *zap.Logger) *LedgerCompactor {
	return &LedgerCompactor{
		refresh:   refresh,
		codes:     codes,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

// Run compacts on every tick until ctx is done. A non-positive interval disables it.
func (c *LedgerCompactor) Run(ctx context.Context) {
	if c.interval <= 0 {
		return
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Compact(ctx)
		}
	}
}

// Compact runs a single purge pass and returns the number of removed entries.
func (c *LedgerCompactor) Compact(ctx context.Context) int64 {
	now := c.now()
	var total int64

	if c.refresh != nil {
		n, err := c.refresh.PurgeExpired(ctx, now)
		if err != nil {
			c.logger.Warn("purge refresh tokens failed", zap.Error(err))
		}
		total += n
	}
	if c.codes != nil {
		n, err := c.codes.PurgeExpired(ctx, now.Add(-c.retention))
		if err != nil {
			c.logger.Warn("purge verification codes failed", zap.Error(err))
		}
		total += n
	}

	if total > 0 {
		c.logger.Info("ledger compacted", zap.Int64("removed", total))
	}
	return total
}
