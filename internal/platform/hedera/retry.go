package hedera

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultMaxAttempts = 5

// RetryGateway wraps a PayoutGateway with exponential backoff and a fixed
// attempt ceiling. Only the terminal outcome is surfaced to callers; the
// same idempotency key is sent on every attempt so the wrapped gateway can
// deduplicate a transfer that landed on-chain while its response was lost.
type RetryGateway struct {
	inner       PayoutGateway
	maxAttempts int
	logger      zerolog.Logger

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewRetryGateway(inner PayoutGateway, maxAttempts int, logger zerolog.Logger) *RetryGateway {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &RetryGateway{
		inner:       inner,
		maxAttempts: maxAttempts,
		logger:      logger,
		sleep:       sleepCtx,
	}
}

func (g *RetryGateway) TransferFungible(ctx context.Context, req FungibleTransfer) (*TransferResult, error) {
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	var result *TransferResult
	err := g.retry(ctx, "transfer_fungible", func() error {
		var err error
		result, err = g.inner.TransferFungible(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (g *RetryGateway) TransferUniquePrize(ctx context.Context, req PrizeTransfer) (*PrizeResult, error) {
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	var result *PrizeResult
	err := g.retry(ctx, "transfer_unique_prize", func() error {
		var err error
		result, err = g.inner.TransferUniquePrize(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (g *RetryGateway) AvailablePrizes(ctx context.Context) (int, error) {
	var count int
	err := g.retry(ctx, "available_prizes", func() error {
		var err error
		count, err = g.inner.AvailablePrizes(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// retry runs op up to maxAttempts times with 1s, 2s, 4s, 8s... waits
// between attempts.
func (g *RetryGateway) retry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err
			g.logger.Warn().
				Str("operation", op).
				Int("attempt", attempt).
				Err(err).
				Msg("payout attempt failed")

			if attempt == g.maxAttempts {
				break
			}

			wait := time.Duration(1<<(attempt-1)) * time.Second
			if err := g.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("max attempts (%d) reached: %w", g.maxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
