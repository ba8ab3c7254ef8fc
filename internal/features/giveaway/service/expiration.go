package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"faucet-tool-backend/internal/common/clock"
	apperrors "faucet-tool-backend/internal/common/errors"
	"faucet-tool-backend/internal/features/giveaway/repository"
)

// ExpirationService concludes giveaways whose scheduled end has passed. The
// schedule lives in Redis, not in process memory, so the first sweep after a
// restart also concludes anything that expired while the service was down.
type ExpirationService struct {
	giveaways repository.GiveawayRepository
	service   GiveawayService
	clock     clock.Clock
	interval  time.Duration
	logger    zerolog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewExpirationService(
	giveaways repository.GiveawayRepository,
	service GiveawayService,
	clk clock.Clock,
	interval time.Duration,
	logger zerolog.Logger,
) *ExpirationService {
	return &ExpirationService{
		giveaways: giveaways,
		service:   service,
		clock:     clk,
		interval:  interval,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
}

func (s *ExpirationService) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// Immediate sweep on startup to catch anything that expired while
		// the process was down.
		s.sweep(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *ExpirationService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *ExpirationService) sweep(ctx context.Context) {
	giveaways, err := s.giveaways.ListActive(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("expiration sweep failed to list active giveaways")
		return
	}

	now := s.clock.Now()
	for _, giveaway := range giveaways {
		if giveaway.EndsAt.After(now) {
			continue
		}

		if _, err := s.service.Conclude(ctx, giveaway.GuildID); err != nil {
			// A lost pointer race means someone else concluded it first.
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) && appErr.Code == apperrors.ErrCodeNoActiveGiveaway {
				continue
			}
			s.logger.Error().
				Str("giveaway_id", giveaway.ID).
				Err(err).
				Msg("failed to conclude expired giveaway")
		}
	}
}
