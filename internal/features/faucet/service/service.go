package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"faucet-tool-backend/internal/common/clock"
	apperrors "faucet-tool-backend/internal/common/errors"
	"faucet-tool-backend/internal/features/faucet/models"
	"faucet-tool-backend/internal/features/faucet/repository"
	"faucet-tool-backend/internal/platform/discord"
	"faucet-tool-backend/internal/platform/hedera"
)

const claimLockTTL = 30 * time.Second

type faucetService struct {
	claims   repository.ClaimRepository
	configs  repository.ConfigRepository
	access   AccessPolicy
	gateway  hedera.PayoutGateway
	notifier discord.Notifier
	clock    clock.Clock
	logger   zerolog.Logger
}

func NewFaucetService(
	claims repository.ClaimRepository,
	configs repository.ConfigRepository,
	access AccessPolicy,
	gateway hedera.PayoutGateway,
	notifier discord.Notifier,
	clk clock.Clock,
	logger zerolog.Logger,
) FaucetService {
	return &faucetService{
		claims:   claims,
		configs:  configs,
		access:   access,
		gateway:  gateway,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
	}
}

func (s *faucetService) CheckEligibility(ctx context.Context, userID, guildID, walletAddress string) (*models.EligibilityResult, error) {
	record, err := s.claims.GetOrCreate(ctx, userID, guildID, walletAddress)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get or create claim record", err)
	}
	return s.eligibility(record), nil
}

// eligibility applies the faucet switch and the calendar-day gate. The gate
// is pinned to the reference timezone: a claim blocks further claims until
// the next local midnight, never a rolling 24h window.
func (s *faucetService) eligibility(record *models.ClaimRecord) *models.EligibilityResult {
	if !record.IsFaucetActive {
		return &models.EligibilityResult{
			Eligible: false,
			Reason:   "Your faucet is currently OFF. Toggle it back ON to claim.",
		}
	}

	lastClaim, ok := record.LastClaimAt()
	if !ok {
		return &models.EligibilityResult{Eligible: true}
	}

	now := s.clock.Now()
	if clock.SameDay(s.clock, lastClaim, now) {
		nextReset := clock.NextReset(s.clock, now)
		return &models.EligibilityResult{
			Eligible:    false,
			Reason:      fmt.Sprintf("You already claimed today! Next claim available in **%s** (midnight %s).", formatWait(nextReset.Sub(now)), s.clock.Location()),
			NextClaimAt: &nextReset,
		}
	}

	return &models.EligibilityResult{Eligible: true}
}

func (s *faucetService) VerifyAccess(ctx context.Context, member models.Member, walletAddress string, cfg *models.FaucetConfig) (*models.AccessResult, error) {
	if cfg.RoleID != "" && !s.access.HasRole(member, cfg.RoleID) {
		return &models.AccessResult{
			Allowed: false,
			Reason:  "You are missing the role required to use the faucet.",
		}, nil
	}

	holdings, err := s.access.Holdings(ctx, walletAddress, cfg.NFTTokenID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternalAPI, "holdings lookup failed")
	}
	if !holdings.OwnsAny {
		return &models.AccessResult{
			Allowed: false,
			Reason:  "You don't hold any collateral NFTs. You need at least 1 to use the faucet.",
		}, nil
	}

	return &models.AccessResult{Allowed: true}, nil
}

func (s *faucetService) ProcessClaim(ctx context.Context, member models.Member, guildID, walletAddress string) (*models.ClaimResult, error) {
	cfg, err := s.configs.GetConfig(ctx, guildID)
	if err != nil {
		if errors.Is(err, repository.ErrConfigNotFound) {
			return &models.ClaimResult{
				Success: false,
				Message: "Faucet is not configured for this server. An administrator must set it up first.",
			}, nil
		}
		return nil, apperrors.NewDatabaseError("get faucet config", err)
	}

	// Serialize per (user, guild): two claims racing the eligibility check
	// must not both reach the payout.
	if err := s.claims.AcquireClaimLock(ctx, member.UserID, guildID, claimLockTTL); err != nil {
		if errors.Is(err, repository.ErrClaimLocked) {
			return &models.ClaimResult{
				Success: false,
				Message: "A claim is already being processed for you. Try again in a moment.",
			}, nil
		}
		return nil, apperrors.NewDatabaseError("acquire claim lock", err)
	}
	defer func() {
		if err := s.claims.ReleaseClaimLock(context.WithoutCancel(ctx), member.UserID, guildID); err != nil {
			s.logger.Error().Str("user_id", member.UserID).Str("guild_id", guildID).Err(err).Msg("failed to release claim lock")
		}
	}()

	access, err := s.VerifyAccess(ctx, member, walletAddress, cfg)
	if err != nil {
		return nil, err
	}
	if !access.Allowed {
		return &models.ClaimResult{Success: false, Message: access.Reason}, nil
	}

	// Eligibility is re-checked at claim time; a status shown earlier is
	// never trusted.
	record, err := s.claims.GetOrCreate(ctx, member.UserID, guildID, walletAddress)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get or create claim record", err)
	}
	if elig := s.eligibility(record); !elig.Eligible {
		return &models.ClaimResult{Success: false, Message: elig.Reason}, nil
	}

	amount := cfg.AmountPerClaim
	if amount <= 0 {
		amount = models.DefaultAmountPerClaim
	}
	decimals := cfg.TokenDecimals
	if decimals <= 0 {
		decimals = models.DefaultTokenDecimals
	}

	result, err := s.gateway.TransferFungible(ctx, hedera.FungibleTransfer{
		Destination: walletAddress,
		TokenID:     cfg.TokenID,
		Amount:      amount,
		Decimals:    decimals,
	})
	if err != nil {
		// A failed transfer never consumes the daily allowance.
		s.logger.Warn().
			Str("user_id", member.UserID).
			Str("guild_id", guildID).
			Err(err).
			Msg("claim payout failed")
		return &models.ClaimResult{
			Success: false,
			Message: fmt.Sprintf("Token transfer failed: %v. If your wallet has not associated token %s yet, associate it and try again.", err, cfg.TokenID),
		}, nil
	}

	if err := s.claims.RecordClaim(ctx, member.UserID, guildID, amount, s.clock.Now()); err != nil {
		// The payout landed on-chain. Surface the fault but keep the
		// transaction id so the ledger can be reconciled by hand.
		return nil, apperrors.NewDatabaseError("record claim", err).
			WithDetail("transaction_id", result.TransactionID)
	}

	s.logger.Info().
		Str("user_id", member.UserID).
		Str("guild_id", guildID).
		Int64("amount", amount).
		Str("transaction_id", result.TransactionID).
		Msg("claim paid")

	if cfg.ChannelID != "" {
		s.notifier.Announce(discord.Announcement{
			ChannelID:   cfg.ChannelID,
			Title:       "Faucet Claim",
			Description: fmt.Sprintf("<@%s> claimed %d tokens.", member.UserID, amount),
			Color:       discord.ColorSuccess,
		})
	}

	return &models.ClaimResult{
		Success:       true,
		Amount:        amount,
		TransactionID: result.TransactionID,
		Message:       fmt.Sprintf("Claimed %d! Next claim available tomorrow at midnight %s.", amount, s.clock.Location()),
	}, nil
}

func (s *faucetService) GetStatus(ctx context.Context, userID, guildID, walletAddress string) (*models.StatusSummary, error) {
	cfg, err := s.configs.GetConfig(ctx, guildID)
	if err != nil {
		if errors.Is(err, repository.ErrConfigNotFound) {
			return nil, apperrors.New(apperrors.ErrCodeNotConfigured, "Faucet is not configured for this server.")
		}
		return nil, apperrors.NewDatabaseError("get faucet config", err)
	}

	record, err := s.claims.GetOrCreate(ctx, userID, guildID, walletAddress)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get or create claim record", err)
	}

	now := s.clock.Now()
	nextReset := clock.NextReset(s.clock, now)

	elig := s.eligibility(record)
	claimStatus := "Ready to claim!"
	if !elig.Eligible {
		claimStatus = elig.Reason
	}

	return &models.StatusSummary{
		IsFaucetActive: record.IsFaucetActive,
		CanClaimToday:  elig.Eligible,
		TotalClaimed:   record.TotalClaimedAmount,
		AmountPerClaim: cfg.AmountPerClaim,
		NextResetIn:    formatWait(nextReset.Sub(now)),
		NextResetAt:    nextReset,
		ClaimStatus:    claimStatus,
	}, nil
}

func (s *faucetService) SetActive(ctx context.Context, userID, guildID, walletAddress string, active bool) (*models.ToggleResult, error) {
	// Lazy creation keeps toggle valid as the first-ever faucet operation.
	if _, err := s.claims.GetOrCreate(ctx, userID, guildID, walletAddress); err != nil {
		return nil, apperrors.NewDatabaseError("get or create claim record", err)
	}
	if err := s.claims.SetActive(ctx, userID, guildID, active); err != nil {
		return nil, apperrors.NewDatabaseError("set faucet active", err)
	}

	message := "Your faucet is now OFF. You will not receive daily drips."
	if active {
		message = "Your faucet is now ON."
	}
	return &models.ToggleResult{IsFaucetActive: active, Message: message}, nil
}

func (s *faucetService) GetConfig(ctx context.Context, guildID string) (*models.FaucetConfig, error) {
	cfg, err := s.configs.GetConfig(ctx, guildID)
	if err != nil {
		if errors.Is(err, repository.ErrConfigNotFound) {
			return nil, apperrors.New(apperrors.ErrCodeNotConfigured, "Faucet is not configured for this server.")
		}
		return nil, apperrors.NewDatabaseError("get faucet config", err)
	}
	return cfg, nil
}

func (s *faucetService) SetConfig(ctx context.Context, cfg *models.FaucetConfig) error {
	if cfg.GuildID == "" {
		return apperrors.NewValidationError("guild_id", "must not be empty")
	}
	if cfg.TokenID == "" {
		return apperrors.NewValidationError("token_id", "must not be empty")
	}
	if cfg.AmountPerClaim <= 0 {
		cfg.AmountPerClaim = models.DefaultAmountPerClaim
	}
	if cfg.TokenDecimals <= 0 {
		cfg.TokenDecimals = models.DefaultTokenDecimals
	}

	if err := s.configs.SetConfig(ctx, cfg); err != nil {
		return apperrors.NewDatabaseError("set faucet config", err)
	}

	s.logger.Info().Str("guild_id", cfg.GuildID).Str("token_id", cfg.TokenID).Int64("amount", cfg.AmountPerClaim).Msg("faucet configured")
	return nil
}

// formatWait renders a countdown as "Nh Mm".
func formatWait(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
