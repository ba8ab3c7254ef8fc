package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"faucet-tool-backend/internal/common/clock"
	apperrors "faucet-tool-backend/internal/common/errors"
	"faucet-tool-backend/internal/features/giveaway/models"
	"faucet-tool-backend/internal/features/giveaway/repository"
	"faucet-tool-backend/internal/platform/discord"
	"faucet-tool-backend/internal/platform/hedera"
)

// GiveawayService runs timed NFT drawings: one active per guild, weighted
// entries, a single winner.
type GiveawayService interface {
	// Start creates and activates a giveaway for the guild. The duration
	// token falls back to one hour when unrecognized. Fails when the
	// guild already has an active giveaway or the prize inventory is
	// empty.
	Start(ctx context.Context, guildID, channelID, startedBy, durationToken string) (*models.StartResult, error)

	// Enter upserts the user's weighted entry into the guild's active
	// giveaway. Re-entering replaces the ticket count.
	Enter(ctx context.Context, guildID, userID, walletAddress string, ticketCount int64) (*models.EnterResult, error)

	// GetActive returns the guild's active giveaway with its entrant
	// count, or a NO_ACTIVE_GIVEAWAY error.
	GetActive(ctx context.Context, guildID string) (*models.Giveaway, int64, error)

	// Conclude ends the guild's active giveaway now: claims the active
	// pointer, draws a winner if anyone entered, pays the prize and
	// announces the outcome. Safe to race; only one caller concludes.
	Conclude(ctx context.Context, guildID string) (*models.Outcome, error)
}

type giveawayService struct {
	giveaways repository.GiveawayRepository
	entries   repository.EntryRepository
	gateway   hedera.PayoutGateway
	notifier  discord.Notifier
	clock     clock.Clock
	rng       *rand.Rand
	logger    zerolog.Logger
}

func NewGiveawayService(
	giveaways repository.GiveawayRepository,
	entries repository.EntryRepository,
	gateway hedera.PayoutGateway,
	notifier discord.Notifier,
	clk clock.Clock,
	rng *rand.Rand,
	logger zerolog.Logger,
) GiveawayService {
	return &giveawayService{
		giveaways: giveaways,
		entries:   entries,
		gateway:   gateway,
		notifier:  notifier,
		clock:     clk,
		rng:       rng,
		logger:    logger,
	}
}

func (s *giveawayService) Start(ctx context.Context, guildID, channelID, startedBy, durationToken string) (*models.StartResult, error) {
	// Refuse to start a drawing there is nothing to win.
	available, err := s.gateway.AvailablePrizes(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternalAPI, "prize inventory check failed")
	}
	if available == 0 {
		return nil, apperrors.New(apperrors.ErrCodeNoPrizeInventory, "No prizes left in the faucet wallet. Restock before starting a giveaway.")
	}

	duration, recognized := models.ParseDuration(durationToken)
	if !recognized {
		s.logger.Warn().Str("guild_id", guildID).Str("token", durationToken).Msg("unknown duration token, using 1hr")
		durationToken = "1hr"
	}

	now := s.clock.Now()
	giveaway := &models.Giveaway{
		ID:            models.NewGiveawayID(),
		GuildID:       guildID,
		ChannelID:     channelID,
		DurationToken: durationToken,
		StartedBy:     startedBy,
		StartedAt:     now,
		EndsAt:        now.Add(duration),
		IsActive:      true,
	}

	if err := s.giveaways.Create(ctx, giveaway); err != nil {
		if errors.Is(err, repository.ErrGiveawayActive) {
			return nil, apperrors.New(apperrors.ErrCodeGiveawayActive, "A giveaway is already running in this server. Wait for it to end.")
		}
		return nil, apperrors.NewDatabaseError("create giveaway", err)
	}

	s.logger.Info().
		Str("giveaway_id", giveaway.ID).
		Str("guild_id", guildID).
		Str("duration", durationToken).
		Time("ends_at", giveaway.EndsAt).
		Msg("giveaway started")

	// The caller posts the start announcement; this engine only announces
	// conclusions.
	return &models.StartResult{
		Giveaway: giveaway,
		Message: fmt.Sprintf("🎉 NFT giveaway live for the next **%s**! The more tickets you hold, the better your odds. Ends %s.",
			durationToken, giveaway.EndsAt.In(s.clock.Location()).Format("Jan 2 15:04 MST")),
	}, nil
}

func (s *giveawayService) Enter(ctx context.Context, guildID, userID, walletAddress string, ticketCount int64) (*models.EnterResult, error) {
	if ticketCount <= 0 {
		return nil, apperrors.NewValidationError("ticket_count", "must be positive")
	}

	giveaway, err := s.giveaways.GetActive(ctx, guildID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveGiveaway) {
			return nil, apperrors.New(apperrors.ErrCodeNoActiveGiveaway, "There is no active giveaway to enter.")
		}
		return nil, apperrors.NewDatabaseError("get active giveaway", err)
	}

	entry := &models.Entry{
		UserID:        userID,
		WalletAddress: walletAddress,
		TicketCount:   ticketCount,
		EnteredAt:     s.clock.Now(),
	}
	existed, err := s.entries.Upsert(ctx, guildID, giveaway.ID, entry)
	if err != nil {
		return nil, apperrors.NewDatabaseError("upsert giveaway entry", err)
	}

	message := fmt.Sprintf("You're in with **%d** tickets!", ticketCount)
	if existed {
		message = fmt.Sprintf("Entry updated: you now hold **%d** tickets.", ticketCount)
	}

	return &models.EnterResult{Entry: entry, IsUpdate: existed, Message: message}, nil
}

func (s *giveawayService) GetActive(ctx context.Context, guildID string) (*models.Giveaway, int64, error) {
	giveaway, err := s.giveaways.GetActive(ctx, guildID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveGiveaway) {
			return nil, 0, apperrors.New(apperrors.ErrCodeNoActiveGiveaway, "There is no active giveaway.")
		}
		return nil, 0, apperrors.NewDatabaseError("get active giveaway", err)
	}

	count, err := s.entries.Count(ctx, guildID, giveaway.ID)
	if err != nil {
		return nil, 0, apperrors.NewDatabaseError("count giveaway entries", err)
	}
	return giveaway, count, nil
}

func (s *giveawayService) Conclude(ctx context.Context, guildID string) (*models.Outcome, error) {
	giveaway, err := s.giveaways.ClaimActive(ctx, guildID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveGiveaway) {
			return nil, apperrors.New(apperrors.ErrCodeNoActiveGiveaway, "There is no active giveaway to conclude.")
		}
		return nil, apperrors.NewDatabaseError("claim active giveaway", err)
	}

	entries, err := s.entries.List(ctx, guildID, giveaway.ID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list giveaway entries", err)
	}

	outcome := &models.Outcome{
		GiveawayID: giveaway.ID,
		GuildID:    guildID,
		ChannelID:  giveaway.ChannelID,
	}

	winner, totalTickets := drawWinner(entries, s.rng)
	if winner == nil {
		outcome.NoParticipants = true
		s.logger.Info().Str("giveaway_id", giveaway.ID).Msg("giveaway ended with no participants")
		s.notifier.Announce(discord.Announcement{
			ChannelID:   giveaway.ChannelID,
			Title:       "Giveaway Ended",
			Description: "Nobody entered this time. No prize was sent.",
			Color:       discord.ColorWarning,
		})
		s.finalize(ctx, giveaway)
		return outcome, nil
	}

	outcome.WinnerUserID = winner.UserID
	outcome.WinnerWallet = winner.WalletAddress
	outcome.TicketCount = winner.TicketCount
	outcome.TotalTickets = totalTickets
	outcome.TotalEntrants = len(entries)

	result, err := s.gateway.TransferUniquePrize(ctx, hedera.PrizeTransfer{
		Destination: winner.WalletAddress,
	})
	if err != nil {
		// The draw stands even when the payout fails; the prize is sent
		// by hand afterwards.
		outcome.PayoutError = err.Error()
		s.logger.Error().
			Str("giveaway_id", giveaway.ID).
			Str("winner", winner.UserID).
			Err(err).
			Msg("prize payout failed, winner stands")
	} else {
		outcome.PayoutSucceeded = true
		outcome.TransactionID = result.TransactionID
		outcome.PrizeTokenID = result.TokenID
		outcome.PrizeSerial = result.SerialNumber
	}

	s.announceWinner(giveaway, outcome)
	s.finalize(ctx, giveaway)

	s.logger.Info().
		Str("giveaway_id", giveaway.ID).
		Str("winner", winner.UserID).
		Int64("tickets", winner.TicketCount).
		Int64("total_tickets", totalTickets).
		Bool("payout_succeeded", outcome.PayoutSucceeded).
		Msg("giveaway concluded")

	return outcome, nil
}

func (s *giveawayService) announceWinner(giveaway *models.Giveaway, outcome *models.Outcome) {
	fields := []discord.Field{
		{Name: "Winning odds", Value: fmt.Sprintf("%d / %d tickets", outcome.TicketCount, outcome.TotalTickets), Inline: true},
		{Name: "Entrants", Value: fmt.Sprintf("%d", outcome.TotalEntrants), Inline: true},
	}
	color := discord.ColorSuccess
	description := fmt.Sprintf("Congratulations <@%s>! Your prize is on its way to `%s`.", outcome.WinnerUserID, outcome.WinnerWallet)
	if !outcome.PayoutSucceeded {
		color = discord.ColorWarning
		description = fmt.Sprintf("Congratulations <@%s>! The automatic transfer failed, your prize will be sent manually.", outcome.WinnerUserID)
		fields = append(fields, discord.Field{Name: "Transfer error", Value: outcome.PayoutError})
	} else if outcome.PrizeTokenID != "" {
		fields = append(fields, discord.Field{
			Name:   "Prize",
			Value:  fmt.Sprintf("%s #%d", outcome.PrizeTokenID, outcome.PrizeSerial),
			Inline: true,
		})
	}

	s.notifier.Announce(discord.Announcement{
		ChannelID:   giveaway.ChannelID,
		Title:       "🏆 Giveaway Winner!",
		Description: description,
		Color:       color,
		Fields:      fields,
	})
}

// finalize persists the concluded state and drops the entry set. Failures
// here never undo the conclusion; they are logged and left for the sweep.
func (s *giveawayService) finalize(ctx context.Context, giveaway *models.Giveaway) {
	if err := s.giveaways.MarkConcluded(ctx, giveaway); err != nil {
		s.logger.Error().Str("giveaway_id", giveaway.ID).Err(err).Msg("failed to persist concluded state")
	}
	if err := s.entries.DeleteAll(ctx, giveaway.GuildID, giveaway.ID); err != nil {
		s.logger.Error().Str("giveaway_id", giveaway.ID).Err(err).Msg("failed to delete entries")
	}
}
