package repository

import (
	"context"
	"errors"

	"faucet-tool-backend/internal/features/giveaway/models"
)

var (
	// ErrGiveawayNotFound means no giveaway exists under the requested id.
	ErrGiveawayNotFound = errors.New("giveaway not found")

	// ErrGiveawayActive means the guild already has an active giveaway.
	ErrGiveawayActive = errors.New("giveaway already active for guild")

	// ErrNoActiveGiveaway means the guild has no active giveaway pointer,
	// or another concluder already claimed it.
	ErrNoActiveGiveaway = errors.New("no active giveaway for guild")
)

// GiveawayRepository is the durable giveaway store. Activation is guarded
// so a guild never holds two active giveaways, and ClaimActive hands the
// active pointer to exactly one caller.
type GiveawayRepository interface {
	// Create persists the giveaway and installs it as the guild's active
	// one. Returns ErrGiveawayActive when the guild already has one.
	Create(ctx context.Context, giveaway *models.Giveaway) error

	// GetByID returns ErrGiveawayNotFound for unknown ids.
	GetByID(ctx context.Context, id string) (*models.Giveaway, error)

	// GetActive resolves the guild's active giveaway, or
	// ErrNoActiveGiveaway.
	GetActive(ctx context.Context, guildID string) (*models.Giveaway, error)

	// ClaimActive atomically removes the guild's active pointer and
	// returns the giveaway it referenced. At most one concurrent caller
	// wins; the rest get ErrNoActiveGiveaway.
	ClaimActive(ctx context.Context, guildID string) (*models.Giveaway, error)

	// MarkConcluded persists the final inactive state.
	MarkConcluded(ctx context.Context, giveaway *models.Giveaway) error

	// ListActive returns every giveaway currently scheduled, across all
	// guilds. Used by the expiration sweep.
	ListActive(ctx context.Context) ([]*models.Giveaway, error)
}

// EntryRepository stores the participants of a giveaway.
type EntryRepository interface {
	// Upsert inserts or replaces the user's entry. The returned flag
	// reports whether an entry already existed.
	Upsert(ctx context.Context, guildID, giveawayID string, entry *models.Entry) (bool, error)

	// List returns all entries for the giveaway, unordered.
	List(ctx context.Context, guildID, giveawayID string) ([]*models.Entry, error)

	// Count returns the number of distinct entrants.
	Count(ctx context.Context, guildID, giveawayID string) (int64, error)

	// DeleteAll removes the entry set after conclusion.
	DeleteAll(ctx context.Context, guildID, giveawayID string) error
}
