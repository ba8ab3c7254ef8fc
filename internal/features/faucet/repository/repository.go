package repository

import (
	"context"
	"errors"
	"time"

	"faucet-tool-backend/internal/features/faucet/models"
)

var (
	// ErrConfigNotFound means the guild has no faucet configuration; all
	// faucet operations fail closed until an admin sets one.
	ErrConfigNotFound = errors.New("faucet config not found")

	// ErrClaimLocked means another claim for the same (user, guild) is in
	// flight.
	ErrClaimLocked = errors.New("claim already in progress")
)

// ClaimRepository is the persistent faucet ledger. Creation is idempotent
// under concurrent calls for the same key, and the claimed-total increment
// is atomic.
type ClaimRepository interface {
	// GetOrCreate returns the existing record or creates one with the
	// faucet on, zero total and no last claim.
	GetOrCreate(ctx context.Context, userID, guildID, walletAddress string) (*models.ClaimRecord, error)

	// RecordClaim sets the last-claim instant and adds amount to the
	// running total. Only called after a confirmed payout.
	RecordClaim(ctx context.Context, userID, guildID string, amount int64, at time.Time) error

	// SetActive flips the user's faucet switch.
	SetActive(ctx context.Context, userID, guildID string, active bool) error

	// AcquireClaimLock serializes claim processing per (user, guild).
	// Returns ErrClaimLocked when another claim holds the key.
	AcquireClaimLock(ctx context.Context, userID, guildID string, ttl time.Duration) error
	ReleaseClaimLock(ctx context.Context, userID, guildID string) error
}

// ConfigRepository stores the per-guild faucet configuration.
type ConfigRepository interface {
	// GetConfig returns ErrConfigNotFound when the guild is unconfigured.
	GetConfig(ctx context.Context, guildID string) (*models.FaucetConfig, error)

	// SetConfig upserts the guild configuration.
	SetConfig(ctx context.Context, cfg *models.FaucetConfig) error
}
