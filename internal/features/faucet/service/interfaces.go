package service

import (
	"context"

	"faucet-tool-backend/internal/features/faucet/models"
)

// FaucetService exposes the daily-drip operations consumed by the command
// handlers. Every request arrives already authenticated, with the wallet
// address resolved by the verification subsystem.
type FaucetService interface {
	// CheckEligibility reports whether a claim would currently be allowed.
	// No side effects beyond lazy ledger creation.
	CheckEligibility(ctx context.Context, userID, guildID, walletAddress string) (*models.EligibilityResult, error)

	// VerifyAccess checks the role and collateral-holdings gates.
	VerifyAccess(ctx context.Context, member models.Member, walletAddress string, cfg *models.FaucetConfig) (*models.AccessResult, error)

	// ProcessClaim runs the full claim: re-checked eligibility, access
	// gates, payout, and ledger update only on payout success.
	ProcessClaim(ctx context.Context, member models.Member, guildID, walletAddress string) (*models.ClaimResult, error)

	// GetStatus projects the ledger and config into user-facing fields.
	GetStatus(ctx context.Context, userID, guildID, walletAddress string) (*models.StatusSummary, error)

	// SetActive flips the user's faucet switch; effective immediately.
	SetActive(ctx context.Context, userID, guildID, walletAddress string, active bool) (*models.ToggleResult, error)

	// GetConfig and SetConfig are the admin configuration surface.
	GetConfig(ctx context.Context, guildID string) (*models.FaucetConfig, error)
	SetConfig(ctx context.Context, cfg *models.FaucetConfig) error
}

// AccessPolicy proves a claimant holds the required role and collateral
// before a claim is allowed. Role membership is resolved by the command
// layer; holdings come from the chain indexer. External collaborator.
type AccessPolicy interface {
	HasRole(member models.Member, roleID string) bool
	Holdings(ctx context.Context, walletAddress, tokenID string) (*models.Holdings, error)
}
