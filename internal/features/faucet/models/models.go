package models

import "time"

// DefaultAmountPerClaim is the drip amount used when a guild config does not
// override it.
const DefaultAmountPerClaim = 1111

// DefaultTokenDecimals matches the faucet token's on-chain precision.
const DefaultTokenDecimals = 8

// ClaimRecord is the per-(user, guild) faucet ledger row. Created lazily on
// the first claim/status/toggle request and never deleted by this subsystem.
type ClaimRecord struct {
	UserID        string `json:"user_id"`
	GuildID       string `json:"guild_id"`
	WalletAddress string `json:"wallet_address"`

	// IsFaucetActive is the user-controlled on/off switch. Defaults true.
	IsFaucetActive bool `json:"is_faucet_active"`

	// LastClaimMillis is the epoch-millisecond instant of the most recent
	// successful claim. Zero means the user has never claimed.
	LastClaimMillis int64 `json:"last_claim_timestamp"`

	// TotalClaimedAmount only increases, and only after a confirmed payout.
	TotalClaimedAmount int64 `json:"total_claimed_amount"`
}

// LastClaimAt returns the last claim instant, or false if the user has never
// claimed.
func (r *ClaimRecord) LastClaimAt() (time.Time, bool) {
	if r.LastClaimMillis == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(r.LastClaimMillis), true
}

// FaucetConfig is the per-guild faucet configuration, written by admins and
// read-only to the engines.
type FaucetConfig struct {
	GuildID        string `json:"guild_id"`
	TokenID        string `json:"token_id"`
	AmountPerClaim int64  `json:"amount_per_claim"`
	TokenDecimals  int    `json:"token_decimals"`

	// ResetHour/ResetMinute are kept for config parity; the implemented
	// reset is always local midnight in the reference timezone.
	ResetHour   int `json:"reset_hour"`
	ResetMinute int `json:"reset_minute"`

	ChannelID  string `json:"channel_id"`
	RoleID     string `json:"role_id"`
	NFTTokenID string `json:"nft_token_id"`
}

// Member is the resolved guild member making a faucet request, with role
// membership already materialized by the command layer.
type Member struct {
	UserID  string
	RoleIDs []string
}

// Holdings is the claimant's balance of the configured collateral NFT/token.
type Holdings struct {
	OwnsAny  bool
	Quantity int
}

// EligibilityResult reports whether a claim is currently allowed.
type EligibilityResult struct {
	Eligible    bool       `json:"eligible"`
	Reason      string     `json:"reason,omitempty"`
	NextClaimAt *time.Time `json:"next_claim_at,omitempty"`
}

// AccessResult reports whether the claimant passes the role and holdings
// gates.
type AccessResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// ClaimResult is the terminal outcome of a claim attempt. Failures carry a
// human-readable message with the concrete remediation step; the ledger is
// untouched unless Success is true.
type ClaimResult struct {
	Success       bool   `json:"success"`
	Amount        int64  `json:"amount,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	Message       string `json:"message"`
}

// ToggleResult reports the switch position after a toggle operation.
type ToggleResult struct {
	IsFaucetActive bool   `json:"is_faucet_active"`
	Message        string `json:"message"`
}

// StatusSummary is the read-only projection of ClaimRecord + FaucetConfig
// shown to the user.
type StatusSummary struct {
	IsFaucetActive bool      `json:"is_faucet_active"`
	CanClaimToday  bool      `json:"can_claim_today"`
	TotalClaimed   int64     `json:"total_claimed"`
	AmountPerClaim int64     `json:"amount_per_claim"`
	NextResetIn    string    `json:"next_reset_in"`
	NextResetAt    time.Time `json:"next_reset_at"`
	ClaimStatus    string    `json:"claim_status"`
}
