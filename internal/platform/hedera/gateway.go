// Package hedera defines the outbound payout capability the engines invoke.
// The on-chain transfer execution itself lives outside this codebase; this
// package carries the contract plus the retry/idempotency decorator applied
// uniformly to all outbound chain calls.
package hedera

import "context"

// FungibleTransfer describes a token payout to a verified wallet.
type FungibleTransfer struct {
	// IdempotencyKey deduplicates retries of the same logical payout. The
	// retry decorator fills it when empty and reuses it across attempts.
	IdempotencyKey string
	Destination    string
	TokenID        string
	Amount         int64
	Decimals       int
}

// PrizeTransfer describes a unique-prize payout. The gateway picks the
// concrete prize from the faucet wallet's inventory.
type PrizeTransfer struct {
	IdempotencyKey string
	Destination    string
}

// TransferResult reports a confirmed fungible transfer.
type TransferResult struct {
	TransactionID string
	Amount        int64
	TokenID       string
}

// PrizeResult reports a confirmed unique-prize transfer.
type PrizeResult struct {
	TransactionID string
	TokenID       string
	SerialNumber  int64
}

// PayoutGateway executes on-chain transfers and reports terminal
// success/failure. A returned error is final for the attempt: the caller
// must not mutate ledgers, and the error text is surfaced verbatim to the
// user (it carries remediation such as token association instructions).
type PayoutGateway interface {
	TransferFungible(ctx context.Context, req FungibleTransfer) (*TransferResult, error)
	TransferUniquePrize(ctx context.Context, req PrizeTransfer) (*PrizeResult, error)

	// AvailablePrizes returns how many unique prizes the faucet wallet holds.
	AvailablePrizes(ctx context.Context) (int, error)
}
