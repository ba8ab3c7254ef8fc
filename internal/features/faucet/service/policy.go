package service

import (
	"context"

	"faucet-tool-backend/internal/features/faucet/models"
)

// HoldingsClient resolves how many NFTs of a collection a wallet holds.
// Satisfied by the mirror node client.
type HoldingsClient interface {
	Holdings(ctx context.Context, accountID, tokenID string) (int, error)
}

type chainAccessPolicy struct {
	client HoldingsClient
}

// NewChainAccessPolicy gates claims on Discord role membership and on-chain
// collateral holdings.
func NewChainAccessPolicy(client HoldingsClient) AccessPolicy {
	return &chainAccessPolicy{client: client}
}

func (p *chainAccessPolicy) HasRole(member models.Member, roleID string) bool {
	for _, id := range member.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

func (p *chainAccessPolicy) Holdings(ctx context.Context, walletAddress, tokenID string) (*models.Holdings, error) {
	// An unset collateral collection means the gate is open.
	if tokenID == "" {
		return &models.Holdings{OwnsAny: true}, nil
	}

	quantity, err := p.client.Holdings(ctx, walletAddress, tokenID)
	if err != nil {
		return nil, err
	}
	return &models.Holdings{OwnsAny: quantity > 0, Quantity: quantity}, nil
}
