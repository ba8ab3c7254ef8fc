package hedera

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Client talks to the signing executor service, which holds the faucet
// wallet keys and submits transactions, and to the public mirror node for
// read-only inventory queries.
type Client struct {
	httpClient        *http.Client
	executorURL       string
	mirrorNodeURL     string
	treasuryAccountID string
	prizeTokenID      string
	logger            zerolog.Logger
}

type ClientOptions struct {
	ExecutorURL       string
	MirrorNodeURL     string
	TreasuryAccountID string
	PrizeTokenID      string
}

func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		executorURL:       opts.ExecutorURL,
		mirrorNodeURL:     opts.MirrorNodeURL,
		treasuryAccountID: opts.TreasuryAccountID,
		prizeTokenID:      opts.PrizeTokenID,
		logger:            logger,
	}
}

type transferRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	Destination    string `json:"destination"`
	TokenID        string `json:"token_id,omitempty"`
	Amount         int64  `json:"amount,omitempty"`
	Decimals       int    `json:"decimals,omitempty"`
}

type transferResponse struct {
	TransactionID string `json:"transaction_id"`
	TokenID       string `json:"token_id"`
	SerialNumber  int64  `json:"serial_number"`
	Status        string `json:"status"`
	Error         string `json:"error"`
}

func (c *Client) TransferFungible(ctx context.Context, req FungibleTransfer) (*TransferResult, error) {
	resp, err := c.postTransfer(ctx, "/v1/transfers/fungible", transferRequest{
		IdempotencyKey: req.IdempotencyKey,
		Destination:    req.Destination,
		TokenID:        req.TokenID,
		Amount:         req.Amount,
		Decimals:       req.Decimals,
	})
	if err != nil {
		return nil, err
	}
	return &TransferResult{
		TransactionID: resp.TransactionID,
		Amount:        req.Amount,
		TokenID:       req.TokenID,
	}, nil
}

func (c *Client) TransferUniquePrize(ctx context.Context, req PrizeTransfer) (*PrizeResult, error) {
	resp, err := c.postTransfer(ctx, "/v1/transfers/nft", transferRequest{
		IdempotencyKey: req.IdempotencyKey,
		Destination:    req.Destination,
		TokenID:        c.prizeTokenID,
	})
	if err != nil {
		return nil, err
	}
	return &PrizeResult{
		TransactionID: resp.TransactionID,
		TokenID:       resp.TokenID,
		SerialNumber:  resp.SerialNumber,
	}, nil
}

func (c *Client) postTransfer(ctx context.Context, path string, body transferRequest) (*transferResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transfer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.executorURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executor request failed: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read executor response: %w", err)
	}

	var resp transferResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode executor response (status %d): %w", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		// The executor reports the precheck/receipt status verbatim; the
		// text reaches the user, so it carries remediation hints like
		// TOKEN_NOT_ASSOCIATED_TO_ACCOUNT.
		if resp.Error != "" {
			return nil, fmt.Errorf("%s", resp.Error)
		}
		return nil, fmt.Errorf("executor returned status %d", httpResp.StatusCode)
	}

	return &resp, nil
}

// AvailablePrizes counts the prize NFTs the treasury wallet still holds.
func (c *Client) AvailablePrizes(ctx context.Context) (int, error) {
	nfts, err := c.accountNFTs(ctx, c.treasuryAccountID, c.prizeTokenID)
	if err != nil {
		return 0, err
	}
	return len(nfts), nil
}

// Holdings reports how many NFTs of the given collection a wallet holds.
// Used by the faucet's collateral gate.
func (c *Client) Holdings(ctx context.Context, accountID, tokenID string) (int, error) {
	nfts, err := c.accountNFTs(ctx, accountID, tokenID)
	if err != nil {
		return 0, err
	}
	return len(nfts), nil
}

type mirrorNFT struct {
	TokenID      string `json:"token_id"`
	SerialNumber int64  `json:"serial_number"`
}

type mirrorNFTsResponse struct {
	NFTs  []mirrorNFT `json:"nfts"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

func (c *Client) accountNFTs(ctx context.Context, accountID, tokenID string) ([]mirrorNFT, error) {
	if accountID == "" {
		return nil, fmt.Errorf("account id is not configured")
	}

	endpoint := fmt.Sprintf("%s/api/v1/accounts/%s/nfts?token.id=%s&limit=100",
		c.mirrorNodeURL, url.PathEscape(accountID), url.QueryEscape(tokenID))

	var all []mirrorNFT
	for endpoint != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("mirror node request failed: %w", err)
		}

		var page mirrorNFTsResponse
		err = json.NewDecoder(httpResp.Body).Decode(&page)
		httpResp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode mirror node response: %w", err)
		}
		if httpResp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("mirror node returned status %d", httpResp.StatusCode)
		}

		all = append(all, page.NFTs...)
		if page.Links.Next == "" {
			break
		}
		endpoint = c.mirrorNodeURL + page.Links.Next
	}

	return all, nil
}
