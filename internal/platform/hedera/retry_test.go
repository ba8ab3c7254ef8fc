package hedera

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedGateway struct {
	failures int
	calls    int
	keys     []string
}

func (g *scriptedGateway) TransferFungible(_ context.Context, req FungibleTransfer) (*TransferResult, error) {
	g.calls++
	g.keys = append(g.keys, req.IdempotencyKey)
	if g.calls <= g.failures {
		return nil, errors.New("BUSY")
	}
	return &TransferResult{TransactionID: "0.0.777@1", Amount: req.Amount, TokenID: req.TokenID}, nil
}

func (g *scriptedGateway) TransferUniquePrize(_ context.Context, req PrizeTransfer) (*PrizeResult, error) {
	g.calls++
	g.keys = append(g.keys, req.IdempotencyKey)
	if g.calls <= g.failures {
		return nil, errors.New("BUSY")
	}
	return &PrizeResult{TransactionID: "0.0.777@2", TokenID: "0.0.99999", SerialNumber: 1}, nil
}

func (g *scriptedGateway) AvailablePrizes(_ context.Context) (int, error) {
	g.calls++
	if g.calls <= g.failures {
		return 0, errors.New("BUSY")
	}
	return 7, nil
}

func newTestRetryGateway(inner PayoutGateway, maxAttempts int) (*RetryGateway, *[]time.Duration) {
	g := NewRetryGateway(inner, maxAttempts, zerolog.Nop())
	waits := &[]time.Duration{}
	g.sleep = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return g, waits
}

func TestRetryGatewaySucceedsAfterTransientFailures(t *testing.T) {
	inner := &scriptedGateway{failures: 2}
	g, waits := newTestRetryGateway(inner, 5)

	result, err := g.TransferFungible(context.Background(), FungibleTransfer{
		Destination: "0.0.555",
		TokenID:     "0.0.12345",
		Amount:      1111,
	})
	require.NoError(t, err)
	assert.Equal(t, "0.0.777@1", result.TransactionID)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
}

func TestRetryGatewayReusesIdempotencyKey(t *testing.T) {
	inner := &scriptedGateway{failures: 3}
	g, _ := newTestRetryGateway(inner, 5)

	_, err := g.TransferFungible(context.Background(), FungibleTransfer{Destination: "0.0.555"})
	require.NoError(t, err)

	require.Len(t, inner.keys, 4)
	first := inner.keys[0]
	assert.NotEmpty(t, first)
	for _, key := range inner.keys {
		assert.Equal(t, first, key)
	}
}

func TestRetryGatewayStopsAtMaxAttempts(t *testing.T) {
	inner := &scriptedGateway{failures: 100}
	g, waits := newTestRetryGateway(inner, 5)

	_, err := g.TransferUniquePrize(context.Background(), PrizeTransfer{Destination: "0.0.555"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max attempts (5)")
	assert.Contains(t, err.Error(), "BUSY")
	assert.Equal(t, 5, inner.calls)
	// Backoff doubles between attempts; no wait after the final one.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, *waits)
}

func TestRetryGatewayStopsOnCanceledContext(t *testing.T) {
	inner := &scriptedGateway{failures: 100}
	g := NewRetryGateway(inner, 5, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.TransferFungible(ctx, FungibleTransfer{Destination: "0.0.555"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryGatewayAvailablePrizes(t *testing.T) {
	inner := &scriptedGateway{failures: 1}
	g, _ := newTestRetryGateway(inner, 5)

	count, err := g.AvailablePrizes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}
