package service

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faucet-tool-backend/internal/features/giveaway/models"
)

func entryAt(userID string, tickets int64, at time.Time) *models.Entry {
	return &models.Entry{
		UserID:        userID,
		WalletAddress: "0.0." + userID,
		TicketCount:   tickets,
		EnteredAt:     at,
	}
}

func TestDrawWinnerEmptyEntries(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	winner, total := drawWinner(nil, rng)
	assert.Nil(t, winner)
	assert.Zero(t, total)
}

func TestDrawWinnerSingleEntry(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	base := time.Now()

	winner, total := drawWinner([]*models.Entry{entryAt("alice", 5, base)}, rng)
	require.NotNil(t, winner)
	assert.Equal(t, "alice", winner.UserID)
	assert.Equal(t, int64(5), total)
}

func TestDrawWinnerIgnoresZeroTicketEntries(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	base := time.Now()

	entries := []*models.Entry{
		entryAt("alice", 0, base),
		entryAt("bob", 3, base.Add(time.Second)),
	}
	for i := 0; i < 50; i++ {
		winner, total := drawWinner(entries, rng)
		require.NotNil(t, winner)
		assert.Equal(t, "bob", winner.UserID)
		assert.Equal(t, int64(3), total)
	}
}

func TestDrawWinnerDeterministicForSeed(t *testing.T) {
	base := time.Now()
	entries := []*models.Entry{
		entryAt("alice", 1, base),
		entryAt("bob", 3, base.Add(time.Second)),
		entryAt("carol", 6, base.Add(2*time.Second)),
	}

	first, _ := drawWinner(entries, rand.New(rand.NewSource(42)))
	second, _ := drawWinner(entries, rand.New(rand.NewSource(42)))
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.UserID, second.UserID)

	// Shuffled input must not change the pick: the walk order is stable.
	shuffled := []*models.Entry{entries[2], entries[0], entries[1]}
	third, _ := drawWinner(shuffled, rand.New(rand.NewSource(42)))
	require.NotNil(t, third)
	assert.Equal(t, first.UserID, third.UserID)
}

func TestDrawWinnerProportionalToTickets(t *testing.T) {
	base := time.Now()
	entries := []*models.Entry{
		entryAt("alice", 1, base),
		entryAt("bob", 3, base.Add(time.Second)),
		entryAt("carol", 6, base.Add(2*time.Second)),
	}

	rng := rand.New(rand.NewSource(7))
	const trials = 100000
	wins := make(map[string]int)
	for i := 0; i < trials; i++ {
		winner, total := drawWinner(entries, rng)
		require.NotNil(t, winner)
		require.Equal(t, int64(10), total)
		wins[winner.UserID]++
	}

	// Expected shares 10% / 30% / 60%, with a generous tolerance.
	assert.InDelta(t, 0.10, float64(wins["alice"])/trials, 0.01)
	assert.InDelta(t, 0.30, float64(wins["bob"])/trials, 0.01)
	assert.InDelta(t, 0.60, float64(wins["carol"])/trials, 0.01)
}

func TestParseDurationTokens(t *testing.T) {
	cases := map[string]time.Duration{
		"5min":  5 * time.Minute,
		"30min": 30 * time.Minute,
		"1hr":   time.Hour,
		"12hr":  12 * time.Hour,
		"24hr":  24 * time.Hour,
		"48hr":  48 * time.Hour,
	}
	for token, want := range cases {
		got, ok := models.ParseDuration(token)
		assert.True(t, ok, token)
		assert.Equal(t, want, got, token)
	}

	got, ok := models.ParseDuration("2weeks")
	assert.False(t, ok)
	assert.Equal(t, time.Hour, got)
}
