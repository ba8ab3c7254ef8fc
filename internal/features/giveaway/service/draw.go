package service

import (
	"math/rand"
	"sort"

	"faucet-tool-backend/internal/features/giveaway/models"
)

// drawWinner picks one entry with probability proportional to its ticket
// count. Entries are walked in a stable order (entry time, then user id) so
// the same seed always reproduces the same pick.
func drawWinner(entries []*models.Entry, rng *rand.Rand) (*models.Entry, int64) {
	if len(entries) == 0 {
		return nil, 0
	}

	sorted := make([]*models.Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].EnteredAt.Equal(sorted[j].EnteredAt) {
			return sorted[i].EnteredAt.Before(sorted[j].EnteredAt)
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	var totalTickets int64
	for _, entry := range sorted {
		if entry.TicketCount > 0 {
			totalTickets += entry.TicketCount
		}
	}
	if totalTickets == 0 {
		return nil, 0
	}

	winningTicket := rng.Int63n(totalTickets) + 1
	var currentWeight int64
	for _, entry := range sorted {
		if entry.TicketCount <= 0 {
			continue
		}
		currentWeight += entry.TicketCount
		if currentWeight >= winningTicket {
			return entry, totalTickets
		}
	}

	// Unreachable: the cumulative walk covers [1, totalTickets].
	return sorted[len(sorted)-1], totalTickets
}
