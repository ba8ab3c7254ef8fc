package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultDuration is used when a duration token is not recognized.
const DefaultDuration = time.Hour

// durations maps the tokens accepted by the start command. Unknown tokens
// fall back to DefaultDuration rather than failing the start.
var durations = map[string]time.Duration{
	"5min":  5 * time.Minute,
	"30min": 30 * time.Minute,
	"1hr":   time.Hour,
	"12hr":  12 * time.Hour,
	"24hr":  24 * time.Hour,
	"48hr":  48 * time.Hour,
}

// ParseDuration resolves a duration token. The second return reports whether
// the token was recognized; the first is always usable.
func ParseDuration(token string) (time.Duration, bool) {
	if d, ok := durations[token]; ok {
		return d, true
	}
	return DefaultDuration, false
}

// Giveaway is the persistent state of one drawing. At most one is active
// per guild at a time.
type Giveaway struct {
	ID            string    `json:"id"`
	GuildID       string    `json:"guild_id"`
	ChannelID     string    `json:"channel_id"`
	DurationToken string    `json:"duration_token"`
	StartedBy     string    `json:"started_by"`
	StartedAt     time.Time `json:"started_at"`
	EndsAt        time.Time `json:"ends_at"`
	IsActive      bool      `json:"is_active"`
}

// TimeRemaining returns the time until the scheduled end, floored at zero.
func (g *Giveaway) TimeRemaining(now time.Time) time.Duration {
	if remaining := g.EndsAt.Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}

// Entry is one participant in a giveaway. TicketCount is the weight used
// in the draw; re-entering replaces the count, it never accumulates.
type Entry struct {
	UserID        string    `json:"user_id"`
	WalletAddress string    `json:"wallet_address"`
	TicketCount   int64     `json:"ticket_count"`
	EnteredAt     time.Time `json:"entered_at"`
}

// StartResult carries the announcement payload back to the command layer.
type StartResult struct {
	Giveaway *Giveaway `json:"giveaway"`
	Message  string    `json:"message"`
}

// EnterResult reports an entry upsert.
type EnterResult struct {
	Entry    *Entry `json:"entry"`
	IsUpdate bool   `json:"is_update"`
	Message  string `json:"message"`
}

// Outcome describes how a giveaway concluded. Exactly one of the winner
// fields set means a draw happened; a conclusion with no participants has
// NoParticipants set and no winner.
type Outcome struct {
	GiveawayID     string `json:"giveaway_id"`
	GuildID        string `json:"guild_id"`
	ChannelID      string `json:"channel_id"`
	NoParticipants bool   `json:"no_participants"`

	WinnerUserID  string `json:"winner_user_id,omitempty"`
	WinnerWallet  string `json:"winner_wallet,omitempty"`
	TicketCount   int64  `json:"ticket_count,omitempty"`
	TotalTickets  int64  `json:"total_tickets,omitempty"`
	TotalEntrants int    `json:"total_entrants,omitempty"`

	// PayoutSucceeded and the related fields are only meaningful when a
	// winner was drawn. The winner announcement goes out either way.
	PayoutSucceeded bool   `json:"payout_succeeded,omitempty"`
	PayoutError     string `json:"payout_error,omitempty"`
	TransactionID   string `json:"transaction_id,omitempty"`
	PrizeTokenID    string `json:"prize_token_id,omitempty"`
	PrizeSerial     int64  `json:"prize_serial,omitempty"`
}

// NewGiveawayID returns a fresh giveaway identifier.
func NewGiveawayID() string {
	return uuid.New().String()
}
