package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faucet-tool-backend/internal/common/clock"
	apperrors "faucet-tool-backend/internal/common/errors"
	"faucet-tool-backend/internal/features/giveaway/models"
	"faucet-tool-backend/internal/features/giveaway/repository"
	"faucet-tool-backend/internal/platform/discord"
	"faucet-tool-backend/internal/platform/hedera"
)

type memGiveawayRepo struct {
	giveaways map[string]*models.Giveaway
	active    map[string]string
}

func newMemGiveawayRepo() *memGiveawayRepo {
	return &memGiveawayRepo{
		giveaways: make(map[string]*models.Giveaway),
		active:    make(map[string]string),
	}
}

func (r *memGiveawayRepo) Create(_ context.Context, giveaway *models.Giveaway) error {
	if _, ok := r.active[giveaway.GuildID]; ok {
		return repository.ErrGiveawayActive
	}
	r.active[giveaway.GuildID] = giveaway.ID
	cp := *giveaway
	r.giveaways[giveaway.ID] = &cp
	return nil
}

func (r *memGiveawayRepo) GetByID(_ context.Context, id string) (*models.Giveaway, error) {
	g, ok := r.giveaways[id]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *memGiveawayRepo) GetActive(ctx context.Context, guildID string) (*models.Giveaway, error) {
	id, ok := r.active[guildID]
	if !ok {
		return nil, repository.ErrNoActiveGiveaway
	}
	return r.GetByID(ctx, id)
}

func (r *memGiveawayRepo) ClaimActive(ctx context.Context, guildID string) (*models.Giveaway, error) {
	id, ok := r.active[guildID]
	if !ok {
		return nil, repository.ErrNoActiveGiveaway
	}
	delete(r.active, guildID)
	return r.GetByID(ctx, id)
}

func (r *memGiveawayRepo) MarkConcluded(_ context.Context, giveaway *models.Giveaway) error {
	giveaway.IsActive = false
	cp := *giveaway
	r.giveaways[giveaway.ID] = &cp
	return nil
}

func (r *memGiveawayRepo) ListActive(ctx context.Context) ([]*models.Giveaway, error) {
	var out []*models.Giveaway
	for _, id := range r.active {
		g, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

type memEntryRepo struct {
	entries map[string]map[string]*models.Entry
}

func newMemEntryRepo() *memEntryRepo {
	return &memEntryRepo{entries: make(map[string]map[string]*models.Entry)}
}

func entriesKey(guildID, giveawayID string) string {
	return guildID + ":" + giveawayID
}

func (r *memEntryRepo) Upsert(_ context.Context, guildID, giveawayID string, entry *models.Entry) (bool, error) {
	key := entriesKey(guildID, giveawayID)
	if r.entries[key] == nil {
		r.entries[key] = make(map[string]*models.Entry)
	}
	_, existed := r.entries[key][entry.UserID]
	cp := *entry
	r.entries[key][entry.UserID] = &cp
	return existed, nil
}

func (r *memEntryRepo) List(_ context.Context, guildID, giveawayID string) ([]*models.Entry, error) {
	var out []*models.Entry
	for _, e := range r.entries[entriesKey(guildID, giveawayID)] {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memEntryRepo) Count(_ context.Context, guildID, giveawayID string) (int64, error) {
	return int64(len(r.entries[entriesKey(guildID, giveawayID)])), nil
}

func (r *memEntryRepo) DeleteAll(_ context.Context, guildID, giveawayID string) error {
	delete(r.entries, entriesKey(guildID, giveawayID))
	return nil
}

type prizeGateway struct {
	available  int
	failWith   error
	transfers  []hedera.PrizeTransfer
	nextSerial int64
}

func (g *prizeGateway) TransferFungible(_ context.Context, _ hedera.FungibleTransfer) (*hedera.TransferResult, error) {
	return nil, errors.New("not used")
}

func (g *prizeGateway) TransferUniquePrize(_ context.Context, req hedera.PrizeTransfer) (*hedera.PrizeResult, error) {
	if g.failWith != nil {
		return nil, g.failWith
	}
	g.transfers = append(g.transfers, req)
	g.nextSerial++
	return &hedera.PrizeResult{
		TransactionID: "0.0.888@1",
		TokenID:       "0.0.99999",
		SerialNumber:  g.nextSerial,
	}, nil
}

func (g *prizeGateway) AvailablePrizes(_ context.Context) (int, error) {
	return g.available, nil
}

type recordingNotifier struct {
	announcements []discord.Announcement
}

func (n *recordingNotifier) Announce(a discord.Announcement) {
	n.announcements = append(n.announcements, a)
}

type giveawayFixture struct {
	svc       GiveawayService
	giveaways *memGiveawayRepo
	entries   *memEntryRepo
	gateway   *prizeGateway
	notifier  *recordingNotifier
	clock     *clock.Fake
}

func newGiveawayFixture(t *testing.T) *giveawayFixture {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	f := &giveawayFixture{
		giveaways: newMemGiveawayRepo(),
		entries:   newMemEntryRepo(),
		gateway:   &prizeGateway{available: 5},
		notifier:  &recordingNotifier{},
		clock:     clock.NewFake(time.Date(2025, 3, 10, 12, 0, 0, 0, loc), loc),
	}
	f.svc = NewGiveawayService(
		f.giveaways, f.entries, f.gateway, f.notifier,
		f.clock, rand.New(rand.NewSource(42)), zerolog.Nop(),
	)
	return f
}

func codeOf(t *testing.T, err error) apperrors.ErrorCode {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Code
}

func TestStartRejectsSecondActiveGiveaway(t *testing.T) {
	f := newGiveawayFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "guild-1", "chan-1", "admin-1", "1hr")
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, "guild-1", "chan-1", "admin-1", "24hr")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeGiveawayActive, codeOf(t, err))

	// A different guild is unaffected.
	_, err = f.svc.Start(ctx, "guild-2", "chan-9", "admin-2", "1hr")
	assert.NoError(t, err)
}

func TestStartRejectsEmptyPrizeInventory(t *testing.T) {
	f := newGiveawayFixture(t)
	f.gateway.available = 0

	_, err := f.svc.Start(context.Background(), "guild-1", "chan-1", "admin-1", "1hr")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNoPrizeInventory, codeOf(t, err))
}

func TestStartUnknownDurationFallsBackToOneHour(t *testing.T) {
	f := newGiveawayFixture(t)

	res, err := f.svc.Start(context.Background(), "guild-1", "chan-1", "admin-1", "2weeks")
	require.NoError(t, err)
	assert.Equal(t, "1hr", res.Giveaway.DurationToken)
	assert.Equal(t, f.clock.Now().Add(time.Hour), res.Giveaway.EndsAt)
}

func TestEnterReplacesTicketCount(t *testing.T) {
	f := newGiveawayFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "guild-1", "chan-1", "admin-1", "1hr")
	require.NoError(t, err)

	first, err := f.svc.Enter(ctx, "guild-1", "alice", "0.0.100", 2)
	require.NoError(t, err)
	assert.False(t, first.IsUpdate)

	second, err := f.svc.Enter(ctx, "guild-1", "alice", "0.0.100", 5)
	require.NoError(t, err)
	assert.True(t, second.IsUpdate)

	// 5, not 2+5: re-entry replaces.
	giveaway, count, err := f.svc.GetActive(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	entries, err := f.entries.List(ctx, "guild-1", giveaway.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(5), entries[0].TicketCount)
}

func TestEnterWithoutActiveGiveaway(t *testing.T) {
	f := newGiveawayFixture(t)

	_, err := f.svc.Enter(context.Background(), "guild-1", "alice", "0.0.100", 2)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNoActiveGiveaway, codeOf(t, err))
}

func TestConcludeWithNoParticipants(t *testing.T) {
	f := newGiveawayFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "guild-1", "chan-1", "admin-1", "1hr")
	require.NoError(t, err)

	outcome, err := f.svc.Conclude(ctx, "guild-1")
	require.NoError(t, err)
	assert.True(t, outcome.NoParticipants)
	assert.Empty(t, outcome.WinnerUserID)
	assert.Empty(t, f.gateway.transfers)

	// The guild is free for a new giveaway immediately.
	_, err = f.svc.Start(ctx, "guild-1", "chan-1", "admin-1", "1hr")
	assert.NoError(t, err)
}

func TestConcludePaysWinnerAndClearsEntries(t *testing.T) {
	f := newGiveawayFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "guild-1", "chan-1", "admin-1", "1hr")
	require.NoError(t, err)
	_, err = f.svc.Enter(ctx, "guild-1", "alice", "0.0.100", 4)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	_, err = f.svc.Enter(ctx, "guild-1", "bob", "0.0.200", 6)
	require.NoError(t, err)

	outcome, err := f.svc.Conclude(ctx, "guild-1")
	require.NoError(t, err)
	assert.False(t, outcome.NoParticipants)
	assert.Contains(t, []string{"alice", "bob"}, outcome.WinnerUserID)
	assert.Equal(t, int64(10), outcome.TotalTickets)
	assert.Equal(t, 2, outcome.TotalEntrants)
	assert.True(t, outcome.PayoutSucceeded)
	assert.NotEmpty(t, outcome.TransactionID)

	require.Len(t, f.gateway.transfers, 1)
	assert.Equal(t, outcome.WinnerWallet, f.gateway.transfers[0].Destination)

	// Entries are gone and a second conclusion finds nothing to claim.
	count, err := f.entries.Count(ctx, "guild-1", outcome.GiveawayID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = f.svc.Conclude(ctx, "guild-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNoActiveGiveaway, codeOf(t, err))
}

func TestConcludeAnnouncesWinnerWhenPayoutFails(t *testing.T) {
	f := newGiveawayFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "guild-1", "chan-1", "admin-1", "1hr")
	require.NoError(t, err)
	_, err = f.svc.Enter(ctx, "guild-1", "alice", "0.0.100", 4)
	require.NoError(t, err)

	f.gateway.failWith = errors.New("INSUFFICIENT_TOKEN_BALANCE")

	outcome, err := f.svc.Conclude(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", outcome.WinnerUserID)
	assert.False(t, outcome.PayoutSucceeded)
	assert.Equal(t, "INSUFFICIENT_TOKEN_BALANCE", outcome.PayoutError)

	// The winner announcement still went out, flagged for manual send.
	var winnerAnnouncement *discord.Announcement
	for i := range f.notifier.announcements {
		if f.notifier.announcements[i].Title == "🏆 Giveaway Winner!" {
			winnerAnnouncement = &f.notifier.announcements[i]
		}
	}
	require.NotNil(t, winnerAnnouncement)
	assert.Contains(t, winnerAnnouncement.Description, "manually")
}

func TestExpirationSweepConcludesOnlyExpired(t *testing.T) {
	f := newGiveawayFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "guild-1", "chan-1", "admin-1", "5min")
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, "guild-2", "chan-2", "admin-2", "24hr")
	require.NoError(t, err)
	_, err = f.svc.Enter(ctx, "guild-1", "alice", "0.0.100", 1)
	require.NoError(t, err)

	exp := NewExpirationService(f.giveaways, f.svc, f.clock, time.Second, zerolog.Nop())

	f.clock.Advance(10 * time.Minute)
	exp.sweep(ctx)

	// guild-1 expired and concluded; guild-2 is still running.
	_, _, err = f.svc.GetActive(ctx, "guild-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNoActiveGiveaway, codeOf(t, err))

	_, _, err = f.svc.GetActive(ctx, "guild-2")
	assert.NoError(t, err)
	require.Len(t, f.gateway.transfers, 1)
}
