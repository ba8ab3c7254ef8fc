package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"faucet-tool-backend/internal/features/giveaway/models"
	"faucet-tool-backend/internal/features/giveaway/repository"
	platformredis "faucet-tool-backend/internal/platform/redis"
)

const (
	keyPrefixGiveaway = "giveaway:"
	keyPrefixActive   = "giveaway:active:"
	keyPrefixEntries  = "giveaway:entries:"
	keyActiveSet      = "giveaways:active"
)

func makeGiveawayKey(id string) string {
	return keyPrefixGiveaway + id
}

func makeActiveKey(guildID string) string {
	return keyPrefixActive + guildID
}

func makeEntriesKey(guildID, giveawayID string) string {
	return keyPrefixEntries + guildID + ":" + giveawayID
}

type giveawayRepository struct {
	client *platformredis.Client
	logger zerolog.Logger
}

func NewGiveawayRepository(client *platformredis.Client, logger zerolog.Logger) repository.GiveawayRepository {
	return &giveawayRepository{client: client, logger: logger}
}

func (r *giveawayRepository) Create(ctx context.Context, giveaway *models.Giveaway) error {
	data, err := json.Marshal(giveaway)
	if err != nil {
		return fmt.Errorf("failed to marshal giveaway: %w", err)
	}

	// The active pointer is the single-active guard: whoever sets it owns
	// the slot until conclusion claims it back.
	ok, err := r.client.SetNX(ctx, makeActiveKey(giveaway.GuildID), giveaway.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to install active pointer: %w", err)
	}
	if !ok {
		return repository.ErrGiveawayActive
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, makeGiveawayKey(giveaway.ID), data, 0)
	pipe.SAdd(ctx, keyActiveSet, giveaway.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to persist giveaway: %w", err)
	}
	return nil
}

func (r *giveawayRepository) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	data, err := r.client.Get(ctx, makeGiveawayKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrGiveawayNotFound
	}
	if err != nil {
		return nil, err
	}

	var giveaway models.Giveaway
	if err := json.Unmarshal(data, &giveaway); err != nil {
		return nil, fmt.Errorf("failed to unmarshal giveaway %s: %w", id, err)
	}
	return &giveaway, nil
}

func (r *giveawayRepository) GetActive(ctx context.Context, guildID string) (*models.Giveaway, error) {
	id, err := r.client.Get(ctx, makeActiveKey(guildID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNoActiveGiveaway
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *giveawayRepository) ClaimActive(ctx context.Context, guildID string) (*models.Giveaway, error) {
	// GETDEL makes the claim single-shot: concurrent concluders race on
	// the pointer and exactly one sees it.
	id, err := r.client.GetDel(ctx, makeActiveKey(guildID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNoActiveGiveaway
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *giveawayRepository) MarkConcluded(ctx context.Context, giveaway *models.Giveaway) error {
	giveaway.IsActive = false
	data, err := json.Marshal(giveaway)
	if err != nil {
		return fmt.Errorf("failed to marshal giveaway: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, makeGiveawayKey(giveaway.ID), data, 0)
	pipe.SRem(ctx, keyActiveSet, giveaway.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to persist concluded giveaway: %w", err)
	}
	return nil
}

func (r *giveawayRepository) ListActive(ctx context.Context) ([]*models.Giveaway, error) {
	ids, err := r.client.SMembers(ctx, keyActiveSet).Result()
	if err != nil {
		return nil, err
	}

	giveaways := make([]*models.Giveaway, 0, len(ids))
	for _, id := range ids {
		giveaway, err := r.GetByID(ctx, id)
		if errors.Is(err, repository.ErrGiveawayNotFound) {
			// Stale set member; drop it and move on.
			if remErr := r.client.SRem(ctx, keyActiveSet, id).Err(); remErr != nil {
				r.logger.Warn().Str("giveaway_id", id).Err(remErr).Msg("failed to remove stale active set member")
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		giveaways = append(giveaways, giveaway)
	}
	return giveaways, nil
}

type entryRepository struct {
	client *platformredis.Client
}

func NewEntryRepository(client *platformredis.Client) repository.EntryRepository {
	return &entryRepository{client: client}
}

func (r *entryRepository) Upsert(ctx context.Context, guildID, giveawayID string, entry *models.Entry) (bool, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("failed to marshal entry: %w", err)
	}

	key := makeEntriesKey(guildID, giveawayID)
	existed, err := r.client.HExists(ctx, key, entry.UserID).Result()
	if err != nil {
		return false, err
	}
	if err := r.client.HSet(ctx, key, entry.UserID, data).Err(); err != nil {
		return false, err
	}
	return existed, nil
}

func (r *entryRepository) List(ctx context.Context, guildID, giveawayID string) ([]*models.Entry, error) {
	raw, err := r.client.HGetAll(ctx, makeEntriesKey(guildID, giveawayID)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*models.Entry, 0, len(raw))
	for userID, data := range raw {
		var entry models.Entry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry for user %s: %w", userID, err)
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

func (r *entryRepository) Count(ctx context.Context, guildID, giveawayID string) (int64, error) {
	return r.client.HLen(ctx, makeEntriesKey(guildID, giveawayID)).Result()
}

func (r *entryRepository) DeleteAll(ctx context.Context, guildID, giveawayID string) error {
	return r.client.Del(ctx, makeEntriesKey(guildID, giveawayID)).Err()
}
