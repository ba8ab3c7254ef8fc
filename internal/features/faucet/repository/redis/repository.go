package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"faucet-tool-backend/internal/features/faucet/models"
	"faucet-tool-backend/internal/features/faucet/repository"
)

const (
	keyPrefixClaim  = "faucet:claim:"
	keyPrefixConfig = "faucet:config:"
	keyPrefixLock   = "lock:claim:"

	fieldWallet      = "wallet_address"
	fieldActive      = "is_faucet_active"
	fieldLastClaim   = "last_claim_timestamp"
	fieldTotalAmount = "total_claimed_amount"
)

type redisRepository struct {
	client *redis.Client
}

// NewClaimRepository returns the Redis-backed faucet ledger and config store.
func NewClaimRepository(client *redis.Client) interface {
	repository.ClaimRepository
	repository.ConfigRepository
} {
	return &redisRepository{client: client}
}

func makeClaimKey(guildID, userID string) string {
	return keyPrefixClaim + guildID + ":" + userID
}

func makeConfigKey(guildID string) string {
	return keyPrefixConfig + guildID
}

func makeLockKey(guildID, userID string) string {
	return keyPrefixLock + guildID + ":" + userID
}

func (r *redisRepository) GetOrCreate(ctx context.Context, userID, guildID, walletAddress string) (*models.ClaimRecord, error) {
	key := makeClaimKey(guildID, userID)

	// HSETNX makes creation idempotent under concurrent first requests: the
	// losing writer's fields are no-ops and both callers read one record.
	pipe := r.client.Pipeline()
	pipe.HSetNX(ctx, key, fieldWallet, walletAddress)
	pipe.HSetNX(ctx, key, fieldActive, "1")
	pipe.HSetNX(ctx, key, fieldLastClaim, "0")
	pipe.HSetNX(ctx, key, fieldTotalAmount, "0")
	fields := pipe.HGetAll(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get or create claim record: %w", err)
	}

	return parseClaimRecord(userID, guildID, fields.Val())
}

func (r *redisRepository) RecordClaim(ctx context.Context, userID, guildID string, amount int64, at time.Time) error {
	key := makeClaimKey(guildID, userID)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, fieldLastClaim, strconv.FormatInt(at.UnixMilli(), 10))
	pipe.HIncrBy(ctx, key, fieldTotalAmount, amount)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record claim: %w", err)
	}
	return nil
}

func (r *redisRepository) SetActive(ctx context.Context, userID, guildID string, active bool) error {
	value := "0"
	if active {
		value = "1"
	}
	return r.client.HSet(ctx, makeClaimKey(guildID, userID), fieldActive, value).Err()
}

func (r *redisRepository) AcquireClaimLock(ctx context.Context, userID, guildID string, ttl time.Duration) error {
	ok, err := r.client.SetNX(ctx, makeLockKey(guildID, userID), "locked", ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire claim lock: %w", err)
	}
	if !ok {
		return repository.ErrClaimLocked
	}
	return nil
}

func (r *redisRepository) ReleaseClaimLock(ctx context.Context, userID, guildID string) error {
	return r.client.Del(ctx, makeLockKey(guildID, userID)).Err()
}

func (r *redisRepository) GetConfig(ctx context.Context, guildID string) (*models.FaucetConfig, error) {
	data, err := r.client.Get(ctx, makeConfigKey(guildID)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrConfigNotFound
	}
	if err != nil {
		return nil, err
	}

	var cfg models.FaucetConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal faucet config: %w", err)
	}
	return &cfg, nil
}

func (r *redisRepository) SetConfig(ctx context.Context, cfg *models.FaucetConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal faucet config: %w", err)
	}
	return r.client.Set(ctx, makeConfigKey(cfg.GuildID), data, 0).Err()
}

func parseClaimRecord(userID, guildID string, fields map[string]string) (*models.ClaimRecord, error) {
	lastClaim, err := strconv.ParseInt(fields[fieldLastClaim], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt last claim timestamp: %w", err)
	}
	total, err := strconv.ParseInt(fields[fieldTotalAmount], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt claimed total: %w", err)
	}

	return &models.ClaimRecord{
		UserID:             userID,
		GuildID:            guildID,
		WalletAddress:      fields[fieldWallet],
		IsFaucetActive:     fields[fieldActive] == "1",
		LastClaimMillis:    lastClaim,
		TotalClaimedAmount: total,
	}, nil
}
