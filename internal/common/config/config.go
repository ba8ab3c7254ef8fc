package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Faucet struct {
		// Reference timezone for the daily claim window. Claims reset at
		// local midnight in this zone regardless of the caller's zone.
		Timezone string `env:"FAUCET_TIMEZONE" envDefault:"America/New_York"`

		// Ceiling for payout retry attempts inside the gateway decorator.
		PayoutMaxAttempts int `env:"FAUCET_PAYOUT_MAX_ATTEMPTS" envDefault:"5"`
	}

	Giveaway struct {
		// How often the expiration worker scans for ended giveaways.
		CheckIntervalSeconds int `env:"GIVEAWAY_CHECK_INTERVAL_SECONDS" envDefault:"1"`
	}

	Hedera struct {
		// Base URL of the signing executor service that submits transfers
		// on behalf of the faucet wallet.
		ExecutorURL string `env:"HEDERA_EXECUTOR_URL" envDefault:"http://localhost:8090"`

		// Public mirror node REST API, used for read-only holdings queries.
		MirrorNodeURL string `env:"HEDERA_MIRROR_NODE_URL" envDefault:"https://mainnet.mirrornode.hedera.com"`

		// Faucet wallet whose NFT inventory backs giveaway prizes.
		TreasuryAccountID string `env:"HEDERA_TREASURY_ACCOUNT_ID"`

		// NFT collection handed out as giveaway prizes.
		PrizeTokenID string `env:"HEDERA_PRIZE_TOKEN_ID"`
	}

	Discord struct {
		// Optional. When empty the notifier logs announcements instead of
		// posting them.
		BotToken string `env:"DISCORD_BOT_TOKEN" envDefault:""`
	}
}

func Load() *Config {
	// A missing .env file is fine; in production the variables are set
	// directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
