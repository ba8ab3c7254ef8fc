package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"faucet-tool-backend/internal/common/clock"
	"faucet-tool-backend/internal/common/config"
	"faucet-tool-backend/internal/common/logger"
	"faucet-tool-backend/internal/common/middleware"
	faucethttp "faucet-tool-backend/internal/features/faucet/delivery/http"
	faucetredis "faucet-tool-backend/internal/features/faucet/repository/redis"
	faucetservice "faucet-tool-backend/internal/features/faucet/service"
	giveawayhttp "faucet-tool-backend/internal/features/giveaway/delivery/http"
	giveawayredis "faucet-tool-backend/internal/features/giveaway/repository/redis"
	giveawayservice "faucet-tool-backend/internal/features/giveaway/service"
	"faucet-tool-backend/internal/platform/discord"
	"faucet-tool-backend/internal/platform/hedera"
	"faucet-tool-backend/internal/platform/redis"
)

func main() {
	cfg := config.Load()

	logger.Init("faucet-tool-backend", cfg.Debug)
	log := logger.With("app")

	log.Info().Bool("debug", cfg.Debug).Msg("starting faucet tool backend")

	appClock, err := clock.New(cfg.Faucet.Timezone)
	if err != nil {
		log.Fatal().Str("timezone", cfg.Faucet.Timezone).Err(err).Msg("invalid faucet timezone")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient, err := redis.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connection established")

	hederaClient := hedera.NewClient(hedera.ClientOptions{
		ExecutorURL:       cfg.Hedera.ExecutorURL,
		MirrorNodeURL:     cfg.Hedera.MirrorNodeURL,
		TreasuryAccountID: cfg.Hedera.TreasuryAccountID,
		PrizeTokenID:      cfg.Hedera.PrizeTokenID,
	}, logger.With("hedera"))
	gateway := hedera.NewRetryGateway(hederaClient, cfg.Faucet.PayoutMaxAttempts, logger.With("hedera.retry"))

	var notifier discord.Notifier
	if cfg.Discord.BotToken != "" {
		botNotifier, err := discord.NewBotNotifier(cfg.Discord.BotToken, logger.With("discord"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create discord notifier")
		}
		notifier = botNotifier
	} else {
		log.Warn().Msg("no discord bot token configured, announcements will be logged only")
		notifier = &discord.LogNotifier{Logger: logger.With("discord")}
	}

	faucetRepo := faucetredis.NewClaimRepository(redisClient.Client)
	giveawayRepo := giveawayredis.NewGiveawayRepository(redisClient, logger.With("giveaway.repository"))
	entryRepo := giveawayredis.NewEntryRepository(redisClient)

	accessPolicy := faucetservice.NewChainAccessPolicy(hederaClient)
	faucetSvc := faucetservice.NewFaucetService(
		faucetRepo, faucetRepo, accessPolicy, gateway, notifier, appClock, logger.With("faucet"),
	)
	giveawaySvc := giveawayservice.NewGiveawayService(
		giveawayRepo, entryRepo, gateway, notifier, appClock,
		rand.New(rand.NewSource(time.Now().UnixNano())), logger.With("giveaway"),
	)

	expiration := giveawayservice.NewExpirationService(
		giveawayRepo, giveawaySvc, appClock,
		time.Duration(cfg.Giveaway.CheckIntervalSeconds)*time.Second,
		logger.With("giveaway.expiration"),
	)
	expiration.Start(ctx)
	defer expiration.Stop()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler(logger.With("http")))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	faucethttp.NewFaucetHandler(faucetSvc).RegisterRoutes(v1)
	giveawayhttp.NewGiveawayHandler(giveawaySvc).RegisterRoutes(v1)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "faucet-tool-backend",
		})
	})
	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/ready", func(c *gin.Context) {
		probeCtx, probeCancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer probeCancel()

		if err := redisClient.Ping(probeCtx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
