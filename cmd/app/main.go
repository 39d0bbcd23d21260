package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"ad-reward-backend/internal/common/config"
	"ad-reward-backend/internal/common/health"
	"ad-reward-backend/internal/common/logger"
	"ad-reward-backend/internal/common/middleware"
	"ad-reward-backend/internal/features/bot"
	rewardhttp "ad-reward-backend/internal/features/reward/delivery/http"
	rewardredis "ad-reward-backend/internal/features/reward/repository/redis"
	rewardservice "ad-reward-backend/internal/features/reward/service"
	userhttp "ad-reward-backend/internal/features/user/delivery/http"
	redisplatform "ad-reward-backend/internal/platform/redis"
)

func main() {
	cfg := config.MustLoad()

	logger.Init("ad-reward-backend", cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tgBot, err := bot.New(cfg.Telegram.BotToken, cfg.Telegram.MiniAppURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize bot")
	}

	// Opened last and closed explicitly below: logger.Fatal exits the
	// process, so deferred cleanup would never run on later boot failures.
	redisClient, err := redisplatform.Open(ctx, cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	logger.Info().Str("addr", cfg.RedisAddr()).Msg("Ledger store connection established")

	ledgerRepo := rewardredis.NewLedgerRepository(redisClient, cfg.Postback.Namespace)
	rewardSvc := rewardservice.NewRewardService(ledgerRepo)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept", "init_data"}
	router.Use(cors.New(corsConfig))

	setupRoutes(router, cfg, rewardSvc, redisClient)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server stopped")
			stop()
		}
	}()

	if err := tgBot.Start(); err != nil {
		_ = redisClient.Close()
		logger.Fatal().Err(err).Msg("Failed to start bot polling")
	}

	<-ctx.Done()
	logger.Info().Msg("Shutting down...")

	tgBot.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("Redis close failed")
	}

	logger.Info().Msg("Server exited")
}

func setupRoutes(router *gin.Engine, cfg *config.Config, rewardSvc rewardservice.RewardService, redisClient *redisplatform.Client) {
	// Trusted postback path, authenticated by shared secret only.
	rewardHandler := rewardhttp.NewRewardHandler(rewardSvc, cfg.Postback.Secret)
	rewardHandler.RegisterRoutes(router)

	// Mini-app API, authenticated by Telegram init data.
	v1 := router.Group("/api/v1")
	v1.Use(middleware.TelegramInitData(cfg.Telegram.BotToken))
	userHandler := userhttp.NewUserHandler(rewardSvc)
	userHandler.RegisterRoutes(v1)

	// Liveness, health and readiness.
	healthHandler := health.NewHandler("ad-reward-backend", redisClient)
	healthHandler.RegisterRoutes(router)
}
