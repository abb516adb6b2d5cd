package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"pong-auth/internal/config"
	"pong-auth/internal/db"
	"pong-auth/internal/email"
	apihttp "pong-auth/internal/http"
	"pong-auth/internal/oauth42"
	"pong-auth/internal/repository"
	"pong-auth/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := db.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	inviteRepo := repository.NewPgGameInviteRepository(pool)

	sender := email.NewDisabledSender(logger)
	if cfg.EmailVerificationEnabled {
		smtpSender, err := email.NewSMTPSender(logger, cfg.MailEmail, cfg.MailPassword, cfg.MailHost, cfg.MailPort, cfg.MailSecure)
		if err != nil {
			logger.Warn("smtp sender init failed, falling back to disabled sender", zap.Error(err))
		} else {
			sender = smtpSender
		}
	}

	var limiter service.SendLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			limiter = service.NewRedisSendLimiter(redisClient, 10*time.Minute, 3)
		}
		cancel()
	}

	tokenSvc := service.NewTokenService(
		cfg.ATSecret,
		cfg.RTSecret,
		time.Duration(cfg.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.RefreshTTLMinutes)*time.Minute,
	)
	authSvc := service.NewAuthService(logger, userRepo, tokenSvc, sender, limiter)

	var fortyTwo *oauth42.Client
	if cfg.FortyTwoClientID != "" {
		fortyTwo = oauth42.NewClient("", cfg.FortyTwoClientID, cfg.FortyTwoClientSecret, cfg.FortyTwoRedirectURI, logger)
	}

	authHandler := apihttp.NewAuthHandler(logger, authSvc, fortyTwo)
	userHandler := apihttp.NewUserHandler(logger, authSvc)
	inviteHandler := apihttp.NewInviteHandler(logger, inviteRepo)
	router := apihttp.NewRouter(logger, tokenSvc, authHandler, userHandler, inviteHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
