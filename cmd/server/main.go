// Command server runs the edge backend HTTP API.
//
//	@title						Edge Backend API
//	@version					1.0
//	@description				Authentication and feedback service.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aistone/edge-backend/internal/api"
	"github.com/aistone/edge-backend/internal/api/handler"
	"github.com/aistone/edge-backend/internal/core/oauthconfig"
	"github.com/aistone/edge-backend/internal/core/ports"
	"github.com/aistone/edge-backend/internal/core/service"
	mongostore "github.com/aistone/edge-backend/internal/infrastructure/db/mongo"
	redisstore "github.com/aistone/edge-backend/internal/infrastructure/db/redis"
	"github.com/aistone/edge-backend/internal/infrastructure/google"
	"github.com/aistone/edge-backend/internal/pkg/config"
	"github.com/aistone/edge-backend/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongo, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  logger.DefaultService,
	})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongo.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()
	if err := mongo.EnsureIndexes(ctx); err != nil {
		return err
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	var users ports.UserStore = mongostore.NewUserRepository(mongo.DB)
	if cfg.UserStore == config.UserStoreRedis {
		users = redisstore.NewUserStore(rdb)
	}
	log.Info().Str("user_store", cfg.UserStore).Msg("storage connected")

	// --- Services ---
	authService := service.NewAuthService(service.AuthDeps{
		Users:    users,
		Resets:   redisstore.NewResetStore(rdb),
		IDTokens: google.NewIDTokenVerifier(),
		OAuth:    google.NewCodeExchanger(),
	}, service.AuthConfig{
		TokenSecret:       cfg.Auth.JWTSecret,
		TokenTTL:          cfg.Auth.TokenTTL,
		AllowLegacyTokens: cfg.Auth.AllowLegacyToken,
		PBKDF2Iterations:  cfg.Auth.PBKDF2Iterations,
		PBKDF2KeyLength:   cfg.Auth.PBKDF2KeyLength,
		PBKDF2Digest:      cfg.Auth.PBKDF2Digest,
		Google: oauthconfig.Env{
			ClientID:        cfg.Google.ClientID,
			ClientSecret:    cfg.Google.ClientSecret,
			ClientSecretNew: cfg.Google.ClientSecretNew,
			RedirectURI:     cfg.Google.RedirectURI,
			FrontendURL:     cfg.Google.FrontendURL,
		},
		FrontendURL:   cfg.Google.FrontendURL,
		ResetTokenTTL: cfg.Auth.ResetTokenTTL,
	}, log.With().Str("component", "auth").Logger())

	feedbackService := service.NewFeedbackService(
		mongostore.NewFeedbackRepository(mongo.DB),
		redisstore.NewRateLimiter(rdb),
		log.With().Str("component", "feedback").Logger(),
	)

	if cfg.Auth.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set; token issuance will fail")
	}
	if cfg.AdminKey == "" {
		log.Warn().Msg("ADMIN_KEY is not set; admin routes are disabled")
	}

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Auth:     authService,
		Feedback: feedbackService,
		Readiness: map[string]handler.PingFunc{
			"mongo": mongo.Ping,
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Log:            log,
		ExposeResetURL: !cfg.IsProduction(),
		AdminKey:       cfg.AdminKey,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
