package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/cinemabook/authgate/internal/api"
	"github.com/cinemabook/authgate/internal/api/handler"
	"github.com/cinemabook/authgate/internal/api/middleware"
	"github.com/cinemabook/authgate/internal/core/policy"
	"github.com/cinemabook/authgate/internal/core/ports"
	"github.com/cinemabook/authgate/internal/core/service"
	"github.com/cinemabook/authgate/internal/core/token"
	"github.com/cinemabook/authgate/internal/infrastructure/config"
	"github.com/cinemabook/authgate/internal/infrastructure/db/memory"
	"github.com/cinemabook/authgate/internal/infrastructure/db/mongo"
	"github.com/cinemabook/authgate/internal/infrastructure/db/postgres"
	"github.com/cinemabook/authgate/internal/infrastructure/db/redis"
	"github.com/cinemabook/authgate/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.New(logger.Options{Service: "authgate"})
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Pretty(),
		Service: "authgate",
	})

	key, err := token.NewKey([]byte(cfg.Auth.SigningKey))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid signing key")
	}
	issuer, err := token.NewIssuer(key, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build token issuer")
	}
	validator, err := token.NewValidator(key)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build token validator")
	}

	table, err := policy.Load(cfg.PolicyFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.PolicyFile).Msg("failed to load policy")
	}
	log.Info().Int("rules", len(table.Rules())).Msg("policy loaded")

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open credential store")
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer closeCancel()
		if err := closeStore(closeCtx); err != nil {
			log.Error().Err(err).Msg("failed to close credential store")
		}
	}()

	credentials, err := service.NewCredentialService(store, cfg.Auth.BcryptCost, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build credential service")
	}
	if cfg.Admin.Email != "" {
		created, err := credentials.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Name, cfg.Admin.Password)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to bootstrap admin")
		}
		log.Info().Bool("created", created).Str("email", cfg.Admin.Email).Msg("admin identity ensured")
	}

	authService := service.NewAuthService(credentials, issuer, log)
	authorizer := middleware.NewAuthorizer(validator, table, log)

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		Authorizer:  authorizer,
		Readiness:   map[string]handler.Pinger{"store": store},
		Log:         log,
		Registerer:  prometheus.DefaultRegisterer,
		Gatherer:    prometheus.DefaultGatherer,
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("store", cfg.Store.Driver).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	waitForShutdown(log)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.CredentialStore, func(context.Context) error, error) {
	switch cfg.Store.Driver {
	case "mongo":
		return mongo.Open(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database}, log)
	case "postgres":
		return postgres.Open(ctx, postgres.Config{DSN: cfg.Postgres.DSN, MaxOpenConns: cfg.Postgres.MaxOpenConns}, log)
	case "redis":
		return redis.Open(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, log)
	default:
		log.Warn().Msg("using in-memory credential store; identities are lost on restart")
		return memory.NewCredentialStore(), func(context.Context) error { return nil }, nil
	}
}

func waitForShutdown(log zerolog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("shutting down")
}
