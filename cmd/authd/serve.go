package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/kalado/authentication/internal/api"
	"github.com/kalado/authentication/internal/api/handler"
	"github.com/kalado/authentication/internal/core/service"
	"github.com/kalado/authentication/internal/infrastructure/config"
	"github.com/kalado/authentication/internal/infrastructure/db/mongo"
	"github.com/kalado/authentication/internal/infrastructure/db/redis"
	"github.com/kalado/authentication/internal/infrastructure/mail"
	"github.com/kalado/authentication/internal/infrastructure/userservice"
	"github.com/kalado/authentication/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.LoadFrom(ctx, envconfig.OsLookuper())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "authd",
	})

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "authd",
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.Redis.Timeout,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	identities := mongo.NewIdentityRepository(db)
	resets := mongo.NewResetTokenRepository(db)
	verifications := mongo.NewVerificationTokenRepository(db)
	if err := mongo.EnsureIndexes(ctx, identities, resets, verifications); err != nil {
		return err
	}
	sessions := redis.NewSessionStore(rdb, cfg.Redis.KeyPrefix, cfg.Redis.Timeout)

	sender, err := mail.NewSender(cfg.Mail, log)
	if err != nil {
		return err
	}
	dispatcher := mail.NewDispatcher(cfg.Mail.Workers, sender, mail.Links{
		ResetURL:  cfg.Mail.ResetURL,
		VerifyURL: cfg.Mail.VerifyURL,
	}, log)
	dispatcher.Start(ctx)

	profiles := userservice.NewClient(cfg.Users.BaseURL, cfg.Users.Timeout)
	allowlist := cfg.BuildAllowlist()
	hasher := service.NewBcryptHasher(cfg.Auth.BcryptCost)

	tokens := service.NewTokenService(sessions, identities, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)
	verification := service.NewVerificationService(identities, verifications, dispatcher, cfg.Auth.VerificationTokenTTL, log)
	roles := service.NewRoleService(identities, profiles, allowlist, log)

	e := api.NewRouter(api.Services{
		Auth:         service.NewAuthService(identities, hasher, tokens, verification, profiles, log),
		Registration: service.NewRegistrationService(identities, hasher, roles, profiles, verification, cfg.Auth.DefaultPhoneRegion, log),
		Roles:        roles,
		Passwords:    service.NewPasswordService(identities, resets, hasher, tokens, dispatcher, cfg.Auth.ResetTokenTTL, log),
		Verification: verification,
	}, log, handler.MongoCheck(db), handler.RedisCheck(rdb))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server starting")
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
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
