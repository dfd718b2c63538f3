package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"aikasir/backend/internal/config"
	"aikasir/backend/internal/httpapi"
	"aikasir/backend/internal/onboarding"
	"aikasir/backend/internal/service"
	"aikasir/backend/internal/store"
	"aikasir/backend/internal/store/memory"
	pgstore "aikasir/backend/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := newLogger(cfg)
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid security configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback")
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Info().Msg("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		log.Info().Msg("repository: in-memory")
	}

	sessions := onboarding.SessionStore(onboarding.NewMemorySessionStore())
	if cfg.RedisAddr != "" {
		redisSessions := onboarding.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisSessions.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, keeping onboarding sessions in memory")
		} else {
			sessions = redisSessions
			closers = append(closers, redisSessions.Close)
			log.Info().Msg("onboarding sessions: redis")
		}
	} else {
		log.Info().Msg("onboarding sessions: in-memory")
	}

	var assistant *onboarding.Assistant
	if cfg.OpenAIAPIKey != "" {
		chat := onboarding.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		sessionTTL := time.Duration(cfg.OnboardSessionTTLMinutes) * time.Minute
		assistant = onboarding.NewAssistant(sessions, chat, sessionTTL, log)
		log.Info().Str("model", cfg.OpenAIModel).Msg("onboarding assistant enabled")
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, onboarding endpoint disabled")
	}

	svc := service.New(repo, log)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	api := httpapi.New(svc, assistant, auth, cfg.CORSOrigins, log)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Address()).Msg("AIKasir backend listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Warn().Err(err).Msg("close error")
		}
	}

	log.Info().Msg("server stopped")
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out = os.Stdout
	logger := zerolog.New(out)
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"})
	}
	return logger.With().Timestamp().Str("service", "aikasir-backend").Logger().Level(level)
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
