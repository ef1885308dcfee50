package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	setupLogging()

	cfg, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := setupDatabase()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	pool, err := setupPgxPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pgx pool")
	}
	defer pool.Close()

	natsConn := connectNATS(cfg)
	if natsConn != nil {
		defer natsConn.Drain() //nolint:errcheck
	}

	services, err := setupServices(cfg, db, pool, natsConn, clockwork.NewRealClock())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire services")
	}

	if err := services.Scheduler.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	server := setupServer(services, cfg.Admin.Addr)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("admin server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("admin server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("admin server shutdown failed")
	}
	services.Scheduler.Stop()
}

func setupLogging() {
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if getEnv("LOG_PRETTY", "") != "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// connectNATS dials the broker when one is configured. The core stays up
// without it; notifications and alerts then only go to the log.
func connectNATS(cfg *Config) *nats.Conn {
	if cfg.NATS.URL == "" {
		log.Info().Msg("no NATS url configured, notifications will be log-only")
		return nil
	}
	conn, err := nats.Connect(cfg.NATS.URL,
		nats.Name("survivor-draft-core"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		log.Warn().Err(err).Str("url", cfg.NATS.URL).Msg("NATS unavailable, falling back to log-only notifications")
		return nil
	}
	log.Info().Str("url", cfg.NATS.URL).Msg("connected to NATS")
	return conn
}
