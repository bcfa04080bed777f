// integrity-worker periodically re-verifies the engine's core contract:
// no two Scheduled appointments sharing a provider or an operatory may
// overlap. The API can only violate it through out-of-band writes (manual
// SQL, external sync); this worker surfaces such damage early.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dentalops/frontdesk-scheduling/internal/api"
	"github.com/dentalops/frontdesk-scheduling/internal/appointment"
	"github.com/dentalops/frontdesk-scheduling/internal/config"
	"github.com/dentalops/frontdesk-scheduling/internal/db"
	"github.com/dentalops/frontdesk-scheduling/internal/wallclock"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger := zerolog.New(os.Stderr)
		logger.Fatal().Err(err).Msg("config load error")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "integrity-worker").Logger()
	if cfg.Env == "dev" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	logger.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.IntegrityInterval).
		Int("window_days", cfg.IntegrityWindowDays).
		Msg("integrity-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	repo := appointment.NewPgRepository(pgPool)
	svc := appointment.NewService(repo, nil, appointment.Defaults{}, logger)

	runOnce(rootCtx, svc, cfg.IntegrityWindowDays, logger)

	ticker := time.NewTicker(cfg.IntegrityInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping integrity worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.IntegrityWindowDays, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, windowDays int, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	today := wallclock.DateOf(time.Now())

	violations, err := svc.VerifyIntegrity(runCtx, today, today.AddDays(windowDays))
	if err != nil {
		logger.Error().Err(err).Msg("integrity run error")
		return
	}

	api.SetIntegrityViolations(len(violations))
	for _, v := range violations {
		logger.Warn().
			Int64("apt_num", v.With.AptNum).
			Str("detail", v.Message).
			Msg("double-booking detected")
	}
	logger.Info().
		Int("violations", len(violations)).
		Dur("elapsed", time.Since(start)).
		Msg("integrity run complete")
}
