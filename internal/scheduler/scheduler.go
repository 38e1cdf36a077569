// Package scheduler runs periodic backups: a ticker loop that creates a
// backup on each interval, prunes old ones past the retention limit, and
// exposes the metrics scrape endpoint.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	backupDomain "github.com/incomeclarity/vault/internal/backup/domain"
	backupUsecase "github.com/incomeclarity/vault/internal/backup/usecase"
)

// Config holds scheduler configuration.
type Config struct {
	// Interval is the time between scheduled backups.
	Interval time.Duration
	// Retention is how many backups to keep; older ones are pruned after
	// each run. Zero disables pruning.
	Retention int
	// Options are the pipeline options for scheduled runs.
	Options backupDomain.CreateOptions
	// MetricsAddr is the listen address of the /metrics endpoint; empty
	// disables the endpoint.
	MetricsAddr string
}

// Scheduler drives periodic backup creation. Runs are rate limited to one
// per interval even if the ticker and a manual trigger coincide.
type Scheduler struct {
	cfg     Config
	useCase backupUsecase.BackupUseCase
	handler http.Handler
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a scheduler. metricsHandler may be nil when the endpoint is
// disabled.
func New(cfg Config, useCase backupUsecase.BackupUseCase, metricsHandler http.Handler, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		useCase: useCase,
		handler: metricsHandler,
		limiter: rate.NewLimiter(rate.Every(cfg.Interval), 1),
		logger:  logger,
	}
}

// Start runs the scheduling loop until the context is canceled. Returns the
// context error on shutdown.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("starting backup scheduler",
		slog.Duration("interval", s.cfg.Interval),
		slog.Int("retention", s.cfg.Retention),
	)

	server := s.startMetricsServer()
	if server != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping backup scheduler")
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single scheduled backup plus retention pruning. Skipped
// when a run already happened within the current interval.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if !s.limiter.Allow() {
		s.logger.Warn("backup run skipped, rate limited")
		return
	}

	result := s.useCase.Create(ctx, s.cfg.Options)
	if !result.Success {
		s.logger.Error("scheduled backup failed", slog.String("error", result.Error))
		return
	}
	s.logger.Info("scheduled backup created",
		slog.String("path", result.Path),
		slog.Int("records", result.Metadata.RecordCount),
	)

	if s.cfg.Retention <= 0 {
		return
	}
	removed, err := s.useCase.Prune(ctx, s.cfg.Retention)
	if err != nil {
		s.logger.Error("backup pruning failed", slog.Any("error", err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("old backups pruned", slog.Int("removed", len(removed)))
	}
}

// startMetricsServer serves the metrics handler in the background. Returns
// nil when the endpoint is disabled.
func (s *Scheduler) startMetricsServer() *http.Server {
	if s.cfg.MetricsAddr == "" || s.handler == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", s.handler)

	server := &http.Server{
		Addr:              s.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.logger.Info("metrics endpoint listening", slog.String("addr", s.cfg.MetricsAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics endpoint failed", slog.Any("error", err))
		}
	}()
	return server
}
