// Copyright 2026 The Internalize Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/internalize/internalize/internal/account"
	"github.com/internalize/internalize/internal/archive"
	"github.com/internalize/internalize/internal/audit"
	"github.com/internalize/internalize/internal/config"
	"github.com/internalize/internalize/internal/events"
	"github.com/internalize/internalize/internal/inventory"
	"github.com/internalize/internalize/internal/loader"
	"github.com/internalize/internalize/internal/observability/logger"
	"github.com/internalize/internalize/internal/observability/metrics"
	"github.com/internalize/internalize/internal/observability/tracing"
	"github.com/internalize/internalize/internal/pack"
	"github.com/internalize/internalize/internal/store/postgres"
	transportHTTP "github.com/internalize/internalize/internal/transport/http"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrate bool) error {
	obs := cfg.Observability
	slog.InfoContext(ctx, "starting internalize", slog.String("version", obs.ServiceVersion))

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        obs.OTELEnabled,
		Endpoint:       obs.OTELEndpoint,
		Insecure:       true,
		ServiceName:    obs.ServiceName,
		ServiceVersion: obs.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		return err
	}
	defer tracer.Shutdown(context.WithoutCancel(ctx))

	// the global meter provider also carries the otelhttp server metrics
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled:        obs.OTELEnabled,
		Endpoint:       obs.OTELEndpoint,
		Insecure:       true,
		ServiceName:    obs.ServiceName,
		ServiceVersion: obs.ServiceVersion,
	})
	if err != nil {
		return err
	}
	defer meter.Shutdown(context.WithoutCancel(ctx))

	var recorder *metrics.Recorder
	if obs.MetricsEnabled {
		if recorder, err = metrics.NewRecorder(meter); err != nil {
			return err
		}
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if migrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.Events.NATSURL != "" {
		bus, err := events.Connect(cfg.Events.NATSURL, nats.Name(obs.ServiceName))
		if err != nil {
			return err
		}
		defer bus.Close()
		if err := bus.EnsureStream(ctx); err != nil {
			return err
		}
		publisher = bus
		slog.InfoContext(ctx, "publishing events", logger.Component("events"))
	}

	var archiver archive.Archiver
	if cfg.Archive.Enabled {
		if archiver, err = archive.NewS3(ctx, cfg.Archive.S3()); err != nil {
			return err
		}
	}

	auditLogger := audit.NewSlogLogger()
	repos := db.Repositories()
	sessions := account.NewSessionService(postgres.NewSessionRepository(db), cfg.Session.Lifetime, cfg.Session.IdleTimeout)

	handler := transportHTTP.NewHandler(transportHTTP.Services{
		Accounts:  newAccountService(cfg, db, auditLogger),
		Sessions:  sessions,
		Inventory: inventory.NewService(repos, auditLogger),
		Packs:     pack.NewService(postgres.NewPackRepository(db), repos.CIs, auditLogger, publisher),
		Loader:    loader.New(db, loader.WithTracer(tracer.Tracer("internalize/loader"))),
		Archiver:  archiver,
		Publisher: publisher,
		Metrics:   recorder,
		Audit:     auditLogger,
	}, transportHTTP.SessionConfig{
		CookieName:     cfg.Session.CookieName,
		CookieDomain:   cfg.Session.CookieDomain,
		CookiePath:     cfg.Session.CookiePath,
		CookieSecure:   cfg.Session.CookieSecure,
		CookieHTTPOnly: cfg.Session.CookieHTTPOnly,
		CookieSameSite: transportHTTP.ParseSameSite(cfg.Session.CookieSameSite),
	}, cfg.Upload.MaxBytes)

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	go rateLimiter.Run(ctx)
	go cleanupSessions(ctx, sessions, cfg.Session.CleanupInterval)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      transportHTTP.NewRouter(handler, rateLimiter, cfg.Server.RequestTimeout),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "listening", logger.Component("server"), slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

func cleanupSessions(ctx context.Context, sessions *account.SessionService, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.CleanupExpired(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "failed to cleanup expired sessions", logger.Error(err))
				continue
			}
			if n > 0 {
				slog.DebugContext(ctx, "expired sessions removed", slog.Int64("count", n))
			}
		}
	}
}
