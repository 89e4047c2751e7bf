package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/fr0stylo/issuedash"
	"github.com/fr0stylo/issuedash/internal/app/services"
	"github.com/fr0stylo/issuedash/internal/broadcast"
	"github.com/fr0stylo/issuedash/internal/config"
	"github.com/fr0stylo/issuedash/internal/gitlabapi"
	"github.com/fr0stylo/issuedash/internal/observability"
	"github.com/fr0stylo/issuedash/internal/server"
	"github.com/fr0stylo/issuedash/internal/server/routes"
	gitlabwebhook "github.com/fr0stylo/issuedash/internal/webhooks/gitlab"
)

func Run() error {
	baseHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	log := slog.New(observability.WrapSlogHandler(baseHandler))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	shutdownTelemetry, err := observability.SetupOpenTelemetry(context.Background(), log, observability.OpenTelemetryConfig{
		Enabled:           cfg.Observability.Enabled,
		OTLPEndpoint:      cfg.Observability.OTLPEndpoint,
		OTLPTraceHeaders:  cfg.Observability.OTLPTraceHeaders,
		OTLPMetricHeaders: cfg.Observability.OTLPMetricHeaders,
		ServiceName:       cfg.Observability.ServiceName,
		ServiceVer:        cfg.Observability.ServiceVer,
		SamplingRatio:     cfg.Observability.SamplingRatio,
		MetricsConsole:    cfg.Observability.MetricsConsole,
		GitLabURL:         cfg.GitLab.BaseURL,
		ProjectID:         cfg.GitLab.ProjectID,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			slog.Error("Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	client, err := gitlabapi.New(gitlabapi.Config{
		BaseURL:    cfg.GitLab.BaseURL,
		ProjectID:  cfg.GitLab.ProjectID,
		Token:      cfg.GitLab.APIToken,
		HTTPClient: observability.NewHTTPClient(0),
	})
	if err != nil {
		return fmt.Errorf("failed to create GitLab client: %w", err)
	}

	if cfg.GitLab.LogTiming {
		go logUpstreamLatencyStats(log, client)
	}

	hub := broadcast.NewHub(log, cfg.Stream.BufferSize)
	issues := services.NewIssueService(client, log, services.NewDateFormatter(cfg.Display.TimeZone))
	relay := gitlabwebhook.NewRelay(client, hub, log)

	if !cfg.OAuthEnabled() {
		slog.Warn("GitLab OAuth credentials not set, sign-in is disabled")
	}
	routes.ConfigureAuth(routes.AuthConfig{
		SessionKey:        cfg.Auth.SessionSecret,
		GitLabBaseURL:     cfg.GitLab.BaseURL,
		OAuthClientID:     cfg.GitLab.OAuthClientID,
		OAuthClientSecret: cfg.GitLab.OAuthClientSecret,
		OAuthCallbackURL:  cfg.GitLab.OAuthCallbackURL,
		SecureCookies:     cfg.Auth.SecureCookie,
	})

	srv := server.New(log, issuedash.PublicFS)
	srv.RegisterRouter(routes.HealthRoutes{})
	srv.RegisterRouter(routes.NewAuthRoutes(log, cfg.OAuthEnabled()))
	srv.RegisterRouter(routes.NewIssueRoutes(issues))
	srv.RegisterRouter(routes.NewWebhookRoutes(gitlabwebhook.NewHandler(cfg.Webhook.Secret, relay, log)))
	srv.RegisterRouter(routes.NewStreamRoutes(hub, cfg.Stream.Heartbeat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("Starting server", "port", cfg.Server.Port, "gitlab", cfg.GitLab.BaseURL, "project", cfg.GitLab.ProjectID)
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server", "stream_clients", hub.Len())
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := Run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func logUpstreamLatencyStats(log *slog.Logger, client *gitlabapi.Client) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		stats := client.LatencyStats()
		limit := min(5, len(stats))
		for _, entry := range stats[:limit] {
			log.Info("gitlab_api_latency",
				"operation", entry.Operation,
				"count", entry.Count,
				"p50_ms", entry.P50.Milliseconds(),
				"p95_ms", entry.P95.Milliseconds(),
				"max_ms", entry.Max.Milliseconds(),
			)
		}
	}
}
