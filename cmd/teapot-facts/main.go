// Command teapot-facts runs the fact-checking HTTP service: an
// OpenAI-compatible API over a hallucination-resistant question-answering
// pipeline backed by a configurable LLM provider.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ncls-p/teapot-facts/infrastructure/factcheck"
	"github.com/ncls-p/teapot-facts/infrastructure/llm"
	"github.com/ncls-p/teapot-facts/infrastructure/middleware"
	"github.com/ncls-p/teapot-facts/infrastructure/teapot"
	"github.com/ncls-p/teapot-facts/internal/application"
	"github.com/ncls-p/teapot-facts/internal/ports"
	"github.com/ncls-p/teapot-facts/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(context.Background(), *configPath, logger); err != nil {
		logger.Error("service exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, logger *slog.Logger) error {
	cfg, err := application.LoadConfig(configPath)
	if err != nil {
		return err
	}

	apiKey, err := cfg.APIKey()
	if err != nil {
		return err
	}

	var collector ports.MetricsCollector
	if cfg.Telemetry.MetricsEnabled {
		collector = middleware.NewPrometheusMetrics()
	}

	client, err := llm.NewClient(cfg.Provider.Type, llm.ClientConfig{
		APIKey:     apiKey,
		Model:      resolveModel(cfg.Provider),
		BaseURL:    cfg.Provider.BaseURL,
		Timeout:    cfg.ProviderTimeout(),
		Middleware: buildMiddleware(cfg, collector),
	})
	if err != nil {
		return fmt.Errorf("failed to build LLM client: %w", err)
	}

	model, err := teapot.NewModel(client, logger)
	if err != nil {
		return err
	}
	checker, err := factcheck.NewChecker(model, logger, collector)
	if err != nil {
		return err
	}
	extractor, err := factcheck.NewExtractor(model, logger, collector)
	if err != nil {
		return err
	}

	srv := server.NewServer(checker, extractor, model, logger, server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MetricsEnabled: cfg.Telemetry.MetricsEnabled,
	})

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening",
			"addr", httpServer.Addr,
			"provider", cfg.Provider.Type,
			"model", client.GetModel(),
		)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down",
			"grace_seconds", cfg.Server.ShutdownGraceSeconds,
		)
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.Server.ShutdownGraceSeconds)*time.Second,
		)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// resolveModel picks the provider's default model when the configuration
// does not name one.
func resolveModel(provider application.ProviderConfig) string {
	if provider.Model != "" {
		return provider.Model
	}
	switch provider.Type {
	case "anthropic":
		return llm.AnthropicDefaultModel
	case "google":
		return llm.GoogleDefaultModel
	default:
		return llm.OpenAIDefaultModel
	}
}

// buildMiddleware assembles the upstream middleware chain from the
// resilience configuration. Order matters: retry sits outermost so each
// attempt passes through the breaker, the limiter, and the timeout, while
// metrics and tracing observe individual attempts.
func buildMiddleware(cfg application.AppConfig, collector ports.MetricsCollector) []llm.Middleware {
	var chain []llm.Middleware

	r := cfg.Resilience
	if r.Retry.MaxAttempts > 1 {
		chain = append(chain, llm.RetryMiddleware(
			r.Retry.MaxAttempts-1,
			time.Duration(r.Retry.InitialWaitMS)*time.Millisecond,
			time.Duration(r.Retry.MaxWaitMS)*time.Millisecond,
		))
	}
	if r.CircuitBreaker.FailureThreshold > 0 {
		chain = append(chain, llm.CircuitBreakerMiddleware(
			r.CircuitBreaker.FailureThreshold,
			time.Duration(r.CircuitBreaker.CooldownSeconds)*time.Second,
		))
	}
	if r.RateLimit.RequestsPerSecond > 0 {
		burst := r.RateLimit.Burst
		if burst < 1 {
			burst = 1
		}
		chain = append(chain, llm.RateLimitMiddleware(
			rate.Limit(r.RateLimit.RequestsPerSecond), burst,
		))
	}
	if cfg.Provider.TimeoutSeconds > 0 {
		chain = append(chain, llm.TimeoutMiddleware(cfg.ProviderTimeout()))
	}
	if collector != nil {
		chain = append(chain, llm.MetricsMiddleware(collector))
	}
	chain = append(chain, llm.TracingMiddleware(cfg.Telemetry.ServiceName))

	return chain
}
