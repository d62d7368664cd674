package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hovorka-app/hovorka/pkg/completion"
	"github.com/hovorka-app/hovorka/pkg/gateway/config"
	gatewayserver "github.com/hovorka-app/hovorka/pkg/gateway/server"
	"github.com/hovorka-app/hovorka/pkg/gateway/upstream"
	"github.com/hovorka-app/hovorka/pkg/store"
	"github.com/hovorka-app/hovorka/pkg/store/directus"
	"github.com/hovorka-app/hovorka/pkg/store/postgres"
)

type serverDeps struct {
	loadConfig   func() (config.Config, error)
	buildStores  func(ctx context.Context, cfg config.Config) (store.Scenarios, store.Archive, func(), error)
	signalNotify func(chan<- os.Signal, ...os.Signal)
	signalStop   func(chan<- os.Signal)
}

func defaultServerDeps() serverDeps {
	return serverDeps{
		loadConfig:  config.LoadFromEnv,
		buildStores: buildStores,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
			signal.Notify(c, sig...)
		},
		signalStop: signal.Stop,
	}
}

func buildHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}
}

func buildUpstreamClient(cfg config.Config) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: cfg.UpstreamConnectTimeout,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ResponseHeaderTimeout: cfg.UpstreamResponseHeaderTimeout,
		},
	}
}

// buildStores wires the configured persistence backend. The returned cleanup
// closes whatever the backend opened.
func buildStores(ctx context.Context, cfg config.Config) (store.Scenarios, store.Archive, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreDirectus:
		client := &directus.Client{
			BaseURL:    cfg.DirectusURL,
			Token:      cfg.DirectusToken,
			HTTPClient: buildUpstreamClient(cfg),
		}
		return client, client, func() {}, nil

	case config.StorePostgres:
		if err := postgres.Migrate(ctx, cfg.PostgresDSN); err != nil {
			return nil, nil, nil, fmt.Errorf("migrate: %w", err)
		}
		st, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return st, st, st.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func run(ctx context.Context, logger *slog.Logger, deps serverDeps) error {
	if deps.loadConfig == nil || deps.buildStores == nil {
		return errors.New("missing dependency")
	}
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	scenarios, archive, closeStores, err := deps.buildStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build stores: %w", err)
	}
	defer closeStores()

	completions, err := completion.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build completion client: %w", err)
	}

	gw := gatewayserver.New(cfg, logger, gatewayserver.Deps{
		Scenarios:   scenarios,
		Archive:     archive,
		Completions: completions,
		Upstream: &upstream.Realtime{
			BaseURL:    cfg.OpenAIBaseURL,
			APIKey:     cfg.OpenAIAPIKey,
			HTTPClient: buildUpstreamClient(cfg),
		},
	})
	httpSrv := buildHTTPServer(cfg, gw.Handler())

	logger.Info("starting server",
		"addr", cfg.Addr,
		"store_backend", cfg.StoreBackend,
		"completion_provider", cfg.CompletionProvider,
	)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	// In-flight background transcript saves get the same grace period.
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer waitCancel()
	if !gw.WaitDetachedSaves(waitCtx) {
		logger.Warn("detached transcript saves did not drain before shutdown")
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer, deps serverDeps) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(stderr, nil))

	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	if err := run(ctx, logger, deps); err != nil {
		fmt.Fprintf(stderr, "hovorka-server: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr, defaultServerDeps()))
}
