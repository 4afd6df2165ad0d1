package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/zuoanCo/visual-modal/internal/api"
	"github.com/zuoanCo/visual-modal/internal/auth"
	"github.com/zuoanCo/visual-modal/internal/boundary"
	"github.com/zuoanCo/visual-modal/internal/config"
	"github.com/zuoanCo/visual-modal/internal/observability"
	"github.com/zuoanCo/visual-modal/internal/publish"
	"github.com/zuoanCo/visual-modal/internal/scene"
	"github.com/zuoanCo/visual-modal/internal/simulate"
	"github.com/zuoanCo/visual-modal/internal/stream"
	"github.com/zuoanCo/visual-modal/web"
)

func main() {
	fs := config.Flags()
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Log, os.Stdout)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, logger)
	if err != nil {
		logger.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	// Boundary layers: restore from caches, then fetch in the background.
	store := boundary.NewStore(boundary.LayerWorld, boundary.LayerChina)
	caches := []boundary.Cache{boundary.NewDiskCache(cfg.Boundary.CacheDir, cfg.Boundary.MaxFiles)}
	if cfg.Valkey.Addr != "" {
		vc, err := boundary.NewValkeyCache(cfg.Valkey.Addr, cfg.Valkey.TTL)
		if err != nil {
			logger.Warn("valkey cache unavailable, continuing with disk cache only", "addr", cfg.Valkey.Addr, "error", err)
		} else {
			defer vc.Close()
			caches = append(caches, vc)
			logger.Info("valkey boundary cache enabled", "addr", cfg.Valkey.Addr, "ttl_seconds", cfg.Valkey.TTL.Seconds())
		}
	}
	loader := boundary.NewLoader(store, boundary.LoaderConfig{
		Sources:      cfg.Boundary.Sources(),
		FetchEnabled: cfg.Boundary.FetchEnabled,
	}, caches, logger)

	sceneCfg := cfg.Scene.Apply(scene.DefaultConfig())
	layerCache := scene.NewLayerCache(store, sceneCfg, logger)
	renderer := scene.NewRenderer(sceneCfg, layerCache, logger)

	dashboard := simulate.NewDashboard(simulate.Options{Seed: cfg.Simulate.Seed}, logger)

	if cfg.NATS.URL != "" {
		pub, err := publish.NewPublisher(publish.Config{
			URL:           cfg.NATS.URL,
			SubjectPrefix: cfg.NATS.SubjectPrefix,
		}, dashboard, logger)
		if err != nil {
			logger.Warn("nats publisher unavailable, widget publishing disabled", "url", cfg.NATS.URL, "error", err)
		} else {
			defer pub.Close()
			dashboard.OnTick(pub.OnTick)
		}
	}

	streamHandler := stream.NewHandler(dashboard, renderer, store, stream.Config{
		MaxConcurrentPerIP: cfg.Stream.MaxConcurrentPerIP,
		MaxTotal:           cfg.Stream.MaxTotal,
		BandwidthLimit:     cfg.Stream.BandwidthLimit,
		KeepaliveInterval:  cfg.Stream.KeepaliveInterval,
		TrustProxy:         cfg.HTTP.TrustProxy,
	}, logger)

	srv := api.NewServer(api.Config{
		Addr:       cfg.HTTP.Addr,
		TrustProxy: cfg.HTTP.TrustProxy,
		Auth:       auth.Config{Enabled: cfg.Auth.Enabled, Token: cfg.Auth.Token},
	}, api.Deps{
		Dashboard: dashboard,
		Scene:     renderer,
		Layers:    store,
		Stream:    streamHandler.HandleDashboard,
		Static:    web.Content,
	}, logger)

	go loader.Load(ctx)
	go dashboard.Start(ctx)
	go layerCache.Start(ctx, cfg.Scene.RebuildInterval)

	go func() {
		logger.Info("starting server",
			"addr", cfg.HTTP.Addr,
			"auth_enabled", cfg.Auth.Enabled,
			"boundary_fetch_enabled", cfg.Boundary.FetchEnabled,
			"nats_enabled", cfg.NATS.URL != "",
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return
	}

	logger.Info("server stopped")
}
