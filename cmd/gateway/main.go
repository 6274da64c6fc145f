package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/mtafreight/dispatch-gateway/api/routes"
	"github.com/mtafreight/dispatch-gateway/internal/backend"
	"github.com/mtafreight/dispatch-gateway/internal/cache"
	"github.com/mtafreight/dispatch-gateway/internal/credentials"
	"github.com/mtafreight/dispatch-gateway/internal/dispatch"
	"github.com/mtafreight/dispatch-gateway/internal/documents"
	"github.com/mtafreight/dispatch-gateway/internal/loader"
	"github.com/mtafreight/dispatch-gateway/internal/push"
	"github.com/mtafreight/dispatch-gateway/internal/stats"
	"github.com/mtafreight/dispatch-gateway/pkg/config"
	"github.com/mtafreight/dispatch-gateway/pkg/logger"
	"github.com/mtafreight/dispatch-gateway/pkg/metrics"
	"github.com/mtafreight/dispatch-gateway/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "gateway"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "gateway",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	gatewayMetrics := metrics.NewGatewayMetrics(registry)

	creds, err := credentials.NewRedisStore(redisClient, credentials.DefaultScope)
	if err != nil {
		logg.Error(context.Background(), "failed to create credential store", err)
		os.Exit(1)
	}

	backendClient, err := backend.NewClient(cfg.Backend, creds, logg, gatewayMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create backend client", err)
		os.Exit(1)
	}

	hub := push.NewHub(logg)
	orders := cache.NewOrderStore(gatewayMetrics)
	transporters := cache.NewTransporterStore(gatewayMetrics)
	users := cache.NewUserStore(gatewayMetrics)

	orderBinding := cache.BindOrders(hub, orders, logg, gatewayMetrics)
	transporterBinding := cache.BindTransporters(hub, transporters, logg, gatewayMetrics)
	userBinding := cache.BindUsers(hub, users, logg, gatewayMetrics)

	ld, err := loader.New(backendClient, orders, transporters, users, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create loader", err)
		os.Exit(1)
	}

	dispatchService, err := dispatch.NewService(backendClient, orders, transporters, hub, logg, gatewayMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch service", err)
		os.Exit(1)
	}

	statsService, err := stats.NewService(backendClient, hub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stats service", err)
		os.Exit(1)
	}

	documentsService, err := documents.NewService(backendClient, orders, transporters, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create documents service", err)
		os.Exit(1)
	}

	pushClient, err := push.NewClient(cfg.Push, hub, logg, gatewayMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create push client", err)
		os.Exit(1)
	}
	pushClient.OnReconnect(func(ctx context.Context) {
		if err := ld.LoadAll(ctx); err != nil {
			logg.Error(ctx, "resync after reconnect incomplete", err)
		}
		statsService.Invalidate()
	})

	runCtx, cancel := context.WithCancel(context.Background())
	go pushClient.Run(runCtx)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting dispatch gateway")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			Redis:        redisClient,
			Credentials:  creds,
			Backend:      backendClient,
			Hub:          hub,
			Orders:       orders,
			Transporters: transporters,
			Users:        users,
			Loader:       ld,
			Dispatch:     dispatchService,
			Stats:        statsService,
			Documents:    documentsService,
			Registry:     registry,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "gateway stopped unexpectedly", err)
			cancel()
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithFields(ctx, map[string]any{"signal": sig.String()}), "shutting down")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	orderBinding.Close()
	transporterBinding.Close()
	userBinding.Close()
	statsService.Close()
	closeErr = multierr.Append(closeErr, redisClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "shutdown complete")
}
