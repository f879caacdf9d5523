package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/taskvault/taskvault/internal/api"
	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/config"
	"github.com/taskvault/taskvault/internal/events"
	"github.com/taskvault/taskvault/internal/gate"
	"github.com/taskvault/taskvault/internal/metrics"
	"github.com/taskvault/taskvault/internal/notify"
	"github.com/taskvault/taskvault/internal/probe"
	"github.com/taskvault/taskvault/internal/snapshot"
	"github.com/taskvault/taskvault/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// The default config file may be absent; an explicit -config must exist.
	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})

	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath, !explicit)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Log.SlogLevel())

	slog.Info("taskvault starting",
		"config", *configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"grpc_port", cfg.Server.GRPCPort,
		"snapshot", cfg.Snapshot.Path,
		"auth_mode", cfg.Server.Auth.Mode,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bus := events.NewBus()
	pr := probe.New()
	g := gate.Open(snapshot.NewFile(cfg.Snapshot.Path),
		gate.WithPublisher(bus),
		gate.WithSaveHook(pr.SnapshotSaved),
	)

	guard := auth.NewGuard(cfg.Server.Auth.Mode, cfg.Server.Auth.EffectiveHeader(), cfg.Server.Auth.Key())
	if cfg.Server.Auth.Mode == auth.ModeAPIKey && !guard.Enabled() {
		slog.Warn("auth mode is apikey but no key is set; ops endpoints are open",
			"key_env", cfg.Server.Auth.KeyEnv)
	}

	// Change feed: websocket clients and outbound webhooks.
	hub := ws.New(bus, api.CheckOrigin)
	go hub.Run(ctx)
	go notify.New(cfg.Events.Webhooks).Run(ctx, bus)

	// Reload the log level when the config file changes.
	if _, err := os.Stat(*configPath); err == nil {
		go func() {
			err := config.Watch(ctx, *configPath, func(updated *config.Config) {
				level.Set(updated.Log.SlogLevel())
				slog.Info("log level updated", "level", updated.Log.Level)
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	// gRPC health probe.
	var grpcSrv *grpc.Server
	if cfg.Server.GRPCPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			slog.Error("failed to listen on gRPC port", "port", cfg.Server.GRPCPort, "err", err)
			os.Exit(1)
		}
		grpcSrv = grpc.NewServer(grpc.UnaryInterceptor(guard.UnaryInterceptor()))
		pr.Register(grpcSrv)
		go func() {
			slog.Info("gRPC probe listening", "port", cfg.Server.GRPCPort)
			if err := grpcSrv.Serve(lis); err != nil {
				slog.Error("gRPC server stopped", "err", err)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/", api.New(g))
	mux.Handle("/metrics", guard.Middleware(metrics.New(g, hub.Count)))
	mux.Handle("/ws/events", hub)

	var handler http.Handler = mux
	if cfg.Server.CORS.Enabled {
		handler = api.CORS(mux)
	}

	lis, err := net.Listen("tcp", cfg.Server.HTTPAddr)
	if err != nil {
		slog.Error("failed to listen on HTTP address", "addr", cfg.Server.HTTPAddr, "err", err)
		os.Exit(1)
	}
	httpSrv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "addr", lis.Addr().String())
		if err := httpSrv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("taskvault shutting down")
	pr.Shutdown()

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown", "err", err)
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
}
