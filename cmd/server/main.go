package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rpggio/crowdfund/internal/backend"
	"github.com/rpggio/crowdfund/internal/config"
	"github.com/rpggio/crowdfund/internal/contract"
	"github.com/rpggio/crowdfund/internal/logging"
	"github.com/rpggio/crowdfund/internal/mcp"
	"github.com/rpggio/crowdfund/internal/sqlite"
	"github.com/rpggio/crowdfund/internal/telemetry"
	"github.com/rpggio/crowdfund/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	stdio := cfg.Transport.Mode == "stdio"
	logOut, err := logging.New(cfg.Log, stdio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log setup error: %v\n", err)
		os.Exit(1)
	}
	logger := logOut.Logger

	if err := run(cfg, logOut); err != nil {
		logger.Error("server failed", "error", err)
		logOut.Close()
		os.Exit(1)
	}
	logOut.Close()
}

func run(cfg config.Config, logOut *logging.Output) error {
	logger := logOut.Logger

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	// Only the log level is applied live; other settings need a restart.
	err := config.Watch(watchCtx, logger, func(next config.Config) {
		if err := logOut.SetLevel(next.Log.Level); err != nil {
			logger.Warn("invalid log level in reloaded config", "error", err)
		}
	})
	if err != nil {
		logger.Warn("config watch disabled", "error", err)
	}

	tp, err := telemetry.Init(context.Background(), cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		return err
	}

	services := backend.NewServices(db, logger)
	handler := services.Handler(logger)

	var authority *transport.TokenAuthority
	if cfg.Auth.Enabled {
		authority, err = transport.NewTokenAuthority(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}
	}

	local := transport.NewLocalTransport(handler)
	mcpCfg := mcp.Config{
		Backend:       contract.NewBackendClient(local, logger),
		Escrow:        contract.NewEscrowClient(local, logger),
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		Logger:        logger,
	}
	if authority != nil {
		mcpCfg.Resolver = authority
	}

	if cfg.Transport.Mode == "stdio" {
		return runStdioMode(logger, mcp.NewServer(mcpCfg))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []transport.ServerOption{
		transport.WithLogger(logger),
	}
	if authority != nil {
		opts = append(opts, transport.WithAuth(authority))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, transport.WithMetrics(registry))
	}
	if cfg.Transport.Mode == "http" {
		opts = append(opts, transport.WithMount(cfg.Transport.MCPPath, mcp.NewHTTPHandler(mcp.NewServer(mcpCfg), mcp.DefaultSessionTimeout)))
	}

	gin.SetMode(gin.ReleaseMode)
	return runHTTPMode(logger, transport.NewServer(handler, opts...), cfg.Server.Host, cfg.Server.Port)
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func runHTTPMode(logger *slog.Logger, handler http.Handler, host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	return httpServer.Shutdown(ctx)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
