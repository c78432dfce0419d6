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

	"github.com/claude/pulseboard/internal/config"
	"github.com/claude/pulseboard/internal/dashboard"
	"github.com/claude/pulseboard/internal/mcp"
	"github.com/claude/pulseboard/internal/server"
	"github.com/claude/pulseboard/internal/session"
	"github.com/claude/pulseboard/internal/storage"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("Pulseboard starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	loc, err := cfg.Dashboard.Location()
	if err != nil {
		log.Error("invalid timezone", "error", err)
		os.Exit(1)
	}

	// Run migrations
	dsn := cfg.Database.DSN()
	version, err := storage.RunMigrations(dsn, "migrations")
	if err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied", "version", version)

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Connect database
	ctx := context.Background()
	db, err := storage.New(ctx, dsn, cfg.Database.MaxConns)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Session flags
	sessions, err := session.Open(cfg.Session.StateDir)
	if err != nil {
		log.Error("failed to open session store", "dir", cfg.Session.StateDir, "error", err)
		os.Exit(1)
	}
	defer sessions.Close()

	// Create server
	srv := server.New(db, sessions, server.Options{
		APIKey:         cfg.Auth.APIKey,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Dashboard: dashboard.Options{
			Location:     loc,
			GapThreshold: cfg.Dashboard.GapThreshold(),
			MaxTicks:     cfg.Dashboard.MaxTicks,
		},
	}, log)

	if cfg.MCP.Enabled {
		mcpServer := mcp.New(srv.Dashboard(), mcp.Options{
			Version:      Version,
			DefaultEmail: cfg.MCP.DefaultEmail,
		}, log)
		srv.SetMCP(mcp.NewHTTPHandler(mcpServer))
		log.Info("MCP endpoint enabled", "path", "/mcp")
	}

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "timezone", cfg.Dashboard.Timezone)
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
