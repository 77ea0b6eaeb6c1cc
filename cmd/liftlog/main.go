package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	liftlog "github.com/claude/liftlog"
	"github.com/claude/liftlog/internal/auth"
	"github.com/claude/liftlog/internal/catalog"
	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/history"
	"github.com/claude/liftlog/internal/localstore"
	"github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/server"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// saveDelay debounces history writes so rapid set edits during a
// workout coalesce into one persist.
const saveDelay = 2 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit (postgres only)")
	webDir := flag.String("web", "", "serve a built frontend from this directory")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("LiftLog starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Open the history backend. SQLite is the single-binary default;
	// postgres serves multi-instance deployments.
	var (
		persister history.Persister
		userStore auth.UserStore
		closeDB   func()
	)
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}

		db, err := storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		persister, userStore = db, db
		closeDB = db.Close
		log.Info("database connected", "driver", cfg.Database.Driver)

	case config.DriverSQLite:
		if *migrateOnly {
			log.Info("migrate-only: nothing to do for sqlite")
			return
		}
		ls, err := localstore.Open(cfg.Database.Path)
		if err != nil {
			log.Error("failed to open local store", "error", err)
			os.Exit(1)
		}
		persister, userStore = ls, ls
		closeDB = func() { _ = ls.Close() }
		log.Info("local store opened", "dir", cfg.Database.Path)
	}
	defer closeDB()

	// Load history into memory
	hist := history.New(persister, saveDelay, log)
	if err := hist.Load(ctx); err != nil {
		log.Error("failed to load workout history", "error", err)
		os.Exit(1)
	}
	log.Info("history loaded", "sessions", hist.Len())

	// Exercise catalog from the embedded asset
	cat, err := catalog.Load(liftlog.CatalogFS, "data/exercises.json")
	if err != nil {
		log.Error("failed to load exercise catalog", "error", err)
		os.Exit(1)
	}
	log.Info("catalog loaded", "exercises", cat.Len())

	// Accounts and the active session
	authSvc := auth.NewService(userStore, time.Duration(cfg.Auth.SessionTTLHours)*time.Hour)
	mgr := session.New(hist, time.Second, log)
	defer mgr.Close()

	// Create server
	srv := server.New(mgr, hist, cat, authSvc, cfg.Auth.APIKey, log)

	// MCP over streamable HTTP at /mcp. Postgres answers tool queries
	// directly; the sqlite mode reads the in-memory store.
	var ds mcp.DataSource
	if db, ok := persister.(*storage.DB); ok {
		ds = db
	} else {
		ds = mcp.StoreSource{Store: hist}
	}
	mcpSrv := mcp.New(ds, cat, Version, log)
	srv.SetMCP(mcpserver.NewStreamableHTTPServer(mcpSrv))

	if *webDir != "" {
		srv.SetFrontend(os.DirFS(*webDir))
	}

	// Start server — tsnet or plain HTTP
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

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

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
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
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

	// Flush any debounced history write before closing the backend.
	hist.Close()
	log.Info("server stopped")
}
