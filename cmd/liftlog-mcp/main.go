// Command liftlog-mcp serves the LiftLog MCP tools over stdio, backed
// by a running LiftLog server's REST API. Point an MCP client at this
// binary to query workout history from a server reachable over the
// tailnet.
package main

import (
	"flag"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	liftlog "github.com/claude/liftlog"
	"github.com/claude/liftlog/internal/catalog"
	"github.com/claude/liftlog/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	baseURL := flag.String("url", "http://liftlog", "base URL of the LiftLog server")
	flag.Parse()

	// Stdout carries the MCP transport, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cat, err := catalog.Load(liftlog.CatalogFS, "data/exercises.json")
	if err != nil {
		log.Error("failed to load exercise catalog", "error", err)
		os.Exit(1)
	}

	ds := mcp.NewHTTPClient(*baseURL)
	s := mcp.New(ds, cat, Version, log)

	log.Info("liftlog-mcp serving stdio", "url", *baseURL)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}
