// Package mcp exposes workout history and the exercise catalog to MCP
// clients.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftlog/internal/catalog"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, cat *catalog.Catalog, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog workout tracker. Query logged workouts, previous performance per exercise, max-weight progress series, and the exercise catalog."),
	)

	h := &handlers{ds: ds, cat: cat, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetWorkouts, Handler: h.getWorkouts},
		server.ServerTool{Tool: toolGetPreviousPerformance, Handler: h.getPreviousPerformance},
		server.ServerTool{Tool: toolGetProgressSeries, Handler: h.getProgressSeries},
		server.ServerTool{Tool: toolListExerciseNames, Handler: h.listExerciseNames},
		server.ServerTool{Tool: toolSearchCatalog, Handler: h.searchCatalog},
	)

	s.AddResources(
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	cat *catalog.Catalog
	log *slog.Logger
}

var resRecentWorkouts = mcp.NewResource(
	"liftlog://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("Workouts from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)
