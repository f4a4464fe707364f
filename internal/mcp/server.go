// Package mcp exposes the snapshot store over the Model Context
// Protocol, so an agent can read back captures without shelling out.
package mcp

import (
	"database/sql"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"figsnap/internal/config"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"snapshot_fetch": {
		def:     fetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch },
	},
	"snapshot_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"snapshot_snippets": {
		def:     snippetsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSnippets },
	},
	"capture_history": {
		def:     historyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistory },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates a new MCP server with figsnap tools registered.
// jdb may be nil when the journal is disabled; capture_history then
// reports an invalid request instead of results.
func NewServer(cfg *config.Config, jdb *sql.DB, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"figsnap",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(cfg, jdb)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(cfg *config.Config, jdb *sql.DB, version string) error {
	s := NewServer(cfg, jdb, version)
	return server.ServeStdio(s)
}
