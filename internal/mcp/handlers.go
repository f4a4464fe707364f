package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"figsnap/internal/config"
	"figsnap/internal/errors"
	"figsnap/internal/journal"
	"figsnap/internal/snapshot"
	"figsnap/internal/snippet"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	cfg   *config.Config
	store *snapshot.Store
	jdb   *sql.DB // nil when the journal is disabled
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg *config.Config, jdb *sql.DB) *Handlers {
	return &Handlers{
		cfg:   cfg,
		store: snapshot.New(cfg.SnapshotDir),
		jdb:   jdb,
	}
}

// Request types for each tool

// FetchRequest represents the arguments for snapshot_fetch.
type FetchRequest struct {
	Key  string `json:"key"`
	Kind string `json:"kind,omitempty"`
}

// SnippetsRequest represents the arguments for snapshot_snippets.
type SnippetsRequest struct {
	Key string `json:"key"`
}

// HistoryRequest represents the arguments for capture_history.
type HistoryRequest struct {
	Key   string `json:"key,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// Handler implementations

// HandleFetch handles the snapshot_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Key == "" {
		return errorResult(errors.NewInvalidRequest("key is required")), nil
	}

	switch input.Kind {
	case "", string(snapshot.KindMetadata):
		record, err := h.store.ReadMetadata(input.Key)
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(map[string]any{
			"key":    record.Key,
			"width":  record.Width,
			"height": record.Height,
			"path":   h.store.Path(input.Key, snapshot.KindMetadata),
		})
	case string(snapshot.KindCode):
		data, err := h.store.Read(input.Key, snapshot.KindCode)
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(map[string]any{
			"key":  snapshot.SanitizeKey(input.Key),
			"code": string(data),
			"path": h.store.Path(input.Key, snapshot.KindCode),
		})
	default:
		return errorResult(errors.NewInvalidRequest("kind must be \"metadata\" or \"code\"")), nil
	}
}

// HandleList handles the snapshot_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := h.store.List()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"snapshots": entries,
		"count":     len(entries),
	})
}

// HandleSnippets handles the snapshot_snippets tool call.
func (h *Handlers) HandleSnippets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SnippetsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Key == "" {
		return errorResult(errors.NewInvalidRequest("key is required")), nil
	}

	data, err := h.store.Read(input.Key, snapshot.KindCode)
	if err != nil {
		return errorResult(err), nil
	}

	snippets, err := snippet.Extract(data)
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}
	return successResult(map[string]any{
		"key":      snapshot.SanitizeKey(input.Key),
		"snippets": snippets,
		"count":    len(snippets),
	})
}

// HandleHistory handles the capture_history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.jdb == nil {
		return errorResult(errors.NewInvalidRequest("capture journal is disabled")), nil
	}

	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	keySafe := ""
	if input.Key != "" {
		keySafe = snapshot.SanitizeKey(input.Key)
	}

	entries, err := journal.Recent(h.jdb, keySafe, input.Limit)
	if err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}
	return successResult(map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// errorResult creates an MCP error result from any error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if snapErr, ok := err.(*errors.SnapError); ok {
		errorObj := map[string]any{
			"code":    snapErr.Code,
			"message": snapErr.Message,
			"status":  snapErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths
		if snapErr.Code != errors.ErrInternal && snapErr.Details != nil {
			errorObj["details"] = snapErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
