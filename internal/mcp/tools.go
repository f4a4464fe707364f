package mcp

import "github.com/mark3labs/mcp-go/mcp"

var fetchToolDef = mcp.NewTool("snapshot_fetch",
	mcp.WithDescription("Fetch a stored capture snapshot by key. Metadata snapshots decode to a frame record; code snapshots return the raw captured text."),
	mcp.WithString("key",
		mcp.Required(),
		mcp.Description("Snapshot key, raw or sanitized (e.g. \"123:456\" or \"123-456\")."),
	),
	mcp.WithString("kind",
		mcp.Description("Artifact kind: \"metadata\" (default) or \"code\"."),
	),
)

var listToolDef = mcp.NewTool("snapshot_list",
	mcp.WithDescription("List all stored snapshots with their kind, path, size, and modification time."),
)

var snippetsToolDef = mcp.NewTool("snapshot_snippets",
	mcp.WithDescription("Extract fenced code blocks from a stored code snapshot, in document order."),
	mcp.WithString("key",
		mcp.Required(),
		mcp.Description("Key of a code snapshot."),
	),
)

var historyToolDef = mcp.NewTool("capture_history",
	mcp.WithDescription("Read recent entries from the capture journal, most recent first."),
	mcp.WithString("key",
		mcp.Description("Narrow history to one key; empty returns all keys."),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum entries to return (default 20)."),
	),
)
