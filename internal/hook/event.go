package hook

import (
	"encoding/json"
	"fmt"
	"io"
)

// Event is the unit of work delivered by the host for each qualifying
// tool response. Created fresh per invocation, never mutated, discarded
// after processing.
type Event struct {
	ToolName     string          `json:"tool_name"`
	ToolInput    ToolInput       `json:"tool_input"`
	ToolResponse json.RawMessage `json:"tool_response"`
}

// ToolInput carries the request identifier, when the host supplied one.
type ToolInput struct {
	NodeID string `json:"nodeId"`
}

// DecodeEvent reads one JSON event from r.
func DecodeEvent(r io.Reader) (*Event, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read event: %w", err)
	}

	ev := &Event{}
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}
