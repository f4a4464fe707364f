// Package envelope decodes the shape-ambiguous response payload of the
// design inspection tool into a canonical text for extraction.
//
// The tool's MCP surface returns one of three shapes per call: an array
// of content blocks, a string that itself encodes a block array, or a
// bare string. The shape is sniffed once at the boundary and carried as
// a tagged union; callers never re-inspect raw JSON.
package envelope

import "encoding/json"

// Kind identifies which response variant an Envelope holds.
type Kind int

const (
	KindNone    Kind = iota // nothing usable
	KindBlocks              // content-block array
	KindEncoded             // string carrying a JSON-serialized block array
	KindRaw                 // opaque string, used as-is
)

// String returns the variant name, for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindBlocks:
		return "blocks"
	case KindEncoded:
		return "encoded"
	case KindRaw:
		return "raw"
	default:
		return "none"
	}
}

// Block is a single content block in a tool response.
type Block struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Envelope is the decoded response payload.
type Envelope struct {
	Kind   Kind
	Blocks []Block // KindBlocks, KindEncoded
	Raw    string  // KindRaw
}

// Decode sniffs the runtime shape of a tool response and returns the
// matching variant. Decoding is best-effort: speculative parse failures
// fall through to the next shape and never surface as errors.
func Decode(raw json.RawMessage) Envelope {
	if len(raw) == 0 {
		return Envelope{Kind: KindNone}
	}

	var blocks []Block
	if err := json.Unmarshal(raw, &blocks); err == nil {
		return Envelope{Kind: KindBlocks, Blocks: blocks}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		// Some hosts double-encode: the string itself is a serialized
		// block array. Try that before treating it as literal text.
		var nested []Block
		if err := json.Unmarshal([]byte(s), &nested); err == nil && len(nested) > 0 {
			return Envelope{Kind: KindEncoded, Blocks: nested}
		}
		return Envelope{Kind: KindRaw, Raw: s}
	}

	return Envelope{Kind: KindNone}
}

// CanonicalText returns the single normalized string all extraction
// runs against. For block variants this is the first block's text.
// ok is false when no usable content existed anywhere in the envelope;
// that is a normal terminal outcome, not an error.
func (e Envelope) CanonicalText() (text string, ok bool) {
	switch e.Kind {
	case KindBlocks, KindEncoded:
		if len(e.Blocks) == 0 || e.Blocks[0].Text == "" {
			return "", false
		}
		return e.Blocks[0].Text, true
	case KindRaw:
		if e.Raw == "" {
			return "", false
		}
		return e.Raw, true
	default:
		return "", false
	}
}
