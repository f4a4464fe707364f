// Package hook assembles the capture pipeline: decode one event from
// the host, normalize the response payload, extract or transcribe, and
// persist a per-key snapshot.
//
// Every invocation is an independent, short-lived unit of work. Nothing
// here blocks, retries, or caches; malformed input is a soft outcome
// that still produces a well-formed acknowledgment. The host's event
// loop must never be broken by this side channel.
package hook

import (
	"database/sql"
	"encoding/json"
	"io"

	"go.uber.org/zap"

	"figsnap/internal/config"
	"figsnap/internal/envelope"
	"figsnap/internal/extract"
	"figsnap/internal/gate"
	"figsnap/internal/journal"
	"figsnap/internal/snapshot"
)

// Ack is the acknowledgment echoed back to the host on stdout. The zero
// value marshals to {}, the always-valid empty acknowledgment. Notice
// carries the suppressed-mode instruction referencing the snapshot.
type Ack struct {
	Notice string `json:"notice,omitempty"`
}

// WriteAck encodes the acknowledgment to w. Only the acknowledgment
// ever touches this writer; diagnostics go to the logger.
func WriteAck(w io.Writer, ack Ack) error {
	return json.NewEncoder(w).Encode(ack)
}

// Runner holds the pipeline's collaborators for one invocation.
//
// The suppressed mode is decided by the caller at the process boundary
// (typically by probing the activation flag) and passed in explicitly;
// the pipeline itself never inspects external state.
type Runner struct {
	cfg        *config.Config
	store      *snapshot.Store
	jdb        *sql.DB // nil disables the journal
	log        *zap.Logger
	matchers   []extract.Matcher
	suppressed bool
}

// NewRunner wires a pipeline from config. jdb may be nil when the
// journal is disabled or failed to open; that is not an error here.
// suppressed selects the acknowledgment shape for this invocation.
func NewRunner(cfg *config.Config, jdb *sql.DB, log *zap.Logger, suppressed bool) *Runner {
	matchers, unknown := extract.Named(cfg.Matchers)
	for _, name := range unknown {
		log.Warn("unknown matcher in config, skipping", zap.String("matcher", name))
	}

	return &Runner{
		cfg:        cfg,
		store:      snapshot.New(cfg.SnapshotDir),
		jdb:        jdb,
		log:        log,
		matchers:   matchers,
		suppressed: suppressed,
	}
}

// CaptureDimensions runs the dimension-mode pipeline: canonical text is
// expected to describe a rectangular frame, and the persisted artifact
// is the extracted metadata record.
func (r *Runner) CaptureDimensions(in io.Reader) (Ack, error) {
	ev, text, key, ok := r.prepare(in)
	if !ok {
		return Ack{}, nil
	}

	dims, family, matched := extract.FromText(text, r.matchers)
	if !matched {
		// Soft miss: no fabricated or zero values are ever written.
		r.log.Warn("no dimension pattern matched, skipping snapshot",
			zap.String("key", key))
		return Ack{}, nil
	}

	path, err := r.store.WriteMetadata(key, dims)
	if err != nil {
		r.log.Error("snapshot write failed", zap.String("key", key), zap.Error(err))
		return Ack{}, err
	}

	r.journal(journal.Entry{
		KeyRaw:  key,
		KeySafe: snapshot.SanitizeKey(key),
		Mode:    string(snapshot.KindMetadata),
		Tool:    ev.ToolName,
		Path:    path,
		Width:   dims.Width,
		Height:  dims.Height,
		Bytes:   int64(len(text)),
		Matcher: family,
	})

	return r.ack(path), nil
}

// CaptureCode runs the raw-code-mode pipeline: the canonical text is
// the artifact, persisted byte-exact.
func (r *Runner) CaptureCode(in io.Reader) (Ack, error) {
	ev, text, key, ok := r.prepare(in)
	if !ok {
		return Ack{}, nil
	}

	if max := r.cfg.MaxCanonicalBytes; max > 0 && len(text) > max {
		r.log.Warn("canonical text exceeds cap, truncating",
			zap.String("key", key), zap.Int("bytes", len(text)), zap.Int("max", max))
		text = text[:max]
	}

	path, err := r.store.WriteCode(key, text)
	if err != nil {
		r.log.Error("snapshot write failed", zap.String("key", key), zap.Error(err))
		return Ack{}, err
	}

	r.journal(journal.Entry{
		KeyRaw:  key,
		KeySafe: snapshot.SanitizeKey(key),
		Mode:    string(snapshot.KindCode),
		Tool:    ev.ToolName,
		Path:    path,
		Bytes:   int64(len(text)),
	})

	return r.ack(path), nil
}

// prepare runs the mode-independent front half: event decode, envelope
// normalization, key resolution. ok is false when the invocation ends
// here with an empty acknowledgment.
func (r *Runner) prepare(in io.Reader) (ev *Event, text, key string, ok bool) {
	ev, err := DecodeEvent(in)
	if err != nil {
		r.log.Warn("undecodable event, ignoring", zap.Error(err))
		return nil, "", "", false
	}

	env := envelope.Decode(ev.ToolResponse)
	text, ok = env.CanonicalText()
	if !ok {
		r.log.Warn("no usable content in tool response, ignoring",
			zap.String("tool", ev.ToolName), zap.Stringer("shape", env.Kind))
		return nil, "", "", false
	}

	key = ev.ToolInput.NodeID
	if key == "" {
		key, err = snapshot.SynthesizeKey()
		if err != nil {
			r.log.Warn("could not synthesize fallback key, ignoring", zap.Error(err))
			return nil, "", "", false
		}
		r.log.Warn("event carries no node reference, synthesized key",
			zap.String("key", key))
	}

	return ev, text, key, true
}

// ack builds the acknowledgment after persistence has completed, so
// the referenced path is always valid.
func (r *Runner) ack(path string) Ack {
	if r.suppressed {
		return Ack{Notice: gate.Notice(path)}
	}
	return Ack{}
}

// journal records the capture best-effort. Journal trouble is a
// warning; it never changes the acknowledgment or the snapshot.
func (r *Runner) journal(e journal.Entry) {
	if r.jdb == nil {
		return
	}
	if _, err := journal.Record(r.jdb, e); err != nil {
		r.log.Warn("journal write failed", zap.String("key", e.KeyRaw), zap.Error(err))
	}
}
