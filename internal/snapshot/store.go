// Package snapshot persists per-key capture artifacts, one file per
// sanitized key with whole-file overwrite semantics.
//
// Writes go through a temp file and an atomic rename, so a reader never
// observes a partially written snapshot even when the host tears the
// hook down mid-write. Two overlapping writes for the same key are a
// known, accepted race: last writer wins, no lock is taken.
package snapshot

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"figsnap/internal/errors"
	"figsnap/internal/extract"
)

// Kind selects the artifact shape stored under a key.
type Kind string

const (
	KindMetadata Kind = "metadata" // serialized frame metadata
	KindCode     Kind = "code"     // raw canonical text, byte-exact
)

// Ext returns the fixed filename extension for the kind.
func (k Kind) Ext() string {
	if k == KindCode {
		return ".txt"
	}
	return ".json"
}

// Metadata is the persisted record for dimension-mode captures.
type Metadata struct {
	Key    string `json:"key"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Entry describes one stored snapshot file.
type Entry struct {
	Key      string    `json:"key"` // sanitized key (the filename stem)
	Kind     Kind      `json:"kind"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Store addresses snapshots inside a single scratch directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir. The directory is created lazily on
// first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the scratch directory.
func (s *Store) Dir() string {
	return s.dir
}

// SanitizeKey maps a raw key (e.g. a design-node reference like
// "123:456") to a safe path segment. Deterministic and idempotent:
// ".." sequences and every rune outside [A-Za-z0-9._-] become "-",
// dash runs collapse, and leading/trailing dashes are trimmed.
func SanitizeKey(key string) string {
	key = strings.ReplaceAll(key, "..", "-")

	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	key = b.String()

	for strings.Contains(key, "--") {
		key = strings.ReplaceAll(key, "--", "-")
	}
	key = strings.Trim(key, "-")

	if key == "" {
		return "unnamed"
	}
	return key
}

// SynthesizeKey generates a fallback key for events that arrive without
// one. ULIDs are time-ordered, so concurrent keyless events cannot
// collide destructively.
func SynthesizeKey() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Path returns the snapshot location for a key and kind.
func (s *Store) Path(key string, kind Kind) string {
	return filepath.Join(s.dir, SanitizeKey(key)+kind.Ext())
}

// WriteMetadata persists a dimension-mode record and returns its path.
func (s *Store) WriteMetadata(key string, d extract.Dimensions) (string, error) {
	record := Metadata{Key: key, Width: d.Width, Height: d.Height}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return s.write(s.Path(key, KindMetadata), append(data, '\n'))
}

// WriteCode persists raw canonical text verbatim and returns its path.
// Transcription fidelity is the point of code mode, so the text is
// written byte-for-byte with no trailing newline added.
func (s *Store) WriteCode(key, text string) (string, error) {
	return s.write(s.Path(key, KindCode), []byte(text))
}

// write replaces the file at path with data via temp-write-then-rename.
func (s *Store) write(path string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return "", errors.NewPersistence(path, fmt.Errorf("create snapshot directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return "", errors.NewInternal(fmt.Errorf("generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"

	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return "", errors.NewPersistence(path, fmt.Errorf("create temp file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return "", errors.NewPersistence(path, err)
	}
	if err := file.Sync(); err != nil {
		return "", errors.NewPersistence(path, err)
	}
	if err := file.Close(); err != nil {
		return "", errors.NewPersistence(path, err)
	}
	file = nil

	if err := os.Rename(tempPath, path); err != nil {
		return "", errors.NewPersistence(path, fmt.Errorf("finalize snapshot: %w", err))
	}

	success = true
	return path, nil
}

// Read returns the stored content for a key and kind.
func (s *Store) Read(key string, kind Kind) ([]byte, error) {
	data, err := os.ReadFile(s.Path(key, kind))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound(key)
		}
		return nil, errors.NewInternal(err)
	}
	return data, nil
}

// ReadMetadata returns the decoded dimension record for a key.
func (s *Store) ReadMetadata(key string) (*Metadata, error) {
	data, err := s.Read(key, KindMetadata)
	if err != nil {
		return nil, err
	}
	record := &Metadata{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("corrupt metadata snapshot %s: %w", key, err))
	}
	return record, nil
}

// List returns all stored snapshots sorted by key. Temp files from
// in-flight writes are skipped.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewInternal(err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || strings.HasSuffix(de.Name(), ".tmp") {
			continue
		}

		var kind Kind
		var stem string
		switch {
		case strings.HasSuffix(de.Name(), KindMetadata.Ext()):
			kind = KindMetadata
			stem = strings.TrimSuffix(de.Name(), KindMetadata.Ext())
		case strings.HasSuffix(de.Name(), KindCode.Ext()):
			kind = KindCode
			stem = strings.TrimSuffix(de.Name(), KindCode.Ext())
		default:
			continue
		}

		info, err := de.Info()
		if err != nil {
			continue
		}

		entries = append(entries, Entry{
			Key:      stem,
			Kind:     kind,
			Path:     filepath.Join(s.dir, de.Name()),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Key != entries[j].Key {
			return entries[i].Key < entries[j].Key
		}
		return entries[i].Kind < entries[j].Kind
	})
	return entries, nil
}

// Delete removes one snapshot. Cleanup is an external concern; the
// capture pipeline itself never calls this.
func (s *Store) Delete(key string, kind Kind) error {
	if err := os.Remove(s.Path(key, kind)); err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFound(key)
		}
		return errors.NewInternal(err)
	}
	return nil
}

// Purge removes every stored snapshot and returns how many were deleted.
func (s *Store) Purge() (int, error) {
	entries, err := s.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if err := os.Remove(e.Path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, errors.NewInternal(err)
		}
		removed++
	}
	return removed, nil
}
