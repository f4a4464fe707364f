package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds application configuration.
type Config struct {
	// SnapshotDir is the scratch directory for per-key snapshot files.
	SnapshotDir string `json:"snapshot_dir,omitempty"`

	// FlagPath is the activation-flag resource. Its mere existence (not
	// content) switches hook acknowledgments to suppressed mode. The flag
	// is created and removed by processes outside the capture pipeline.
	FlagPath string `json:"flag_path,omitempty"`

	// DisableJournal turns off the best-effort capture journal.
	DisableJournal bool `json:"disable_journal,omitempty"`

	// MaxCanonicalBytes caps the canonical text persisted in code mode.
	// 0 means unlimited. Oversized payloads are truncated with a warning,
	// never rejected.
	MaxCanonicalBytes int `json:"max_canonical_bytes,omitempty"`

	// Matchers is the ordered list of dimension matcher names to run.
	// Empty means the built-in cascade (longform, shortform, combined).
	// Unknown names are logged as warnings and skipped.
	Matchers []string `json:"matchers,omitempty"`
}

// DefaultConfig returns the default configuration rooted at baseDir.
func DefaultConfig(baseDir string) *Config {
	return &Config{
		SnapshotDir: filepath.Join(baseDir, "snapshots"),
		FlagPath:    filepath.Join(baseDir, "suppress-output"),
	}
}

// DefaultBaseDir returns the default base directory (~/.figsnap).
func DefaultBaseDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".figsnap"), nil
}

// JournalPath returns the capture journal location under baseDir.
func JournalPath(baseDir string) string {
	return filepath.Join(baseDir, "journal.db")
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.figsnap.
func Load(baseDir string) (*Config, error) {
	overlay, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(baseDir), overlay), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars. Matchers is an ordered
// list, so a non-empty overlay replaces the base list outright instead
// of merging.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.SnapshotDir = overlay.SnapshotDir
	if result.SnapshotDir == "" {
		result.SnapshotDir = base.SnapshotDir
	}

	result.FlagPath = overlay.FlagPath
	if result.FlagPath == "" {
		result.FlagPath = base.FlagPath
	}

	result.MaxCanonicalBytes = overlay.MaxCanonicalBytes
	if result.MaxCanonicalBytes == 0 {
		result.MaxCanonicalBytes = base.MaxCanonicalBytes
	}

	result.DisableJournal = base.DisableJournal || overlay.DisableJournal

	result.Matchers = overlay.Matchers
	if len(result.Matchers) == 0 {
		result.Matchers = base.Matchers
	}

	return result
}
