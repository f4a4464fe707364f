// Package gate reads the activation flag that decides whether a hook
// acknowledgment passes the captured payload through or suppresses it
// in favor of a pointer to the snapshot file.
//
// The flag is a marker file whose mere existence toggles behavior; its
// content is ignored. It is owned by processes outside the capture
// pipeline (the flag CLI subcommand is one such process). The probe
// happens once per invocation at the process boundary, with no
// caching; the pipeline itself only receives the resulting mode.
package gate

import (
	"fmt"
	"os"
	"path/filepath"
)

// Active reports whether the activation flag is present.
func Active(flagPath string) bool {
	_, err := os.Stat(flagPath)
	return err == nil
}

// Notice builds the suppressed-mode instruction pointing at the
// just-written snapshot. Persistence always completes before the gate
// is consulted, so the path is valid by the time anyone reads this.
func Notice(snapshotPath string) string {
	return fmt.Sprintf("Response captured to %s; read that file instead of the raw tool output.", snapshotPath)
}

// Set creates the flag resource. For use by flag owners only, never by
// the capture pipeline.
func Set(flagPath string) error {
	if err := os.MkdirAll(filepath.Dir(flagPath), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(flagPath, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	return f.Close()
}

// Clear removes the flag resource. Clearing an absent flag is a no-op.
func Clear(flagPath string) error {
	err := os.Remove(flagPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
