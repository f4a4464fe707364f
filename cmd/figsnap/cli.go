package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"figsnap/internal/config"
	"figsnap/internal/errors"
	"figsnap/internal/gate"
	"figsnap/internal/hook"
	"figsnap/internal/journal"
	"figsnap/internal/snapshot"
	"figsnap/internal/snippet"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(cfg *config.Config, jdb *sql.DB, log *zap.Logger) *cli.App {
	app := &cli.App{
		Name:    "figsnap",
		Usage:   "Design-response capture sidecar",
		Version: Version,
		Commands: []*cli.Command{
			captureCmd(cfg, jdb, log),
			codeCmd(cfg, jdb, log),
			getCmd(cfg),
			listCmd(cfg),
			purgeCmd(cfg),
			historyCmd(jdb),
			snippetsCmd(cfg),
			flagCmd(cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// runHook drives one hook invocation: the event comes in on stdin, the
// acknowledgment goes out on stdout no matter what, and only a
// persistence failure surfaces as a non-zero exit. The activation flag
// is probed here, once, fresh per invocation; the pipeline receives
// the resulting mode and never touches external state itself.
func runHook(run func(*hook.Runner) (hook.Ack, error), cfg *config.Config, jdb *sql.DB, log *zap.Logger) error {
	suppressed := gate.Active(cfg.FlagPath)
	ack, err := run(hook.NewRunner(cfg, jdb, log, suppressed))

	if ackErr := hook.WriteAck(os.Stdout, ack); ackErr != nil {
		log.Error("could not emit acknowledgment", zap.Error(ackErr))
	}

	if err != nil {
		return outputError(err)
	}
	return nil
}

// captureCmd creates the capture command (dimension-mode hook).
func captureCmd(cfg *config.Config, jdb *sql.DB, log *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Hook entry point: capture frame dimensions from a tool-response event on stdin",
		Action: func(c *cli.Context) error {
			return runHook(func(r *hook.Runner) (hook.Ack, error) {
				return r.CaptureDimensions(os.Stdin)
			}, cfg, jdb, log)
		},
	}
}

// codeCmd creates the code command (raw-code-mode hook).
func codeCmd(cfg *config.Config, jdb *sql.DB, log *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "code",
		Usage: "Hook entry point: capture generated code byte-exact from a tool-response event on stdin",
		Action: func(c *cli.Context) error {
			return runHook(func(r *hook.Runner) (hook.Ack, error) {
				return r.CaptureCode(os.Stdin)
			}, cfg, jdb, log)
		},
	}
}

// getCmd creates the get command.
func getCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Fetch a stored snapshot by key",
		ArgsUsage: "<key>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Value: "metadata", Usage: "Artifact kind: metadata|code"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("key is required"))
			}
			key := c.Args().First()
			store := snapshot.New(cfg.SnapshotDir)

			switch c.String("kind") {
			case string(snapshot.KindMetadata):
				record, err := store.ReadMetadata(key)
				if err != nil {
					return outputError(err)
				}
				return outputJSON(record)
			case string(snapshot.KindCode):
				data, err := store.Read(key, snapshot.KindCode)
				if err != nil {
					return outputError(err)
				}
				// Raw bytes, not JSON: code snapshots round-trip byte-exact.
				_, err = os.Stdout.Write(data)
				return err
			default:
				return outputError(errors.NewInvalidRequest("kind must be metadata or code"))
			}
		},
	}
}

// listCmd creates the list command.
func listCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all stored snapshots",
		Action: func(c *cli.Context) error {
			entries, err := snapshot.New(cfg.SnapshotDir).List()
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"snapshots": entries,
				"count":     len(entries),
			})
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Remove every stored snapshot",
		Action: func(c *cli.Context) error {
			removed, err := snapshot.New(cfg.SnapshotDir).Purge()
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"removed": removed})
		},
	}
}

// historyCmd creates the history command.
func historyCmd(jdb *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent entries from the capture journal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "key", Usage: "Narrow to one key (raw or sanitized)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum entries"},
		},
		Action: func(c *cli.Context) error {
			if jdb == nil {
				return outputError(errors.NewInvalidRequest("capture journal is disabled"))
			}

			keySafe := ""
			if key := c.String("key"); key != "" {
				keySafe = snapshot.SanitizeKey(key)
			}

			entries, err := journal.Recent(jdb, keySafe, c.Int("limit"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(map[string]any{
				"entries": entries,
				"count":   len(entries),
			})
		},
	}
}

// snippetsCmd creates the snippets command.
func snippetsCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "snippets",
		Usage:     "Extract fenced code blocks from a stored code snapshot",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("key is required"))
			}

			data, err := snapshot.New(cfg.SnapshotDir).Read(c.Args().First(), snapshot.KindCode)
			if err != nil {
				return outputError(err)
			}

			snippets, err := snippet.Extract(data)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(map[string]any{
				"snippets": snippets,
				"count":    len(snippets),
			})
		},
	}
}

// flagCmd creates the flag command for managing the activation flag.
func flagCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "flag",
		Usage:     "Manage the suppressed-output activation flag",
		ArgsUsage: "on|off|status",
		Action: func(c *cli.Context) error {
			switch c.Args().First() {
			case "on":
				if err := gate.Set(cfg.FlagPath); err != nil {
					return outputError(errors.NewInternal(err))
				}
				return outputJSON(map[string]any{"active": true, "path": cfg.FlagPath})
			case "off":
				if err := gate.Clear(cfg.FlagPath); err != nil {
					return outputError(errors.NewInternal(err))
				}
				return outputJSON(map[string]any{"active": false, "path": cfg.FlagPath})
			case "status", "":
				return outputJSON(map[string]any{
					"active": gate.Active(cfg.FlagPath),
					"path":   cfg.FlagPath,
				})
			default:
				return outputError(errors.NewInvalidRequest("expected on, off, or status"))
			}
		},
	}
}

// outputJSON writes v to stdout as indented JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats an error for the CLI and sets a non-zero exit.
func outputError(err error) error {
	if snapErr, ok := err.(*errors.SnapError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", snapErr.Code, snapErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
