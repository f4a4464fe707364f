package main

import (
	"database/sql"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"figsnap/internal/config"
	"figsnap/internal/journal"
	"figsnap/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"capture": true, "code": true,
	"get": true, "list": true, "purge": true,
	"history": true, "snippets": true, "flag": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___ _
  | __(_)__ _ ___ _ _  __ _ _ __
  | _|| / _. (_-<| ' \/ _. | '_ \
  |_| |_\__, /__/|_||_\__,_| .__/
        |___/              |_|

  Design-response capture sidecar

  Usage: figsnap <command> [options]
         figsnap --help

  MCP server mode requires piped input.`)
}

// newLogger builds the diagnostics logger. Everything it emits goes to
// stderr: in hook mode stdout belongs to the acknowledgment alone.
func newLogger(verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core)
}

// openJournal opens the capture journal under baseDir. Journal trouble
// never blocks startup: a nil handle disables journaling for this run.
func openJournal(baseDir string, cfg *config.Config, log *zap.Logger) *sql.DB {
	if cfg.DisableJournal {
		return nil
	}
	jdb, err := journal.Open(config.JournalPath(baseDir))
	if err != nil {
		log.Warn("capture journal unavailable, continuing without it", zap.Error(err))
		return nil
	}
	return jdb
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before any state is touched
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, zap.NewNop())
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	log := newLogger(os.Getenv("FIGSNAP_DEBUG") != "")
	defer log.Sync()

	baseDir, err := config.DefaultBaseDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	jdb := openJournal(baseDir, cfg, log)
	if jdb != nil {
		defer jdb.Close()
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(cfg, jdb, log)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'figsnap --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(cfg, jdb, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
