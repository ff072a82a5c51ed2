// Package cmd implements the CLI command structure for specsync.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/config"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/logging"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/schema"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/specdir"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/translate"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Run executes the specsync CLI.
func Run(ctx context.Context, args []string) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("specsync", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, os.Stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	remainingArgs := fs.Args()
	if len(remainingArgs) == 0 {
		printUsage(fs, os.Stderr)
		return errors.New("no command given")
	}
	subcommand := remainingArgs[0]
	remainingArgs = remainingArgs[1:]

	// Execute the subcommand
	switch subcommand {
	case "translate":
		return translateCommand(ctx, cfg, remainingArgs)
	case "batch":
		return batchCommand(ctx, cfg, remainingArgs)
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "validate":
		return validateCommand(ctx, cfg, remainingArgs)
	case "watch":
		return watchCommand(ctx, cfg, remainingArgs)
	case "extract":
		return extractCommand(cfg, remainingArgs)
	case "hash":
		return hashCommand(cfg, remainingArgs)
	case "tail":
		return tailCommand(ctx, cfg, remainingArgs)
	case "config":
		return configCommand(cws, remainingArgs)
	case "completion":
		return completionCommand(cfg, remainingArgs)
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, os.Stdout)
		return nil
	default:
		// A bare markdown path is shorthand for translate.
		if fi, err := os.Stat(subcommand); err == nil && !fi.IsDir() && strings.HasSuffix(strings.ToLower(subcommand), ".md") {
			return translateCommand(ctx, cfg, append([]string{subcommand}, remainingArgs...))
		}
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// session carries what every pipeline command shares: the console logger,
// the run log and the event sink feeding it.
type session struct {
	cfg    *config.Config
	logger *log.Logger
	runLog *logging.RunLogger
	events logging.EventWriter
}

// newSession opens the console logger and, if possible, a run log. A run
// log that cannot be created only costs the JSONL record.
func newSession(cfg *config.Config, console io.Writer) *session {
	logger := logging.NewConsoleLoggerFromConfig(console, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)
	s := &session{cfg: cfg, logger: logger, events: logging.NullWriter{}}

	runLog, err := logging.NewRunLogger(cfg.LogDir, cfg.ProjectRoot)
	if err != nil {
		logger.Warn("run log disabled", "err", err)
		return s
	}
	s.runLog = runLog
	s.events = runLog.Events()
	logger.Debug("run log", "path", runLog.LogPath)
	return s
}

func (s *session) Close() {
	if s.runLog != nil {
		_ = s.runLog.Close()
	}
}

// hookOutput sends hook output to a per-hook file next to the run log.
func (s *session) hookOutput(label string) (io.WriteCloser, error) {
	return os.Create(s.runLog.HookLogPath(label))
}

// translator builds a Translator over the OS filesystem from the config.
func (s *session) translator(cache bool, extra ...translate.Option) (*translate.Translator, error) {
	cfg := s.cfg
	validator, err := schema.New(schema.Options{
		SchemaPath:    cfg.SchemaFile,
		SchemaVersion: cfg.SpecVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("creating validator: %w", err)
	}

	opts := []translate.Option{
		translate.WithLogger(s.logger),
		translate.WithEvents(s.events),
		translate.WithValidator(validator),
		translate.WithSpecVersion(cfg.SpecVersion),
		translate.WithLocator(specdir.Locator),
		translate.WithOutputDir(cfg.OutputDir),
		translate.WithMaxBytes(cfg.MaxInputBytes),
	}
	if cache {
		opts = append(opts, translate.WithCache(translate.NewCache()))
	}
	if cfg.HookCommand != "" {
		hook := translate.HookOptions{Command: cfg.HookCommand, WorkDir: cfg.ProjectRoot}
		if s.runLog != nil {
			hook.OutputFor = s.hookOutput
		}
		opts = append(opts, translate.WithHook(hook))
	}
	opts = append(opts, extra...)

	return translate.New(osfs.Default, opts...)
}

func versionCommand() error {
	fmt.Printf("specsync version %s\n", Version)
	return nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "specsync - translate spec markdown into canonical, validated YAML")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  specsync [global options] <command> [options] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  translate <input.md>      Translate one spec into canonical YAML")
	fmt.Fprintln(w, "  batch <inputs...>         Translate several specs in parallel")
	fmt.Fprintln(w, "  tui <inputs...>           Translate with a terminal progress view")
	fmt.Fprintln(w, "  validate <file.yaml>      Validate an existing canonical document")
	fmt.Fprintln(w, "  watch <path>              Watch mode (not implemented)")
	fmt.Fprintln(w, "  extract <input.md>        Print the extracted section tree")
	fmt.Fprintln(w, "  hash <file.yaml>          Print the normalized content hash")
	fmt.Fprintln(w, "  tail                      Tail the latest run log")
	fmt.Fprintln(w, "  config                    Show effective configuration")
	fmt.Fprintln(w, "  completion <shell>        Print a shell completion script")
	fmt.Fprintln(w, "  version                   Show version information")
	fmt.Fprintln(w, "  help                      Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Translate Options (use with 'translate'):")
	fmt.Fprintln(w, "  -o string")
	fmt.Fprintln(w, "        Output path (default: input with .yaml extension)")
	fmt.Fprintln(w, "  -validate")
	fmt.Fprintln(w, "        Validate before writing")
	fmt.Fprintln(w, "  -no-cache")
	fmt.Fprintln(w, "        Disable the extraction cache")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Batch Options (use with 'batch' and 'tui'):")
	fmt.Fprintln(w, "  -j int")
	fmt.Fprintln(w, "        Parallel workers (default from -workers)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tail Options (use with 'tail'):")
	fmt.Fprintln(w, "  -f, --follow")
	fmt.Fprintln(w, "        Follow the log (like tail -f)")
	fmt.Fprintln(w, "  -n int")
	fmt.Fprintln(w, "        Number of lines to show (0 = all)")
	fmt.Fprintln(w, "  -pretty")
	fmt.Fprintln(w, "        Render events as log lines")
	fmt.Fprintln(w, "  -list")
	fmt.Fprintln(w, "        List recorded runs instead of tailing")
}
