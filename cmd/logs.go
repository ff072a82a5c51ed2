package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/config"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/logging"
)

// tailCommand shows the latest run log.
func tailCommand(ctx context.Context, cfg *config.Config, args []string) error {
	// Parse tail-specific flags
	flags := flag.NewFlagSet("specsync tail", flag.ContinueOnError)
	follow := flags.Bool("f", false, "Follow the log (like tail -f)")
	flags.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := flags.Int("n", 0, "Number of lines to show (0 = all)")
	pretty := flags.Bool("pretty", false, "Render events as log lines")
	list := flags.Bool("list", false, "List recorded runs instead of tailing")

	if err := flags.Parse(args); err != nil {
		return err
	}

	// Find the log directory
	workDir := cfg.ProjectRoot
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		workDir = wd
	}

	logDir, err := logging.FindLogDir(cfg.LogDir, workDir)
	if err != nil {
		return fmt.Errorf("finding log directory: %w", err)
	}

	if *list {
		return listRuns(logDir)
	}

	// Find the latest JSONL file
	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}

	if logPath == "" {
		fmt.Println("No log files found.")
		return nil
	}

	fmt.Printf("Tailing: %s\n", logPath)
	if *follow {
		fmt.Println("(Ctrl+C to stop)")
	}
	fmt.Println()

	var out io.Writer = os.Stdout
	if *pretty {
		logger := logging.NewConsoleLoggerFromConfig(os.Stdout, "debug", cfg.LogFormat, false, false)
		out = logging.NewEventDecoder(logging.NewConsoleWriter(logger), os.Stdout)
	}
	return logging.TailLog(ctx, out, logPath, *n, *follow)
}

func listRuns(logDir string) error {
	runs, err := logging.FindLogRuns(logDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Println("No log files found.")
			return nil
		}
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No log files found.")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %s\n", run.RunID, run.ModTime.Format("2006-01-02 15:04:05"))
		for _, f := range run.Files {
			fmt.Printf("  %s\n", filepath.Base(f))
		}
		for _, f := range run.HookLogs {
			fmt.Printf("  %s (hook)\n", filepath.Base(f))
		}
	}
	return nil
}
