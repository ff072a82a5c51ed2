// Command specsync translates spec markdown into canonical YAML.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/robertmnyborg/claude-oak-agents-sub001/cmd"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return exitCode(ctx, cmd.Run(ctx, args), stderr)
}

// exitCode reports err on stderr and maps it to the process status:
// 0 on success, 130 when interrupted and 1 otherwise.
func exitCode(ctx context.Context, err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return 0
	case ctx.Err() != nil:
		fmt.Fprintln(stderr, "\nInterrupted")
		return 130
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}
