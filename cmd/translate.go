package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/config"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/specerr"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/translate"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/ui"
)

// translateCommand translates one spec document.
func translateCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("specsync translate", flag.ContinueOnError)
	output := fs.String("o", "", "Output path (default: input with .yaml extension)")
	fs.StringVar(output, "output", "", "Output path (default: input with .yaml extension)")
	validate := fs.Bool("validate", cfg.Validate, "Validate before writing")
	noCache := fs.Bool("no-cache", !cfg.Cache, "Disable the extraction cache")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("translate requires exactly one input file, got %d", fs.NArg())
	}

	s := newSession(cfg, os.Stderr)
	defer s.Close()

	tr, err := s.translator(!*noCache)
	if err != nil {
		return err
	}

	res, err := tr.Translate(ctx, translate.Request{
		Input:    fs.Arg(0),
		Output:   *output,
		Validate: *validate,
	})
	if err != nil {
		printViolations(err)
		return err
	}

	printResult(res)
	return nil
}

// batchCommand translates several spec documents on a worker pool.
func batchCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("specsync batch", flag.ContinueOnError)
	workers := fs.Int("j", cfg.EffectiveWorkers(), "Parallel workers")
	validate := fs.Bool("validate", cfg.Validate, "Validate before writing")
	noCache := fs.Bool("no-cache", !cfg.Cache, "Disable the extraction cache")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("batch requires at least one input file")
	}

	s := newSession(cfg, os.Stderr)
	defer s.Close()

	tr, err := s.translator(!*noCache)
	if err != nil {
		return err
	}

	results := tr.TranslateAll(ctx, requestsFor(fs.Args(), *validate), *workers)
	for _, br := range results {
		if br.Err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", br.Request.Input, br.Err)
			continue
		}
		printResult(br.Result)
	}
	return batchError(ctx, results)
}

// tuiCommand translates inputs while showing pipeline progress.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("specsync tui", flag.ContinueOnError)
	workers := fs.Int("j", cfg.EffectiveWorkers(), "Parallel workers")
	validate := fs.Bool("validate", cfg.Validate, "Validate before writing")
	exit := fs.Bool("exit", false, "Close the view once every translation finished")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("tui requires at least one input file")
	}
	inputs := fs.Args()

	// The view owns the terminal; console logging would tear it.
	quiet := *cfg
	quiet.LogLevel = "fatal"
	s := newSession(&quiet, os.Stderr)
	defer s.Close()

	run := func(ctx context.Context, updates chan<- translate.Status) error {
		tr, err := s.translator(cfg.Cache, translate.WithUpdates(updates))
		if err != nil {
			return err
		}
		return batchError(ctx, tr.TranslateAll(ctx, requestsFor(inputs, *validate), *workers))
	}
	return ui.RunTUI(ctx, inputs, run, ui.WithExitOnDone(*exit))
}

func requestsFor(inputs []string, validate bool) []translate.Request {
	reqs := make([]translate.Request, 0, len(inputs))
	for _, in := range inputs {
		reqs = append(reqs, translate.Request{Input: in, Validate: validate})
	}
	return reqs
}

func batchError(ctx context.Context, results []translate.BatchResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if failed := translate.Failed(results); failed > 0 {
		return fmt.Errorf("%d of %d translations failed", failed, len(results))
	}
	return nil
}

func printResult(res *translate.Result) {
	fmt.Printf("%s -> %s (spec %s)\n", res.Input, res.Output, res.SpecID)
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

// printViolations lists every accumulated validation message of err.
func printViolations(err error) {
	if specerr.CodeOf(err) != specerr.CodeValidation {
		return
	}
	for _, msg := range specerr.MessagesOf(err) {
		fmt.Fprintf(os.Stderr, "  - %s\n", msg)
	}
}
