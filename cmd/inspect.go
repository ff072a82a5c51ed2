package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-git/go-billy/v5/osfs"
	"gopkg.in/yaml.v3"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/canonical"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/config"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/extract"
	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/specerr"
)

var errWatchNotImplemented = errors.New("watch mode is not implemented")

// validateCommand back-validates an existing canonical document.
func validateCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("specsync validate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("validate requires exactly one YAML file, got %d", fs.NArg())
	}

	s := newSession(cfg, os.Stderr)
	defer s.Close()

	tr, err := s.translator(false)
	if err != nil {
		return err
	}

	report, err := tr.ValidateExisting(ctx, fs.Arg(0))
	if report != nil {
		for _, w := range report.Validation.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
	}
	if err != nil {
		printViolations(err)
		return err
	}

	fmt.Printf("%s: valid\n", report.Path)
	fmt.Printf("  spec_id: %s\n", report.SpecID)
	fmt.Printf("  status: %s\n", report.Status)
	fmt.Println("  provenance:")
	fmt.Printf("    spec_version: %s\n", report.Provenance.SpecVersion)
	fmt.Printf("    generated_from_markdown: %t\n", report.Provenance.GeneratedFromMarkdown)
	fmt.Printf("    markdown_location: %s\n", report.Provenance.MarkdownLocation)
	fmt.Printf("    last_sync: %s\n", report.Provenance.LastSync)
	return nil
}

// watchCommand exists so that "watch" is a known command; it always fails.
func watchCommand(ctx context.Context, cfg *config.Config, args []string) error {
	s := newSession(cfg, os.Stderr)
	defer s.Close()

	tr, err := s.translator(false)
	if err != nil {
		return err
	}
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	if err := tr.Watch(ctx, path); err != nil {
		if errors.Is(err, specerr.ErrNotImplemented) {
			return errWatchNotImplemented
		}
		return err
	}
	return nil
}

// extractCommand prints the section tree of a spec without building it.
func extractCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("specsync extract", flag.ContinueOnError)
	dump := fs.Bool("dump", false, "Print a Go value dump instead of YAML")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("extract requires exactly one input file, got %d", fs.NArg())
	}

	tree, err := extract.ExtractFile(osfs.Default, fs.Arg(0), extract.Options{MaxBytes: cfg.MaxInputBytes})
	if err != nil {
		return err
	}

	if *dump {
		cs := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
		cs.Fdump(os.Stdout, tree)
		return nil
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(tree); err != nil {
		return fmt.Errorf("encoding tree: %w", err)
	}
	return enc.Close()
}

// hashCommand prints the normalized content hash of a canonical document.
func hashCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("specsync hash", flag.ContinueOnError)
	exclude := fs.Bool("exclude-provenance", false, "Leave metadata.last_sync out of the hash")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("hash requires at least one YAML file")
	}

	for _, path := range fs.Args() {
		data, err := extract.ReadSource(osfs.Default, path, extract.Options{MaxBytes: cfg.MaxInputBytes})
		if err != nil {
			return err
		}
		sum, err := canonical.Hash([]byte(data), canonical.HashOptions{ExcludeProvenance: *exclude})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Printf("%s  %s\n", sum, path)
	}
	return nil
}
