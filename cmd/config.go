package cmd

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/robertmnyborg/claude-oak-agents-sub001/internal/config"
)

// configCommand prints the effective configuration and where each value
// came from.
func configCommand(cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("specsync config", flag.ContinueOnError)
	example := fs.Bool("example", false, "Print an example config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *example {
		fmt.Print(config.ExampleConfig())
		return nil
	}

	if len(cws.Files) == 0 {
		fmt.Println("Config files: none")
	} else {
		fmt.Println("Config files:")
		for _, f := range cws.Files {
			fmt.Printf("  %s\n", f)
		}
	}
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
	for _, field := range config.Fields() {
		value, _ := cws.Config.Value(field)
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", field, value, cws.Source(field))
	}
	return tw.Flush()
}
