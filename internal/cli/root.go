// Package cli implements the mermaidpng command-line interface.
//
// Run without a subcommand, mermaidpng converts every Mermaid source matched
// by a glob pattern into a PNG. Settings come from flags, MERMAID_*
// environment variables and an optional .env file.
//
// # Commands
//
//   - convert: explicit form of the default batch conversion
//   - render: convert a single file to PNG or SVG
//   - themes: list built-in themes or show one theme's colors
//   - completion: generate shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports per-stage timings. Loggers are passed through context.Context.
//
// # Example
//
//	func main() {
//	    if err := cli.Execute(context.Background()); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mermaidpng/pkg/observability"
)

// Execute builds the command tree, wires --verbose to the logger and runs it.
func Execute(ctx context.Context) error {
	c := New(os.Stderr, LogInfo)
	return c.Execute(ctx, os.Args[1:])
}

// Execute runs the command tree with args.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	var verbose bool

	// -v swaps in a stage logger for this call only; cobra skips
	// PersistentPostRun when RunE fails, so restore on return instead.
	prevStages := observability.Stages()
	defer observability.SetStageHooks(prevStages)

	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		level := LogInfo
		if verbose {
			level = LogDebug
			observability.SetStageHooks(stageLogger{logger: c.Logger})
		}
		c.SetLogLevel(level)
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}

	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(c.out)
	return root.ExecuteContext(ctx)
}
