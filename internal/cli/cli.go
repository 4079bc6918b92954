package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mermaidpng/pkg/batch"
	"github.com/matzehuels/mermaidpng/pkg/buildinfo"
	"github.com/matzehuels/mermaidpng/pkg/config"
	"github.com/matzehuels/mermaidpng/pkg/errors"
	"github.com/matzehuels/mermaidpng/pkg/raster"
	"github.com/matzehuels/mermaidpng/pkg/render"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "mermaidpng"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out       io.Writer
	newEngine func(context.Context) (render.Engine, error)
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:    newLogger(w, level),
		out:       os.Stdout,
		newEngine: graphvizEngine,
	}
}

func graphvizEngine(ctx context.Context) (render.Engine, error) {
	return render.NewGraphvizEngine(ctx)
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects console output (per-file lines and the summary).
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// RootCommand creates the root cobra command with all subcommands registered.
// Run without a subcommand, it converts every matching diagram.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName + " [pattern]",
		Short: "Convert Mermaid diagrams to PNG images",
		Long: `mermaidpng finds Mermaid diagram sources with a glob pattern and writes
one PNG per diagram into an output directory. A diagram that fails to
convert is reported and skipped; the rest of the batch still runs.

Every flag can also be set through a MERMAID_* environment variable
(for example MERMAID_OUTPUT_DIR) or a .env file in the working directory.`,
		Example: `  mermaidpng
  mermaidpng 'docs/**/*.mmd' -o docs/img
  MERMAID_THEME=dark mermaidpng --workers 4`,
		Version:       buildinfo.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd, args)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	config.AddFlags(root.PersistentFlags())
	registerCompletions(root)

	// Register all subcommands
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.themesCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// loadConfig resolves settings for cmd; a positional pattern overrides
// --input and MERMAID_INPUT.
func loadConfig(cmd *cobra.Command, pattern string) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if pattern != "" {
		cfg.Input = pattern
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newRunner wires renderer, rasterizer and reporter for cfg. The returned
// function releases the layout engine.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config) (*batch.Runner, func(), error) {
	renderOpts, err := cfg.RenderOptions()
	if err != nil {
		return nil, nil, err
	}
	rasterOpts, err := cfg.RasterOptions()
	if err != nil {
		return nil, nil, err
	}

	engine, err := c.newEngine(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "start layout engine")
	}
	rasterizer := raster.New(rasterOpts)

	c.Logger.Debug("configured",
		"theme", renderOpts.Theme.Name,
		"security", renderOpts.Security,
		"raster", rasterizer.String(),
		"workers", cfg.Workers)

	runner := batch.NewRunner(render.New(engine, renderOpts), rasterizer, c.Logger, newConsoleReporter(c.out))
	release := func() {
		if err := engine.Close(); err != nil {
			c.Logger.Warn("close layout engine", "err", err)
		}
	}
	return runner, release, nil
}
