package cli

import (
	"github.com/spf13/cobra"
)

// convertCommand is the explicit form of running the root command.
func (c *CLI) convertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert [pattern]",
		Short: "Convert all matching Mermaid diagrams to PNG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd, args)
		},
	}
}

func (c *CLI) runBatch(cmd *cobra.Command, args []string) error {
	var pattern string
	if len(args) == 1 {
		pattern = args[0]
	}
	cfg, err := loadConfig(cmd, pattern)
	if err != nil {
		return err
	}

	runner, release, err := c.newRunner(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer release()

	_, err = runner.Run(cmd.Context(), cfg.BatchOptions())
	return err
}
