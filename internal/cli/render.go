package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mermaidpng/pkg/errors"
)

const (
	formatPNG = "png"
	formatSVG = "svg"
)

// renderCommand converts one file, to PNG or SVG.
//
// Without an explicit output path the result is written to the configured
// output directory as <basename>.<format>.
func (c *CLI) renderCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:               "render <file> [output]",
		Short:             "Render a single Mermaid file to PNG or SVG",
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: sourceCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			var output string
			if len(args) == 2 {
				output = args[1]
			}
			return c.runRender(cmd, args[0], output, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: png (default), svg; inferred from the output path when given")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input, output, format string) error {
	cfg, err := loadConfig(cmd, "")
	if err != nil {
		return err
	}
	if err := errors.ValidatePath(input); err != nil {
		return err
	}

	format, err = resolveFormat(format, output)
	if err != nil {
		return err
	}
	if output == "" {
		base := filepath.Base(input)
		output = filepath.Join(cfg.OutputDir, strings.TrimSuffix(base, filepath.Ext(base))+"."+format)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "create output directory")
	}

	runner, release, err := c.newRunner(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer release()

	name := filepath.Base(input)
	prog := newProgress(loggerFromContext(cmd.Context()))
	spin := newSpinner(cmd.Context(), os.Stderr, "Rendering "+name)
	spin.Start()

	res := runner.Convert(cmd.Context(), input, output)
	if res.Err != nil {
		spin.Stop()
		if ctxErr := cmd.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return res.Err
	}
	spin.StopWithSuccess(c.out, "Rendered "+name)
	prog.done("Rendered " + name)
	printFile(c.out, output)
	return nil
}

// resolveFormat reconciles --format with the extension of output.
func resolveFormat(format, output string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(output), "."))

	switch {
	case format == "" && (ext == formatPNG || ext == formatSVG):
		return ext, nil
	case format == "":
		if output != "" {
			return "", errors.New(errors.ErrCodeInvalidPath, "cannot infer format from %q; use --format", output)
		}
		return formatPNG, nil
	case format != formatPNG && format != formatSVG:
		return "", errors.New(errors.ErrCodeInvalidConfig, "unknown format %q (want png or svg)", format)
	case output != "" && ext != format:
		return "", errors.New(errors.ErrCodeInvalidPath, "output %q does not match --format %s", output, format)
	}
	return format, nil
}
