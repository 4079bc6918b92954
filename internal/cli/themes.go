package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mermaidpng/pkg/render"
)

var (
	themeHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	themeCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// themesCommand lists the built-in themes, or shows one theme's colors.
func (c *CLI) themesCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "themes [name|file.toml]",
		Short:             "List built-in themes or show the colors of one theme",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: themeCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(c.out, themeTable())
				return nil
			}
			t, err := render.LoadTheme(args[0])
			if err != nil {
				return err
			}
			printTheme(c, t)
			return nil
		},
	}
}

func themeTable() *table.Table {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("THEME", "PRIMARY", "BORDER", "LINE", "CLUSTER").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return themeHeaderStyle
			}
			return themeCellStyle
		})
	for _, name := range render.ThemeNames() {
		th, _ := render.BuiltinTheme(name)
		t.Row(name, swatch(th.PrimaryColor), swatch(th.PrimaryBorderColor), swatch(th.LineColor), swatch(th.ClusterBackground))
	}
	return t
}

func printTheme(c *CLI, t render.Theme) {
	fmt.Fprintln(c.out, StyleTitle.Render(t.Name))
	printKeyValue(c.out, "primary", swatch(t.PrimaryColor))
	printKeyValue(c.out, "border", swatch(t.PrimaryBorderColor))
	printKeyValue(c.out, "text", swatch(t.PrimaryTextColor))
	printKeyValue(c.out, "line", swatch(t.LineColor))
	printKeyValue(c.out, "cluster", swatch(t.ClusterBackground))
	printKeyValue(c.out, "note", swatch(t.NoteBackground))
	printKeyValue(c.out, "font", StyleValue.Render(fmt.Sprintf("%s, %gpx", t.FontFamily, t.FontSize)))
}
