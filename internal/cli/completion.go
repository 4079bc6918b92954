package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/mermaidpng/pkg/fonts"
	"github.com/matzehuels/mermaidpng/pkg/render"
)

var shells = []string{"bash", "zsh", "fish", "powershell"}

func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for mermaidpng.

Completions cover subcommands, theme names, security levels, font
strategies and .mmd source files.

  $ source <(mermaidpng completion bash)
  $ mermaidpng completion zsh > "${fpath[1]}/_mermaidpng"
  $ mermaidpng completion fish > ~/.config/fish/completions/mermaidpng.fish
  PS> mermaidpng completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             shells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, w := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, true)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			default:
				return root.GenPowerShellCompletionWithDesc(w)
			}
		},
	}
}

// registerCompletions attaches value completions to the persistent config
// flags of root.
func registerCompletions(root *cobra.Command) {
	fixed := func(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return values, cobra.ShellCompDirectiveNoFileComp
		}
	}
	_ = root.RegisterFlagCompletionFunc("theme", themeCompletion)
	_ = root.RegisterFlagCompletionFunc("security-level", fixed(
		string(render.SecurityStrict), string(render.SecurityLoose),
		string(render.SecurityAntiscript), string(render.SecuritySandbox)))
	_ = root.RegisterFlagCompletionFunc("fonts", fixed(
		string(fonts.StrategySystem), string(fonts.StrategyEmbedded)))
	_ = root.RegisterFlagCompletionFunc("output-dir", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveFilterDirs
	})
}

// themeCompletion offers built-in theme names.
func themeCompletion(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return render.ThemeNames(), cobra.ShellCompDirectiveNoFileComp
}

// sourceCompletion completes the first positional argument with .mmd files.
func sourceCompletion(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	return []string{"mmd"}, cobra.ShellCompDirectiveFilterFileExt
}
