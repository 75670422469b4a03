package cli

import (
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/srclib-cargo/pkg/scan"
)

// completionScripts maps a shell to the cobra generator for its script.
var completionScripts = map[string]func(*cobra.Command, io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":        (*cobra.Command).GenZshCompletion,
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": (*cobra.Command).GenPowerShellCompletionWithDesc,
}

// completionCommand creates the completion command. Scripts are written to
// the CLI's stdout.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Print a completion script for srclib-cargo to stdout.

Besides subcommands and flag names, the script completes the values of
scan --provider, --discovery and --data.

  source <(srclib-cargo completion bash)
  srclib-cargo completion fish | source
  srclib-cargo completion zsh > "${fpath[1]}/_srclib-cargo"`,
		DisableFlagsInUseLine: true,
		ValidArgs:             slices.Sorted(maps.Keys(completionScripts)),
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionScripts[args[0]](cmd.Root(), c.Stdout)
		},
	}
}

// registerScanCompletions completes the enumerated values of the scan flags.
func registerScanCompletions(cmd *cobra.Command) {
	var discoveries, dataModes []string
	for _, d := range scan.Discoveries {
		discoveries = append(discoveries, string(d))
	}
	for _, m := range scan.DataModes {
		dataModes = append(dataModes, string(m))
	}
	values := map[string][]string{
		"provider":  {providerCargo, providerManifest},
		"discovery": discoveries,
		"data":      dataModes,
	}
	for flag, choices := range values {
		_ = cmd.RegisterFlagCompletionFunc(flag, cobra.FixedCompletions(choices, cobra.ShellCompDirectiveNoFileComp))
	}
}
