package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muurk/earctl/internal/ui"
	"github.com/muurk/earctl/internal/version"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.SetVersionTemplate("earctl {{.Version}}\n")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		if jsonOutput {
			return printJSON(cmd, info)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.HeaderTitleStyle.Render("earctl "+info.Version))
		for _, p := range []ui.Param{
			{Key: "Commit", Value: info.Commit},
			{Key: "Built", Value: info.BuildDate},
			{Key: "Go", Value: info.GoVersion},
			{Key: "Platform", Value: info.Platform},
		} {
			fmt.Fprintln(out, ui.ResultKeyStyle.Render(p.Key+":")+" "+ui.ResultValueStyle.Render(p.Value))
		}
		return nil
	},
}

// versionString is what the bridge reports and advertises.
func versionString() string {
	return version.Version
}
