package cmd

import (
	"freqgrabber/internal/engine"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(enginesCmd)
}

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "Lists the query engines that can be used in the configuration file.",
	Run: func(cmd *cobra.Command, args []string) {
		registry := engine.DefaultRegistry()

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Name", "Description"})
		for _, name := range registry.Names() {
			t.AppendRow(table.Row{name, registry[name].Description})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
