package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	app := &cobra.Command{
		Use:   "dated",
		Short: "Metadata-driven database record editor",
		Long: `Description:
  DatEd introspects a relational table's schema at runtime and serves a
  generic editor over it: an HTML grid plus JSON endpoints to read and
  update rows without per-table code.
`,
	}
	app.SilenceUsage = true
	app.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}

	serveCmd := cmdServe{}
	app.AddCommand(serveCmd.Command())

	if err := app.Execute(); err != nil {
		os.Exit(1)
	}
}
