package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/instrumentdb/insdb/internal/cli/ui"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the insdb version, Git commit, build date, and Go version",
	Run: func(cmd *cobra.Command, args []string) {
		goVer := GoVersion
		if goVer == "unknown" {
			goVer = runtime.Version()
		}

		fmt.Printf("insdb %s\n", Version)
		table := ui.NewKeyValueTable(os.Stdout, false)
		table.AddRow("Git commit", GitCommit)
		table.AddRow("Build date", BuildDate)
		table.AddRow("Go version", goVer)
		table.Render()
	},
}
