package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information - will be set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

var (
	flagStorage  string
	flagServer   string
	flagUsername string
	flagVerbose  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "insdb",
		Short: "Instrument database browser and query tool",
		Long: `insdb browses and queries instrument databases, either from a local
storage directory holding a schema file or from a remote database server.`,
	}

	rootCmd.PersistentFlags().StringVar(&flagStorage, "storage", "", "path to a local database directory")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "address of a remote database server")
	rootCmd.PersistentFlags().StringVar(&flagUsername, "username", "", "username for the remote server")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(releasesCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
