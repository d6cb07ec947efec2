// Package main is the bridged daemon: the relay connecting backend
// capability calls to the remote UI executor that performs them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/entrhq/bridge/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "bridged",
	Short: "Bridge relay daemon",
	Long:  "bridged relays backend capability requests to the remote UI executor and correlates its asynchronous completions back to the original callers.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Printf("%s %s (commit %s, built %s)\n", info.Name, info.Version, info.Commit, info.Date)
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
