// Package cli wires the commands together: flag handling, configuration
// loading, and the investigate/watch/cache pipelines.
package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	verbose   bool
	noColor   bool
	outputFmt string
)

// NewRootCommand creates the root command.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "logwhy",
		Short: "AI-assisted log error investigation",
		Long: `logwhy groups the errors in your logs into recurring patterns and asks
an AI model to explain each one: the likely root cause, the impact, and
suggested fixes.

It supports multiple log formats (JSON, logfmt, plain text), reads from
files or stdin, and caches explanations so repeated investigations of
the same error cost nothing.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "output format (text, json, markdown)")

	// Add subcommands
	rootCmd.AddCommand(newInvestigateCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newCacheCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			fmt.Printf("logwhy %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// Global helpers
func isVerbose() bool {
	return verbose
}

func getOutputFormat() string {
	return outputFmt
}
