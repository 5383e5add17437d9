// Package cli implements the Kidzy command-line interface using Cobra.
// Every command opens the household in $KIDZY_HOME, applies one change or
// query, and exits; serve keeps it open behind the HTTP API.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "kidzy",
	Short: "Kidzy, a K$ ledger for the whole family",
	Long: `Kidzy lets parents award and deduct K$ for good behaviour, lets kids
save towards wishes, and keeps streaks, badges and daily challenges going.

All data lives in $KIDZY_HOME (default ~/.kidzy).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at the configured level instead of warnings only")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
