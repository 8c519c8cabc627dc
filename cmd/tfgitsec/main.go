package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/juparave/tfgitsec/internal/logging"
)

var (
	version = "1.0.3"
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "tfgitsec",
		Short:   "Generate GitHub security issues from tfsec scan results",
		Long:    `tfgitsec reconciles tfsec scan findings against GitHub issues: one issue per finding, created when a finding appears, reopened when it returns, and closed when it is resolved.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(verbose)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (default: ~/.config/tfgitsec/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newTestCmd())

	// A local .env may carry GITHUB_TOKEN and friends
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
