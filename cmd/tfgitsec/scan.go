package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/juparave/tfgitsec/internal/app"
	"github.com/juparave/tfgitsec/internal/config"
	"github.com/juparave/tfgitsec/internal/report"
	"github.com/juparave/tfgitsec/internal/util"
)

func newScanCmd() *cobra.Command {
	var (
		token       string
		githubRepo  string
		gheBaseURL  string
		dryRun      bool
		noAutoClose bool
		prefix      string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "scan <tfsec.json>",
		Short: "Process tfsec results and manage GitHub issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reportPath := util.ExpandPath(args[0])
			if !util.FileExists(reportPath) {
				return fmt.Errorf("tfsec report not found: %s", reportPath)
			}

			cfg, err := loadConfig(token, githubRepo, gheBaseURL, output)
			if err != nil {
				return err
			}
			if dryRun {
				cfg.Settings.DryRun = true
			}
			if noAutoClose {
				cfg.Settings.AutoClose = false
			}

			runner, err := app.NewRunner(cfg, version)
			if err != nil {
				return err
			}

			if err := runner.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("connecting to GitHub: %w", err)
			}

			result, err := runner.Scan(cmd.Context(), reportPath, prefix)
			if err != nil {
				return err
			}

			if cfg.Settings.Output == "json" {
				out, err := report.RenderJSON(result)
				if err != nil {
					return err
				}
				fmt.Println(out)
				return nil
			}

			fmt.Print(report.RenderText(result, verbose))
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "GitHub personal access token (or set GITHUB_TOKEN)")
	cmd.Flags().StringVar(&githubRepo, "github-repo", "", "GitHub repository in owner/repo format (or set GITHUB_REPO)")
	cmd.Flags().StringVar(&gheBaseURL, "ghe-base-url", "", "GitHub Enterprise base URL (or set GHE_BASE_URL)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without making changes")
	cmd.Flags().BoolVar(&noAutoClose, "no-auto-close", false, "Don't automatically close resolved issues")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Prefix for unique IDs, for multi-environment isolation (e.g. \"production-east2\")")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output format: text or json")

	return cmd
}

// loadConfig loads the config file and applies flag overrides, which win
// over both the file and environment variables
func loadConfig(token, githubRepo, gheBaseURL, output string) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if token != "" {
		cfg.GitHub.Token = token
	}
	if githubRepo != "" {
		cfg.GitHub.Repo = githubRepo
	}
	if gheBaseURL != "" {
		cfg.GitHub.BaseURL = gheBaseURL
	}
	if output != "" {
		cfg.Settings.Output = output
	}
	cfg.Verbose = verbose

	return cfg, nil
}
