package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/juparave/tfgitsec/internal/app"
)

func newTestCmd() *cobra.Command {
	var (
		token      string
		githubRepo string
		gheBaseURL string
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the GitHub API connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(token, githubRepo, gheBaseURL, "")
			if err != nil {
				return err
			}

			runner, err := app.NewRunner(cfg, version)
			if err != nil {
				return err
			}

			fmt.Printf("Testing connection to %s...\n", cfg.GitHub.Repo)
			count, err := runner.TestConnection(cmd.Context())
			if err != nil {
				return fmt.Errorf("connecting to GitHub: %w", err)
			}

			fmt.Println("GitHub connection successful")
			fmt.Printf("Found %d existing tfgitsec issues\n", count)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "GitHub personal access token (or set GITHUB_TOKEN)")
	cmd.Flags().StringVar(&githubRepo, "github-repo", "", "GitHub repository in owner/repo format (or set GITHUB_REPO)")
	cmd.Flags().StringVar(&gheBaseURL, "ghe-base-url", "", "GitHub Enterprise base URL (or set GHE_BASE_URL)")

	return cmd
}
