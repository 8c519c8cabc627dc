package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/juparave/tfgitsec/internal/parser"
	"github.com/juparave/tfgitsec/internal/report"
	"github.com/juparave/tfgitsec/internal/util"
)

func newSummaryCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "summary <tfsec.json>",
		Short: "Generate a scan summary without managing issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reportPath := util.ExpandPath(args[0])
			if !util.FileExists(reportPath) {
				return fmt.Errorf("tfsec report not found: %s", reportPath)
			}

			findings, err := parser.ParseFile(reportPath, "")
			if err != nil {
				return err
			}
			stats := parser.Stats(findings)

			if output == "json" {
				data, err := json.MarshalIndent(stats, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Println("tfsec scan summary")
			fmt.Print(report.RenderStats(stats))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text or json")

	return cmd
}
