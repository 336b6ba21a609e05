package cmd

import (
	"github.com/spf13/cobra"

	"github.com/wikiharvest/wikiharvest/internal/dataset"
	"github.com/wikiharvest/wikiharvest/internal/report"
)

func newReportCmd() *cobra.Command {
	var topN int
	cmd := &cobra.Command{
		Use:   "report <combined.csv>",
		Short: "Summarize a combined dataset on the terminal",
		Long: `Prints summary tables for a combined dataset: an overview, the views
distribution, a quality-grade histogram, and the top articles by views.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, args[0], topN)
		},
	}
	cmd.Flags().IntVar(&topN, "top", 25, "rows in the top-articles table")
	return cmd
}

func runReport(cmd *cobra.Command, input string, topN int) error {
	if _, err := resolveApp(cmd.Context()); err != nil {
		return err
	}
	records, err := dataset.ReadCombined(input)
	if err != nil {
		return err
	}
	report.Write(cmd.OutOrStdout(), records, report.Options{TopN: topN})
	return nil
}
