package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wikiharvest/wikiharvest/internal/dataset"
)

func newViewsCmd() *cobra.Command {
	var (
		start  string
		end    string
		output string
	)
	cmd := &cobra.Command{
		Use:   "views <articles.csv>",
		Short: "Fetch yearly pageview totals per article",
		Long: `Reads an articles CSV and fetches the pageview total for each title
over the configured window, writing a views CSV in the same order. Articles
the pageviews API has never seen count as zero views.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViews(cmd, args[0], start, end, output)
		},
	}
	cmd.Flags().StringVar(&start, "start", "",
		"window start, YYYYMMDD (default pageviews.start)")
	cmd.Flags().StringVar(&end, "end", "",
		"window end, YYYYMMDD (default pageviews.end)")
	cmd.Flags().StringVarP(&output, "output", "o", "",
		"output CSV path (default <stem>_views.csv next to the input)")
	return cmd
}

func runViews(cmd *cobra.Command, input, start, end, output string) error {
	application, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := application.Config()
	if start == "" {
		start = cfg.Pageviews.Start
	}
	if end == "" {
		end = cfg.Pageviews.End
	}
	paths := dataset.Outputs(input)
	if output == "" {
		output = paths.Views
	}

	refs, err := dataset.ReadArticles(input)
	if err != nil {
		return err
	}

	run, err := application.StartRun("views")
	if err != nil {
		return err
	}
	err = func() error {
		enricher := newEnricher(application, run, start, end, cfg.Harvest.ContinueOnError)
		totals, skipped, err := enricher.Views(cmd.Context(), refs)
		if err != nil {
			return err
		}
		if err := dataset.WriteViews(output, totals); err != nil {
			return err
		}
		if err := run.RecordOutput(output, len(totals)); err != nil {
			return err
		}
		if err := recordSkips(run, paths.Skipped, skipped); err != nil {
			return err
		}
		application.Logger().Info("views finished",
			zap.Int("articles", len(totals)),
			zap.Int("skipped", len(skipped)),
			zap.String("output", output))
		return nil
	}()
	run.Finish(cmd.Context(), err)
	return err
}
