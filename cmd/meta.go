package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wikiharvest/wikiharvest/internal/dataset"
)

func newMetaCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "meta <articles.csv>",
		Short: "Fetch editorial metadata per article",
		Long: `Reads an articles CSV and fetches description, assessment grade,
word count, WikiProject tags, and revision details for each title, writing
a metadata CSV in the same order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeta(cmd, args[0], output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "",
		"output CSV path (default <stem>_meta.csv next to the input)")
	return cmd
}

func runMeta(cmd *cobra.Command, input, output string) error {
	application, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := application.Config()
	paths := dataset.Outputs(input)
	if output == "" {
		output = paths.Meta
	}

	refs, err := dataset.ReadArticles(input)
	if err != nil {
		return err
	}

	run, err := application.StartRun("meta")
	if err != nil {
		return err
	}
	err = func() error {
		enricher := newEnricher(application, run, cfg.Pageviews.Start, cfg.Pageviews.End, cfg.Harvest.ContinueOnError)
		metas, skipped, err := enricher.Meta(cmd.Context(), refs)
		if err != nil {
			return err
		}
		if err := dataset.WriteMeta(output, metas); err != nil {
			return err
		}
		if err := run.RecordOutput(output, len(metas)); err != nil {
			return err
		}
		if err := recordSkips(run, paths.Skipped, skipped); err != nil {
			return err
		}
		application.Logger().Info("meta finished",
			zap.Int("articles", len(metas)),
			zap.Int("skipped", len(skipped)),
			zap.String("output", output))
		return nil
	}()
	run.Finish(cmd.Context(), err)
	return err
}
