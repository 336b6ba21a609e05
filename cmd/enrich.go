package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wikiharvest/wikiharvest/internal/app"
	"github.com/wikiharvest/wikiharvest/internal/dataset"
	"github.com/wikiharvest/wikiharvest/internal/enrich"
	"github.com/wikiharvest/wikiharvest/internal/wiki"
)

func newEnrichCmd() *cobra.Command {
	var (
		output            string
		writeIntermediate bool
		continueOnError   bool
		start             string
		end               string
	)
	cmd := &cobra.Command{
		Use:   "enrich <articles.csv>",
		Short: "Fetch views and metadata, then join into a ranked dataset",
		Long: `Runs the full enrichment pipeline over an articles CSV: a views
phase, a metadata phase, and a join that ranks articles by views. The
combined CSV is never overwritten; delete it first to re-run. With
--continue-on-error, articles whose lookups fail are recorded in a skipped
CSV instead of aborting the run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrich(cmd, args[0], output, start, end, writeIntermediate, continueOnError, cmd.Flags().Changed("continue-on-error"))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "",
		"combined CSV path (default <stem>_combined.csv next to the input)")
	cmd.Flags().BoolVar(&writeIntermediate, "write-intermediate", false,
		"also write the views and metadata CSVs")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false,
		"skip articles whose lookups fail instead of aborting")
	cmd.Flags().StringVar(&start, "start", "",
		"window start, YYYYMMDD (default pageviews.start)")
	cmd.Flags().StringVar(&end, "end", "",
		"window end, YYYYMMDD (default pageviews.end)")
	return cmd
}

func runEnrich(cmd *cobra.Command, input, output, start, end string, writeIntermediate, continueOnError, continueFlagSet bool) error {
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
	if !continueFlagSet {
		continueOnError = cfg.Harvest.ContinueOnError
	}
	paths := dataset.Outputs(input)
	if output == "" {
		output = paths.Combined
	}

	if err := dataset.EnsureAbsent(output); err != nil {
		return err
	}
	refs, err := dataset.ReadArticles(input)
	if err != nil {
		return err
	}

	run, err := application.StartRun("enrich")
	if err != nil {
		return err
	}
	err = enrichArticles(cmd, application, run, refs, enrichOptions{
		combined:          output,
		paths:             paths,
		start:             start,
		end:               end,
		writeIntermediate: writeIntermediate,
		continueOnError:   continueOnError,
	})
	run.Finish(cmd.Context(), err)
	return err
}

type enrichOptions struct {
	combined          string
	paths             dataset.OutputPaths
	start             string
	end               string
	writeIntermediate bool
	continueOnError   bool
}

func enrichArticles(cmd *cobra.Command, application *app.App, run *app.Run, refs []wiki.ArticleRef, opts enrichOptions) error {
	ctx := cmd.Context()
	enricher := newEnricher(application, run, opts.start, opts.end, opts.continueOnError)

	totals, viewSkips, err := enricher.Views(ctx, refs)
	if err != nil {
		return err
	}
	metas, metaSkips, err := enricher.Meta(ctx, survivors(totals))
	if err != nil {
		return err
	}
	records := enrich.Assemble(totals, metas)

	if opts.writeIntermediate {
		if err := dataset.WriteViews(opts.paths.Views, totals); err != nil {
			return err
		}
		if err := run.RecordOutput(opts.paths.Views, len(totals)); err != nil {
			return err
		}
		if err := dataset.WriteMeta(opts.paths.Meta, metas); err != nil {
			return err
		}
		if err := run.RecordOutput(opts.paths.Meta, len(metas)); err != nil {
			return err
		}
	}

	if err := dataset.WriteCombined(opts.combined, records); err != nil {
		return err
	}
	if err := run.RecordOutput(opts.combined, len(records)); err != nil {
		return err
	}
	if err := recordSkips(run, opts.paths.Skipped, append(viewSkips, metaSkips...)); err != nil {
		return err
	}

	if err := application.Store().SaveCombined(ctx, run.ID(), records); err != nil {
		return fmt.Errorf("mirror combined dataset: %w", err)
	}

	application.Logger().Info("enrich finished",
		zap.Int("articles", len(records)),
		zap.Int("skipped", len(viewSkips)+len(metaSkips)),
		zap.String("output", opts.combined))
	return nil
}

// newEnricher wires both upstream clients into an Enricher reporting to
// the given run.
func newEnricher(application *app.App, run *app.Run, start, end string, continueOnError bool) *enrich.Enricher {
	cfg := application.Config()
	return enrich.New(enrich.Config{
		Views:           application.Pageviews(),
		Meta:            application.Wiki(),
		Concurrency:     cfg.Harvest.Concurrency,
		ContinueOnError: continueOnError,
		Start:           start,
		End:             end,
		RunID:           run.RawID(),
		Emitter:         run.Emitter(),
		Logger:          application.Logger().Named("enrich"),
	})
}

// survivors lists the articles that made it through the views phase, so
// the metadata phase does not fetch for already-skipped titles.
func survivors(totals []wiki.PageviewTotal) []wiki.ArticleRef {
	refs := make([]wiki.ArticleRef, len(totals))
	for i, total := range totals {
		refs[i] = total.ArticleRef
	}
	return refs
}

// recordSkips writes the skipped-articles CSV when a run skipped anything
// and registers it as a run output.
func recordSkips(run *app.Run, path string, skips []enrich.SkippedArticle) error {
	if len(skips) == 0 {
		return nil
	}
	if err := dataset.WriteSkipped(path, skips); err != nil {
		return err
	}
	if err := run.RecordOutput(path, len(skips)); err != nil {
		return err
	}
	run.AddSkipped(len(skips))
	return nil
}
