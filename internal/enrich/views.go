package enrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wikiharvest/wikiharvest/internal/progress"
	"github.com/wikiharvest/wikiharvest/internal/wiki"
)

// Views fetches yearly pageview totals for every article. Results keep
// the input order. When skipping is enabled, articles whose lookups fail
// are returned separately instead of aborting the phase.
func (e *Enricher) Views(ctx context.Context, refs []wiki.ArticleRef) ([]wiki.PageviewTotal, []SkippedArticle, error) {
	e.emit(progress.Event{Stage: progress.StagePhaseStart, Phase: progress.PhaseViews, Total: len(refs)})

	totals := make([]*wiki.PageviewTotal, len(refs))
	skips := make([]*SkippedArticle, len(refs))
	var mu sync.Mutex

	err := forEach(ctx, len(refs), e.concurrency, func(ctx context.Context, idx int) error {
		ref := refs[idx]
		began := time.Now()
		views, err := e.views.YearlyViews(ctx, ref.Title, e.start, e.end)
		if err != nil {
			if !e.continueOnError || ctx.Err() != nil {
				return fmt.Errorf("views for %q: %w", ref.Title, err)
			}
			e.logger.Warn("skipping article in views phase",
				zap.String("title", ref.Title),
				zap.Int64("pageid", ref.PageID),
				zap.Error(err),
			)
			mu.Lock()
			skips[idx] = &SkippedArticle{
				PageID: ref.PageID,
				Title:  ref.Title,
				Phase:  string(progress.PhaseViews),
				Reason: err.Error(),
			}
			mu.Unlock()
			e.emit(progress.Event{
				Stage: progress.StageArticleSkip,
				Phase: progress.PhaseViews,
				Name:  ref.Title,
				Note:  err.Error(),
			})
			return nil
		}
		mu.Lock()
		totals[idx] = &wiki.PageviewTotal{ArticleRef: ref, YearlyViews: views}
		mu.Unlock()
		e.emit(progress.Event{
			Stage: progress.StageArticleDone,
			Phase: progress.PhaseViews,
			Name:  ref.Title,
			Views: views,
			Dur:   time.Since(began),
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	out := make([]wiki.PageviewTotal, 0, len(refs))
	for _, total := range totals {
		if total != nil {
			out = append(out, *total)
		}
	}
	skipped := collectSkips(skips)
	e.emit(progress.Event{Stage: progress.StagePhaseDone, Phase: progress.PhaseViews})
	return out, skipped, nil
}

func collectSkips(slots []*SkippedArticle) []SkippedArticle {
	var out []SkippedArticle
	for _, skip := range slots {
		if skip != nil {
			out = append(out, *skip)
		}
	}
	return out
}
