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

// Meta fetches structured metadata for every article. Results keep the
// input order. When skipping is enabled, articles whose lookups fail are
// returned separately instead of aborting the phase.
func (e *Enricher) Meta(ctx context.Context, refs []wiki.ArticleRef) ([]wiki.ArticleMeta, []SkippedArticle, error) {
	e.emit(progress.Event{Stage: progress.StagePhaseStart, Phase: progress.PhaseMeta, Total: len(refs)})

	metas := make([]*wiki.ArticleMeta, len(refs))
	skips := make([]*SkippedArticle, len(refs))
	var mu sync.Mutex

	err := forEach(ctx, len(refs), e.concurrency, func(ctx context.Context, idx int) error {
		ref := refs[idx]
		began := time.Now()
		meta, err := e.meta.FetchMeta(ctx, ref.Title)
		if err != nil {
			if !e.continueOnError || ctx.Err() != nil {
				return fmt.Errorf("metadata for %q: %w", ref.Title, err)
			}
			e.logger.Warn("skipping article in meta phase",
				zap.String("title", ref.Title),
				zap.Int64("pageid", ref.PageID),
				zap.Error(err),
			)
			mu.Lock()
			skips[idx] = &SkippedArticle{
				PageID: ref.PageID,
				Title:  ref.Title,
				Phase:  string(progress.PhaseMeta),
				Reason: err.Error(),
			}
			mu.Unlock()
			e.emit(progress.Event{
				Stage: progress.StageArticleSkip,
				Phase: progress.PhaseMeta,
				Name:  ref.Title,
				Note:  err.Error(),
			})
			return nil
		}
		mu.Lock()
		metas[idx] = &meta
		mu.Unlock()
		e.emit(progress.Event{
			Stage: progress.StageArticleDone,
			Phase: progress.PhaseMeta,
			Name:  ref.Title,
			Dur:   time.Since(began),
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	out := make([]wiki.ArticleMeta, 0, len(refs))
	for _, meta := range metas {
		if meta != nil {
			out = append(out, *meta)
		}
	}
	skipped := collectSkips(skips)
	e.emit(progress.Event{Stage: progress.StagePhaseDone, Phase: progress.PhaseMeta})
	return out, skipped, nil
}
