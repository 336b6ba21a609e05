// Package enrich runs the pageviews and metadata phases over a crawled
// article list using a bounded worker pool.
package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wikiharvest/wikiharvest/internal/progress"
	"github.com/wikiharvest/wikiharvest/internal/wiki"
)

// ViewsClient fetches yearly pageview totals for one article title.
type ViewsClient interface {
	YearlyViews(ctx context.Context, title, start, end string) (int64, error)
}

// MetaClient fetches structured metadata for one article title.
type MetaClient interface {
	FetchMeta(ctx context.Context, title string) (wiki.ArticleMeta, error)
}

// SkippedArticle records an article dropped from a phase when skipping
// is enabled.
type SkippedArticle struct {
	PageID int64
	Title  string
	Phase  string
	Reason string
}

// Config controls Enricher behavior.
//   - Views/Meta: upstream clients for the two phases.
//   - Concurrency: worker count per phase (default 4).
//   - ContinueOnError: record failed articles as skips instead of
//     aborting the phase.
//   - Start/End: pageviews window bounds in YYYYMMDD form.
//   - RunID/Emitter: optional progress reporting.
type Config struct {
	Views           ViewsClient
	Meta            MetaClient
	Concurrency     int
	ContinueOnError bool
	Start           string
	End             string
	RunID           [16]byte
	Emitter         progress.Emitter
	Logger          *zap.Logger
}

const defaultConcurrency = 4

// Enricher executes the enrichment phases.
type Enricher struct {
	views           ViewsClient
	meta            MetaClient
	concurrency     int
	continueOnError bool
	start           string
	end             string
	runID           [16]byte
	emitter         progress.Emitter
	logger          *zap.Logger
}

// New constructs an Enricher.
func New(cfg Config) *Enricher {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = defaultConcurrency
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		views:           cfg.Views,
		meta:            cfg.Meta,
		concurrency:     cfg.Concurrency,
		continueOnError: cfg.ContinueOnError,
		start:           cfg.Start,
		end:             cfg.End,
		runID:           cfg.RunID,
		emitter:         cfg.Emitter,
		logger:          logger,
	}
}

func (e *Enricher) emit(evt progress.Event) {
	if e.emitter == nil {
		return
	}
	evt.RunID = e.runID
	evt.TS = time.Now().UTC()
	e.emitter.Emit(evt)
}
