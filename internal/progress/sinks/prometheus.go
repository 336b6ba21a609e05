package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wikiharvest/wikiharvest/internal/progress"
)

// PrometheusSink exports harvest progress metrics via Prometheus. It owns all
// collectors for runs started/completed/running and per-phase article counters.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runsRunning   prometheus.Gauge
	runDuration   *prometheus.HistogramVec

	categoriesCrawled prometheus.Counter
	articlesProcessed *prometheus.CounterVec
	articlesSkipped   *prometheus.CounterVec
	articleDuration   *prometheus.HistogramVec

	tracker *runTracker
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wikiharvest_runs_started_total",
			Help: "Total harvest runs that have started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wikiharvest_runs_completed_total",
			Help: "Total harvest runs completed partitioned by result.",
		}, []string{"result"}),
		runsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wikiharvest_runs_running",
			Help: "Current number of running harvests.",
		}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wikiharvest_run_duration_seconds",
			Help:    "Wall time per completed run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"result"}),
		categoriesCrawled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wikiharvest_categories_crawled_total",
			Help: "Category listings completed during crawls.",
		}),
		articlesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wikiharvest_articles_processed_total",
			Help: "Articles processed partitioned by phase.",
		}, []string{"phase"}),
		articlesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wikiharvest_articles_skipped_total",
			Help: "Articles skipped partitioned by phase.",
		}, []string{"phase"}),
		articleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wikiharvest_article_duration_seconds",
			Help:    "Per-article processing duration partitioned by phase.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"phase"}),
		tracker: newRunTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runsRunning,
		s.runDuration,
		s.categoriesCrawled,
		s.articlesProcessed,
		s.articlesSkipped,
		s.articleDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch. It is
// safe for concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart, progress.StageRunDone, progress.StageRunError:
		s.handleRunEvent(evt)
	case progress.StageCategoryDone:
		s.categoriesCrawled.Inc()
	case progress.StageArticleDone:
		s.articlesProcessed.WithLabelValues(phaseLabel(evt.Phase)).Inc()
		s.observeArticle(evt)
	case progress.StageArticleSkip:
		s.articlesSkipped.WithLabelValues(phaseLabel(evt.Phase)).Inc()
	}
}

func (s *PrometheusSink) handleRunEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
		if s.tracker.start(evt.RunID) {
			s.runsRunning.Inc()
		}
	case progress.StageRunDone:
		s.runsCompleted.WithLabelValues("success").Inc()
		s.observeRun(evt, "success")
	case progress.StageRunError:
		s.runsCompleted.WithLabelValues("error").Inc()
		s.observeRun(evt, "error")
	}
	if evt.Stage != progress.StageRunStart && s.tracker.complete(evt.RunID) {
		s.runsRunning.Dec()
	}
}

func (s *PrometheusSink) observeRun(evt progress.Event, label string) {
	if evt.Dur > 0 {
		s.runDuration.WithLabelValues(label).Observe(evt.Dur.Seconds())
	}
}

func (s *PrometheusSink) observeArticle(evt progress.Event) {
	if evt.Dur > 0 {
		s.articleDuration.WithLabelValues(phaseLabel(evt.Phase)).Observe(evt.Dur.Seconds())
	}
}

func phaseLabel(phase progress.Phase) string {
	if phase == "" {
		return "unknown"
	}
	return string(phase)
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

type runTracker struct {
	mu      sync.Mutex
	running map[[16]byte]struct{}
}

func newRunTracker() *runTracker {
	return &runTracker{running: make(map[[16]byte]struct{})}
}

func (t *runTracker) start(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		return false
	}
	t.running[id] = struct{}{}
	return true
}

func (t *runTracker) complete(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; !ok {
		return false
	}
	delete(t.running, id)
	return true
}
