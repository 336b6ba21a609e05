package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/wikiharvest/wikiharvest/internal/progress"
)

// TestPrometheusSinkRecordsMetrics ensures counters and histograms are incremented from events.
func TestPrometheusSinkRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := progress.UUIDToBytes(uuid.New())
	batch := []progress.Event{
		{RunID: runID, TS: time.Now(), Stage: progress.StageRunStart},
		{
			RunID:   runID,
			TS:      time.Now().Add(time.Second),
			Stage:   progress.StageCategoryDone,
			Name:    "Category:Compilers",
			Pages:   12,
			Subcats: 3,
		},
		{
			RunID: runID,
			TS:    time.Now().Add(2 * time.Second),
			Stage: progress.StageArticleDone,
			Phase: progress.PhaseViews,
			Name:  "LLVM",
			Views: 54100,
			Dur:   120 * time.Millisecond,
		},
		{
			RunID: runID,
			TS:    time.Now().Add(3 * time.Second),
			Stage: progress.StageArticleSkip,
			Phase: progress.PhaseMeta,
			Name:  "Obscure article",
			Note:  "not found",
		},
		{RunID: runID, TS: time.Now().Add(15 * time.Second), Stage: progress.StageRunDone, Dur: 15 * time.Second},
	}

	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("success")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("error")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsRunning))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.categoriesCrawled))
	require.InDelta(
		t,
		1.0,
		testutil.ToFloat64(sink.articlesProcessed.WithLabelValues(string(progress.PhaseViews))),
		1e-9,
	)
	require.InDelta(
		t,
		1.0,
		testutil.ToFloat64(sink.articlesSkipped.WithLabelValues(string(progress.PhaseMeta))),
		1e-9,
	)
	require.Equal(t, 1, testutil.CollectAndCount(sink.articleDuration, "wikiharvest_article_duration_seconds"))
}

// TestPrometheusSinkRunGauge verifies duplicate start events do not double count running runs.
func TestPrometheusSinkRunGauge(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := progress.UUIDToBytes(uuid.New())
	start := progress.Event{RunID: runID, TS: time.Now(), Stage: progress.StageRunStart}

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{start, start}))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsRunning))

	fail := progress.Event{RunID: runID, TS: time.Now(), Stage: progress.StageRunError, Dur: time.Second}
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{fail}))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsRunning))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("error")))
}
