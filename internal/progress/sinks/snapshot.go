package sinks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wikiharvest/wikiharvest/internal/progress"
)

// Run states reported by the snapshot sink.
const (
	RunStateRunning   = "running"
	RunStateSucceeded = "succeeded"
	RunStateFailed    = "failed"
)

const defaultKeepRuns = 16

// RunSnapshot is the aggregate view of one harvest run. The status server
// serializes it as JSON.
type RunSnapshot struct {
	RunID      string         `json:"run_id"`
	State      string         `json:"state"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Phase      string         `json:"phase,omitempty"`
	PhaseTotal int            `json:"phase_total,omitempty"`
	Categories int            `json:"categories"`
	Processed  map[string]int `json:"processed"`
	Skipped    map[string]int `json:"skipped"`
	Note       string         `json:"note,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (r *RunSnapshot) clone() RunSnapshot {
	out := *r
	out.Processed = make(map[string]int, len(r.Processed))
	for k, v := range r.Processed {
		out.Processed[k] = v
	}
	out.Skipped = make(map[string]int, len(r.Skipped))
	for k, v := range r.Skipped {
		out.Skipped[k] = v
	}
	if r.FinishedAt != nil {
		at := *r.FinishedAt
		out.FinishedAt = &at
	}
	return out
}

// SnapshotSink folds progress events into in-memory run summaries. The status
// server reads them to answer run queries without a durable store. Old runs
// are evicted once the retention limit is reached.
type SnapshotSink struct {
	mu    sync.RWMutex
	runs  map[uuid.UUID]*RunSnapshot
	order []uuid.UUID
	keep  int
}

// NewSnapshotSink constructs a SnapshotSink retaining up to keep runs
// (defaults to 16 when keep is not positive).
func NewSnapshotSink(keep int) *SnapshotSink {
	if keep <= 0 {
		keep = defaultKeepRuns
	}
	return &SnapshotSink{
		runs: make(map[uuid.UUID]*RunSnapshot),
		keep: keep,
	}
}

// Consume folds the batch into per-run snapshots.
func (s *SnapshotSink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, evt := range batch {
		s.apply(evt)
	}
	return nil
}

func (s *SnapshotSink) apply(evt progress.Event) {
	snap := s.ensure(evt.RunUUID())
	switch evt.Stage {
	case progress.StageRunStart:
		snap.State = RunStateRunning
		snap.StartedAt = evt.TS
	case progress.StageRunDone:
		snap.State = RunStateSucceeded
		at := evt.TS
		snap.FinishedAt = &at
	case progress.StageRunError:
		snap.State = RunStateFailed
		at := evt.TS
		snap.FinishedAt = &at
		snap.Note = evt.Note
	case progress.StagePhaseStart:
		snap.Phase = string(evt.Phase)
		snap.PhaseTotal = evt.Total
	case progress.StagePhaseDone:
		snap.Phase = string(evt.Phase)
	case progress.StageCategoryDone:
		snap.Categories++
	case progress.StageArticleDone:
		snap.Processed[string(evt.Phase)]++
	case progress.StageArticleSkip:
		snap.Skipped[string(evt.Phase)]++
	}
	if evt.TS.After(snap.UpdatedAt) {
		snap.UpdatedAt = evt.TS
	}
}

func (s *SnapshotSink) ensure(id uuid.UUID) *RunSnapshot {
	if snap, ok := s.runs[id]; ok {
		return snap
	}
	snap := &RunSnapshot{
		RunID:     id.String(),
		State:     RunStateRunning,
		Processed: make(map[string]int),
		Skipped:   make(map[string]int),
	}
	s.runs[id] = snap
	s.order = append(s.order, id)
	for len(s.order) > s.keep {
		evicted := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, evicted)
	}
	return snap
}

// Current returns the most recently registered run.
func (s *SnapshotSink) Current() (RunSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return RunSnapshot{}, false
	}
	return s.runs[s.order[len(s.order)-1]].clone(), true
}

// Run returns the snapshot for a specific run ID.
func (s *SnapshotSink) Run(id uuid.UUID) (RunSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.runs[id]
	if !ok {
		return RunSnapshot{}, false
	}
	return snap.clone(), true
}

// Runs returns all retained snapshots ordered oldest first.
func (s *SnapshotSink) Runs() []RunSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RunSnapshot, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.runs[id].clone())
	}
	return out
}

// Close implements the Sink interface; it performs no action.
func (s *SnapshotSink) Close(context.Context) error {
	return nil
}
