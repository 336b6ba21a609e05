package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wikiharvest/wikiharvest/internal/archive"
	"github.com/wikiharvest/wikiharvest/internal/config"
	"github.com/wikiharvest/wikiharvest/internal/progress"
)

// RunSummary describes one finished command run. It is the payload
// published to the notifier on success.
type RunSummary struct {
	RunID      string       `json:"run_id"`
	Command    string       `json:"command"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	DurationMS int64        `json:"duration_ms"`
	Outputs    []OutputFile `json:"outputs,omitempty"`
	Skipped    int          `json:"skipped,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// OutputFile records one file a run wrote, with its content digest and,
// when archiving is configured, the archive location.
type OutputFile struct {
	Path       string `json:"path"`
	Rows       int    `json:"rows"`
	SHA256     string `json:"sha256"`
	ArchiveURI string `json:"archive_uri,omitempty"`
}

// Run tracks one command execution between StartRun and Finish.
type Run struct {
	app     *App
	id      uuid.UUID
	command string
	started time.Time
	outputs []OutputFile
	skipped int
}

// StartRun assigns a run ID, emits the run start event, and brings up the
// status server when it is enabled. A failure to bind the status port is
// logged but does not abort the run.
func (a *App) StartRun(command string) (*Run, error) {
	id, err := a.idGen.NewRawID()
	if err != nil {
		return nil, fmt.Errorf("assign run id: %w", err)
	}
	if a.statusSrv != nil && !a.statusStarted {
		if err := a.statusSrv.Start(a.cfg.Status.Addr); err != nil {
			a.logger.Warn("status server start failed",
				zap.String("addr", a.cfg.Status.Addr), zap.Error(err))
		} else {
			a.statusStarted = true
		}
	}

	started := a.clock.Now()
	run := &Run{app: a, id: id, command: command, started: started}
	a.hub.Emit(progress.Event{
		RunID: progress.UUIDToBytes(id),
		TS:    started,
		Stage: progress.StageRunStart,
		Name:  command,
	})
	a.logger.Info("run started",
		zap.String("run_id", id.String()),
		zap.String("command", command))
	return run, nil
}

// ID returns the run identifier.
func (r *Run) ID() uuid.UUID {
	return r.id
}

// RawID returns the run identifier as bytes for progress events.
func (r *Run) RawID() [16]byte {
	return progress.UUIDToBytes(r.id)
}

// Emitter returns the progress emitter this run reports to.
func (r *Run) Emitter() progress.Emitter {
	return r.app.hub
}

// AddSkipped adds to the count of articles skipped during the run.
func (r *Run) AddSkipped(n int) {
	r.skipped += n
}

// RecordOutput registers a file the run wrote and digests its content.
func (r *Run) RecordOutput(path string, rows int) error {
	digest, err := r.app.hasher.HashFile(path)
	if err != nil {
		return fmt.Errorf("digest output: %w", err)
	}
	r.outputs = append(r.outputs, OutputFile{Path: path, Rows: rows, SHA256: digest})
	return nil
}

// Finish emits the terminal run event and builds the run summary. On
// success it archives the recorded outputs and publishes the summary;
// failures in either are logged and never fail the run. On error neither
// archiving nor notification happens.
func (r *Run) Finish(ctx context.Context, runErr error) RunSummary {
	finished := r.app.clock.Now()
	elapsed := finished.Sub(r.started)
	summary := RunSummary{
		RunID:      r.id.String(),
		Command:    r.command,
		StartedAt:  r.started,
		FinishedAt: finished,
		DurationMS: elapsed.Milliseconds(),
		Outputs:    append([]OutputFile(nil), r.outputs...),
		Skipped:    r.skipped,
	}

	evt := progress.Event{
		RunID: progress.UUIDToBytes(r.id),
		TS:    finished,
		Stage: progress.StageRunDone,
		Name:  r.command,
		Dur:   elapsed,
	}
	if runErr != nil {
		evt.Stage = progress.StageRunError
		evt.Note = runErr.Error()
		summary.Error = runErr.Error()
	}
	r.app.hub.Emit(evt)

	if runErr != nil {
		r.app.logger.Error("run failed",
			zap.String("run_id", summary.RunID),
			zap.String("command", r.command),
			zap.Duration("duration", elapsed),
			zap.Error(runErr))
		return summary
	}

	r.archiveOutputs(ctx, &summary)
	r.notifyRun(ctx, summary)
	r.app.logger.Info("run complete",
		zap.String("run_id", summary.RunID),
		zap.String("command", r.command),
		zap.Int("outputs", len(summary.Outputs)),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("duration", elapsed))
	return summary
}

func (r *Run) archiveOutputs(ctx context.Context, summary *RunSummary) {
	if r.app.cfg.Archive.Provider == config.ProviderNone || r.app.cfg.Archive.Provider == "" {
		return
	}
	prefix := ""
	if r.app.cfg.Archive.Provider == config.ProviderGCS {
		prefix = r.app.cfg.Archive.GCS.Prefix
	}
	for i := range summary.Outputs {
		out := &summary.Outputs[i]
		objectName := archive.ObjectName(prefix, summary.RunID, filepath.Base(out.Path))
		uri, err := r.putFile(ctx, objectName, out.Path)
		if err != nil {
			r.app.logger.Warn("archive output failed",
				zap.String("path", out.Path), zap.Error(err))
			continue
		}
		out.ArchiveURI = uri
		r.app.logger.Debug("output archived",
			zap.String("path", out.Path), zap.String("uri", uri))
	}
}

func (r *Run) putFile(ctx context.Context, objectName, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open output: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	return r.app.archiver.Put(ctx, objectName, contentTypeFor(path), f)
}

func (r *Run) notifyRun(ctx context.Context, summary RunSummary) {
	if r.app.cfg.Notify.Provider == config.ProviderNone || r.app.cfg.Notify.Provider == "" {
		return
	}
	attrs := map[string]string{
		"run_id":  summary.RunID,
		"command": summary.Command,
	}
	id, err := r.app.notifier.Publish(ctx, r.app.cfg.Notify.PubSub.TopicID, summary, attrs)
	if err != nil {
		r.app.logger.Warn("run notification failed", zap.Error(err))
		return
	}
	r.app.logger.Debug("run notification published", zap.String("message_id", id))
}

func contentTypeFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return "text/csv"
	}
	return "text/plain; charset=utf-8"
}
