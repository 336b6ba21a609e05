package sinks

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/wikiharvest/wikiharvest/internal/progress"
)

// TerminalSink renders one progress bar per pipeline phase for interactive
// runs. Phases with an unknown unit count get a spinner instead of a bar.
type TerminalSink struct {
	out  io.Writer
	mu   sync.Mutex
	bars map[progress.Phase]*progressbar.ProgressBar
}

// NewTerminalSink constructs a TerminalSink writing to out (defaults to
// stderr when out is nil).
func NewTerminalSink(out io.Writer) *TerminalSink {
	if out == nil {
		out = os.Stderr
	}
	return &TerminalSink{
		out:  out,
		bars: make(map[progress.Phase]*progressbar.ProgressBar),
	}
}

// Consume advances the phase bars from the batch.
func (s *TerminalSink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StagePhaseStart:
			s.bars[evt.Phase] = s.newPhaseBar(evt.Phase, evt.Total)
		case progress.StageCategoryDone:
			s.advance(progress.PhaseCrawl)
		case progress.StageArticleDone, progress.StageArticleSkip:
			s.advance(evt.Phase)
		case progress.StagePhaseDone:
			if bar, ok := s.bars[evt.Phase]; ok {
				_ = bar.Finish()
				delete(s.bars, evt.Phase)
			}
		}
	}
	return nil
}

func (s *TerminalSink) advance(phase progress.Phase) {
	if bar, ok := s.bars[phase]; ok {
		_ = bar.Add(1)
	}
}

func (s *TerminalSink) newPhaseBar(phase progress.Phase, total int) *progressbar.ProgressBar {
	if total <= 0 {
		// progressbar renders a spinner for -1.
		total = -1
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(s.out),
		progressbar.OptionSetDescription(phaseDescription(phase)),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func phaseDescription(phase progress.Phase) string {
	switch phase {
	case progress.PhaseCrawl:
		return "crawling categories"
	case progress.PhaseViews:
		return "fetching pageviews"
	case progress.PhaseMeta:
		return "fetching metadata"
	default:
		return string(phase)
	}
}

// Close finishes any bars still open.
func (s *TerminalSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for phase, bar := range s.bars {
		_ = bar.Finish()
		delete(s.bars, phase)
	}
	return nil
}
