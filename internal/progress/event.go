package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart     Stage = "RUN_START"
	StageRunDone      Stage = "RUN_DONE"
	StageRunError     Stage = "RUN_ERROR"
	StagePhaseStart   Stage = "PHASE_START"
	StagePhaseDone    Stage = "PHASE_DONE"
	StageCategoryDone Stage = "CATEGORY_DONE"
	StageArticleDone  Stage = "ARTICLE_DONE"
	StageArticleSkip  Stage = "ARTICLE_SKIP"
)

// Phase names the pipeline stage an event belongs to.
type Phase string

// Pipeline phases.
const (
	PhaseCrawl Phase = "crawl"
	PhaseViews Phase = "views"
	PhaseMeta  Phase = "meta"
)

// Event captures a single milestone of harvest progress.
type Event struct {
	// RunID identifies the run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// Phase scopes phase and article events to a pipeline stage.
	Phase Phase
	// Name is the category or article title the event refers to.
	Name string
	// Total carries the planned unit count for PHASE_START events.
	Total int
	// Pages and Subcats count a category's listings for CATEGORY_DONE.
	Pages   int
	Subcats int
	// Views carries the fetched total for ARTICLE_DONE views events.
	Views int64
	// Dur captures execution latency where the emitter measured one.
	Dur time.Duration
	// Note lets emitters attach low-volume context such as error text.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError:
	case StagePhaseStart, StagePhaseDone:
		if e.Phase == "" {
			return errors.New("phase events require a phase")
		}
	case StageCategoryDone:
		if e.Name == "" {
			return errors.New("category done requires a name")
		}
	case StageArticleDone, StageArticleSkip:
		if e.Phase == "" {
			return errors.New("article events require a phase")
		}
		if e.Name == "" {
			return errors.New("article events require a name")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID form.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
