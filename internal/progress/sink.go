package progress

import "context"

// Sink consumes batches of progress events.
//
// Consume receives events in emission order. Implementations should
// treat the batch slice as borrowed and must not retain it after
// returning. Close flushes whatever the sink buffers and releases its
// resources.
type Sink interface {
	Consume(ctx context.Context, batch []Event) error
	Close(ctx context.Context) error
}

// Emitter is the narrow interface producers use to report progress.
type Emitter interface {
	Emit(evt Event)
}
