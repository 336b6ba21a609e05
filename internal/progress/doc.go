// Package progress provides the event primitives, non-blocking hub, and
// emitter interfaces the harvest stages use to report their progress. Events
// batch on a background goroutine and fan out to pluggable sinks such as the
// structured log, Prometheus collectors, or the terminal progress bar.
package progress
