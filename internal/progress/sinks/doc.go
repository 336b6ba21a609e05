// Package sinks provides progress.Sink implementations: structured
// logging, Prometheus collectors, an in-memory snapshot consumed by the
// status server, and a terminal progress bar for interactive runs.
package sinks
