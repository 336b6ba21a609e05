// Package notify publishes run completion summaries to a message broker.
package notify

import "context"

// Notifier publishes one message and returns the broker-assigned ID.
type Notifier interface {
	Publish(ctx context.Context, topic string, payload any, attrs map[string]string) (string, error)
}

// Noop drops notifications. It serves runs with notification disabled.
type Noop struct{}

// Publish does nothing and returns an empty ID.
func (Noop) Publish(_ context.Context, _ string, _ any, _ map[string]string) (string, error) {
	return "", nil
}
