// Package system provides the wall clock used for run timestamps.
package system

import "time"

// Clock reads the system time.
type Clock struct{}

// New returns a Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC. Run summaries and progress
// events always carry UTC timestamps.
func (c *Clock) Now() time.Time {
	return time.Now().UTC()
}
