package system

import (
	"testing"
	"time"
)

func TestNowUTC(t *testing.T) {
	t.Parallel()

	c := New()

	now := c.Now()
	if now.Location() != time.UTC {
		t.Fatalf("Now() location = %v, want UTC", now.Location())
	}
}

func TestNowAdvances(t *testing.T) {
	t.Parallel()

	c := New()

	first := c.Now()
	time.Sleep(5 * time.Millisecond)
	second := c.Now()

	if !second.After(first) {
		t.Fatalf("Now() did not advance: first=%v second=%v", first, second)
	}
}
