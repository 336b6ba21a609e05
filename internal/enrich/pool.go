package enrich

import (
	"context"
	"fmt"
	"sync"
)

// forEach dispatches indices 0..total-1 to a pool of workers and blocks
// until all complete. The first worker error cancels the pool and is
// returned; remaining queued indices are drained without running.
func forEach(ctx context.Context, total, workers int, fn func(ctx context.Context, idx int) error) error {
	if total == 0 {
		return nil
	}
	if workers > total {
		workers = total
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					continue
				}
				if err := fn(ctx, idx); err != nil {
					fail(err)
				}
			}
		}()
	}

feed:
	for i := 0; i < total; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("enrich canceled: %w", err)
	}
	return nil
}
