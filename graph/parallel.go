package graph

import (
	"context"
	"fmt"
	"sync"
)

// forEachNode runs fn for every position in [0, count). In parallel mode
// each call gets its own goroutine and panics are turned into errors. The
// error returned is the one of the lowest failing position.
func forEachNode(ctx context.Context, count int, parallel bool, fn func(ctx context.Context, i int) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !parallel {
		for i := 0; i < count; i++ {
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	errs := make([]error, count)
	var wg sync.WaitGroup

	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			defer func() {
				if r := recover(); r != nil {
					errs[idx] = fmt.Errorf("panic in node %d: %v", idx, r)
				}
			}()

			errs[idx] = fn(ctx, idx)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("parallel execution failed: %w", err)
		}
	}
	return nil
}
