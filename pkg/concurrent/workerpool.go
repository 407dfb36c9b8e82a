// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package concurrent

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// WorkerPool fans keyed jobs, one per chat server, out over a bounded number of goroutines.
type WorkerPool struct {
	workerCount int
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &WorkerPool{
		workerCount: workerCount,
	}
}

// ForEach runs fn once per key, at most workerCount at a time. A failing key
// does not stop the others. Keys not started before ctx is done fail with the
// context error. Errors are prefixed with their key and joined in key order.
func (wp *WorkerPool) ForEach(ctx context.Context, keys []string, fn func(ctx context.Context, key string) error) error {
	if len(keys) == 0 {
		return nil
	}

	errs := make([]error, len(keys))
	g := new(errgroup.Group)
	g.SetLimit(wp.workerCount)

	for i, key := range keys {
		g.Go(func() error {
			err := ctx.Err()
			if err == nil {
				err = fn(ctx, key)
			}
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", key, err)
			}
			// Never fail the group, so one key cannot cancel the rest.
			return nil
		})
	}

	_ = g.Wait()
	return errors.Join(errs...)
}
