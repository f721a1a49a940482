// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package concurrent provides a bounded worker pool on top of errgroup.
package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WorkerPool runs jobs with at most workerCount of them in flight.
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

// Size returns the number of workers.
func (wp *WorkerPool) Size() int {
	return wp.workerCount
}

// Run executes all functions and returns the first error encountered.
// Jobs that have not started when the first error happens are skipped.
func (wp *WorkerPool) Run(ctx context.Context, functions ...func() error) error {
	if len(functions) == 0 {
		return nil
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(wp.workerCount)

	for _, fn := range functions {
		g.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			return fn()
		})
	}

	return g.Wait()
}

// Collect calls fn for every index in [0, n) on the pool and returns the
// results in index order. The first error cancels the remaining calls.
func Collect[T any](ctx context.Context, wp *WorkerPool, n int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	results := make([]T, n)
	if n == 0 {
		return results, nil
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(wp.workerCount)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			v, err := fn(groupCtx, i)
			if err != nil {
				return err
			}
			// each goroutine writes its own slot
			results[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
