// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_Run(t *testing.T) {
	pool := NewWorkerPool(2)

	var counter int64
	functions := []func() error{
		func() error { atomic.AddInt64(&counter, 1); return nil },
		func() error { atomic.AddInt64(&counter, 2); return nil },
		func() error { atomic.AddInt64(&counter, 3); return nil },
	}

	require.NoError(t, pool.Run(context.Background(), functions...))
	assert.Equal(t, int64(6), atomic.LoadInt64(&counter))
}

func TestWorkerPool_RunRespectsLimit(t *testing.T) {
	pool := NewWorkerPool(2)

	var running, peak int64
	job := func() error {
		n := atomic.AddInt64(&running, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&running, -1)
		return nil
	}

	require.NoError(t, pool.Run(context.Background(), job, job, job, job, job))
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
}

func TestWorkerPool_RunReturnsFirstError(t *testing.T) {
	pool := NewWorkerPool(1)
	expected := errors.New("minutes listing failed")

	var ran int64
	err := pool.Run(context.Background(),
		func() error { atomic.AddInt64(&ran, 1); return expected },
		func() error { atomic.AddInt64(&ran, 1); return nil },
	)

	assert.ErrorIs(t, err, expected)
	assert.Equal(t, int64(1), atomic.LoadInt64(&ran), "jobs after the failure are skipped")
}

func TestWorkerPool_RunEmpty(t *testing.T) {
	assert.NoError(t, NewWorkerPool(3).Run(context.Background()))
}

func TestWorkerPool_RunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int64
	err := NewWorkerPool(2).Run(ctx, func() error { atomic.AddInt64(&ran, 1); return nil })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, atomic.LoadInt64(&ran))
}

func TestCollect_KeepsOrder(t *testing.T) {
	pool := NewWorkerPool(4)
	keys := []string{"m-1", "m-2", "m-3", "m-4", "m-5"}

	values, err := Collect(context.Background(), pool, len(keys), func(_ context.Context, i int) (string, error) {
		time.Sleep(time.Duration(len(keys)-i) * time.Millisecond)
		return "value-" + keys[i], nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"value-m-1", "value-m-2", "value-m-3", "value-m-4", "value-m-5"}, values)
}

func TestCollect_Error(t *testing.T) {
	expected := errors.New("kv get failed")

	values, err := Collect(context.Background(), NewWorkerPool(2), 3, func(_ context.Context, i int) (int, error) {
		if i == 1 {
			return 0, expected
		}
		return i, nil
	})

	assert.ErrorIs(t, err, expected)
	assert.Nil(t, values)
}

func TestCollect_Empty(t *testing.T) {
	values, err := Collect(context.Background(), NewWorkerPool(2), 0, func(context.Context, int) (int, error) {
		return 0, errors.New("never called")
	})
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestNewWorkerPool_InvalidWorkerCount(t *testing.T) {
	assert.Equal(t, 1, NewWorkerPool(0).Size())
	assert.Equal(t, 1, NewWorkerPool(-3).Size())
	assert.Equal(t, 5, NewWorkerPool(5).Size())
}
