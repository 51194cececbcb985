package parallel

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForEachRunsEveryIndex(t *testing.T) {
	p := New(4)
	defer p.Close()

	const n = 1000
	var hits [n]atomic.Int32
	err := p.ForEach(context.Background(), n, func(i int) {
		hits[i].Add(1)
	})
	require.NoError(t, err)
	for i := range hits {
		require.Equal(t, int32(1), hits[i].Load(), "index %d", i)
	}
}

func TestForEachCanceledContext(t *testing.T) {
	p := New(2)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int32
	err := p.ForEach(ctx, 100, func(i int) { ran.Add(1) })
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, ran.Load())
}

func TestForEachEmpty(t *testing.T) {
	p := New(2)
	defer p.Close()
	require.NoError(t, p.ForEach(context.Background(), 0, func(int) {
		t.Fatal("must not run")
	}))
}

func TestClosedPoolRunsInline(t *testing.T) {
	p := New(2)
	p.Close()

	var ran atomic.Int32
	err := p.ForEach(context.Background(), 10, func(i int) { ran.Add(1) })
	require.NoError(t, err)
	require.Equal(t, int32(10), ran.Load())
}

func TestWorkersDefault(t *testing.T) {
	p := New(0)
	defer p.Close()
	require.Greater(t, p.Workers(), 0)

	p3 := New(3)
	defer p3.Close()
	require.Equal(t, 3, p3.Workers())
}

func TestCloseIdempotent(t *testing.T) {
	p := New(2)
	p.Close()
	p.Close()
}

// Closing while a ForEach is mid-submission must neither strand a job
// in a drained queue nor drop an index: every job runs on a worker,
// in the close-time flush, or inline in the submitter.
func TestCloseDuringForEach(t *testing.T) {
	for i := 0; i < 50; i++ {
		p := New(4)

		const n = 200
		var ran atomic.Int64
		done := make(chan error, 1)
		go func() {
			done <- p.ForEach(context.Background(), n, func(i int) {
				ran.Add(1)
			})
		}()
		p.Close()
		require.NoError(t, <-done)
		require.Equal(t, int64(n), ran.Load())
	}
}

func TestConcurrentForEach(t *testing.T) {
	p := New(4)
	defer p.Close()

	var total atomic.Int64
	done := make(chan error, 3)
	for g := 0; g < 3; g++ {
		go func() {
			done <- p.ForEach(context.Background(), 200, func(i int) {
				total.Add(1)
			})
		}()
	}
	for g := 0; g < 3; g++ {
		require.NoError(t, <-done)
	}
	require.Equal(t, int64(600), total.Load())
}
