package workset

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptySetCompletesImmediately(t *testing.T) {
	for _, dop := range []int{0, 1, 4} {
		t.Run(fmt.Sprintf("dop=%d", dop), func(t *testing.T) {
			s := New[string, int](context.Background(), dop)
			require.NoError(t, s.WaitForAll())
			assert.Empty(t, s.CompletedWork())
			assert.True(t, s.IsCompleted())
		})
	}
}

func TestDistinctKeysAllComplete(t *testing.T) {
	const n = 50
	for _, dop := range []int{0, 1, 8} {
		t.Run(fmt.Sprintf("dop=%d", dop), func(t *testing.T) {
			s := New[int, int](context.Background(), dop)
			for i := 0; i < n; i++ {
				i := i
				s.AddWork(i, func() (int, error) { return i * 2, nil })
			}
			require.NoError(t, s.WaitForAll())

			done := s.CompletedWork()
			require.Len(t, done, n)
			for i := 0; i < n; i++ {
				assert.Equal(t, i*2, done[i])
			}
		})
	}
}

func TestDuplicateKeyRunsOnce(t *testing.T) {
	for _, dop := range []int{0, 1, 8} {
		t.Run(fmt.Sprintf("dop=%d", dop), func(t *testing.T) {
			var runs atomic.Int32
			s := New[string, int](context.Background(), dop)
			for i := 0; i < 10; i++ {
				s.AddWork("same", func() (int, error) {
					return int(runs.Add(1)), nil
				})
			}
			require.NoError(t, s.WaitForAll())

			assert.Equal(t, int32(1), runs.Load())
			assert.Len(t, s.CompletedWork(), 1)
		})
	}
}

func TestRecursiveAddWork(t *testing.T) {
	for _, dop := range []int{0, 1, 4} {
		t.Run(fmt.Sprintf("dop=%d", dop), func(t *testing.T) {
			s := New[int, int](context.Background(), dop)
			const depth = 500

			var schedule func(i int)
			schedule = func(i int) {
				s.AddWork(i, func() (int, error) {
					if i+1 < depth {
						schedule(i + 1)
					}
					return i, nil
				})
			}
			schedule(0)
			require.NoError(t, s.WaitForAll())

			done := s.CompletedWork()
			require.Len(t, done, depth)
			assert.Equal(t, 123, done[123])
		})
	}
}

func TestSelfReferentialKeyDoesNotDeadlock(t *testing.T) {
	for _, dop := range []int{0, 2} {
		t.Run(fmt.Sprintf("dop=%d", dop), func(t *testing.T) {
			var runs atomic.Int32
			s := New[string, bool](context.Background(), dop)
			s.AddWork("a", func() (bool, error) {
				runs.Add(1)
				// Cyclic-looking re-registration of an in-flight key.
				s.AddWork("a", func() (bool, error) {
					runs.Add(1)
					return false, nil
				})
				s.AddWork("b", func() (bool, error) {
					s.AddWork("a", func() (bool, error) { return false, nil })
					return true, nil
				})
				return true, nil
			})
			require.NoError(t, s.WaitForAll())

			assert.Equal(t, int32(1), runs.Load())
			assert.Len(t, s.CompletedWork(), 2)
		})
	}
}

func TestErrorAggregation(t *testing.T) {
	errA := errors.New("boom a")
	errB := errors.New("boom b")
	errC := errors.New("boom c")

	for _, dop := range []int{0, 4} {
		t.Run(fmt.Sprintf("dop=%d", dop), func(t *testing.T) {
			s := New[string, int](context.Background(), dop)
			s.AddWork("a", func() (int, error) { return 0, errA })
			s.AddWork("b", func() (int, error) { return 0, errB })
			s.AddWork("c", func() (int, error) { return 0, errC })
			s.AddWork("ok", func() (int, error) { return 42, nil })

			err := s.WaitForAll()
			require.Error(t, err)

			agg, ok := IsAggregate(err)
			require.True(t, ok)
			assert.Len(t, agg.Errs, 3)
			assert.ErrorIs(t, err, errA)
			assert.ErrorIs(t, err, errB)
			assert.ErrorIs(t, err, errC)

			// Partial results stay queryable after failure.
			assert.Equal(t, map[string]int{"ok": 42}, s.CompletedWork())
		})
	}
}

func TestFailingItemDoesNotStopSiblings(t *testing.T) {
	var runs atomic.Int32
	s := New[int, int](context.Background(), 2)
	for i := 0; i < 20; i++ {
		i := i
		s.AddWork(i, func() (int, error) {
			runs.Add(1)
			if i == 0 {
				return 0, errors.New("first item fails")
			}
			return i, nil
		})
	}
	err := s.WaitForAll()
	require.Error(t, err)
	assert.Equal(t, int32(20), runs.Load())
	assert.Len(t, s.CompletedWork(), 19)
}

func TestCancellationSurfacesToWaiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New[int, int](ctx, 2)

	started := make(chan struct{})
	s.AddWork(0, func() (int, error) {
		close(started)
		time.Sleep(20 * time.Millisecond)
		return 0, nil
	})
	for i := 1; i < 100; i++ {
		i := i
		s.AddWork(i, func() (int, error) { return i, nil })
	}

	<-started
	cancel()

	err := s.WaitForAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, s.IsCompleted())
}

func TestAddWorkAfterCompletionIsNoOp(t *testing.T) {
	s := New[string, int](context.Background(), 0)
	s.AddWork("a", func() (int, error) { return 1, nil })
	require.NoError(t, s.WaitForAll())

	s.AddWork("b", func() (int, error) { return 2, nil })
	assert.Len(t, s.CompletedWork(), 1)
}
