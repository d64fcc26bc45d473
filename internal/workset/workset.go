package workset

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// AggregateError wraps every error captured from failed work items so that a
// single wait call can surface all concurrent failures, not just the first.
type AggregateError struct {
	Errs []error
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return "work set failed with " + strings.Join(msgs, "; ")
}

// Unwrap exposes the underlying errors to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errs
}

// workItem pairs a key with its deferred work function.
type workItem[K comparable, V any] struct {
	key  K
	work func() (V, error)
}

// WorkSet executes keyed units of work, deduplicating by key for the lifetime
// of the instance. See the package documentation for the scheduling contract.
type WorkSet[K comparable, V any] struct {
	ctx context.Context
	dop int

	mu        sync.Mutex
	cond      *sync.Cond
	queue     []workItem[K, V]
	scheduled map[K]struct{}
	completed map[K]V
	failures  map[K]error
	// pending counts queued plus in-flight items; the waiter may only
	// finish once it reaches zero, which covers work that enqueues more
	// work while executing.
	pending   int
	finished  bool
	workersWG sync.WaitGroup
}

// New creates a work set. degreeOfParallelism == 0 runs all work synchronously
// on the goroutine that calls WaitForAll, in the order added; a positive value
// starts that many worker goroutines immediately.
func New[K comparable, V any](ctx context.Context, degreeOfParallelism int) *WorkSet[K, V] {
	if degreeOfParallelism < 0 {
		panic("workset: degree of parallelism must not be negative")
	}
	s := &WorkSet[K, V]{
		ctx:       ctx,
		dop:       degreeOfParallelism,
		scheduled: make(map[K]struct{}),
		completed: make(map[K]V),
		failures:  make(map[K]error),
	}
	s.cond = sync.NewCond(&s.mu)

	for i := 0; i < s.dop; i++ {
		s.workersWG.Add(1)
		go s.worker()
	}
	if s.dop > 0 && ctx.Done() != nil {
		// Wake parked workers and the waiter when the context is canceled;
		// sync.Cond has no native cancellation support.
		go func() {
			<-ctx.Done()
			s.cond.Broadcast()
		}()
	}
	return s
}

// AddWork schedules work under the given key. If the key was ever scheduled
// before on this instance — queued, in flight, or already completed — the call
// is a no-op and the earlier registration wins. Safe to call from any
// goroutine, including from inside a running work function.
func (s *WorkSet[K, V]) AddWork(key K, work func() (V, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return
	}
	if _, seen := s.scheduled[key]; seen {
		return
	}
	s.scheduled[key] = struct{}{}
	s.queue = append(s.queue, workItem[K, V]{key: key, work: work})
	s.pending++
	s.cond.Signal()
}

// WaitForAll blocks the calling goroutine until the queue is empty and all
// in-flight work has completed, then marks the set completed. It returns nil
// when every work item succeeded, the context error on cancellation, or an
// *AggregateError wrapping every captured work error otherwise. Results
// already completed remain queryable through CompletedWork either way.
func (s *WorkSet[K, V]) WaitForAll() error {
	if s.dop == 0 {
		s.runSynchronously()
	} else {
		s.mu.Lock()
		for s.pending > 0 && s.ctx.Err() == nil {
			s.cond.Wait()
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.finished = true
	// Abandon anything still queued (only possible after cancellation).
	s.queue = nil
	s.cond.Broadcast()
	s.mu.Unlock()
	s.workersWG.Wait()

	if err := s.ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(s.failures))
	for _, err := range s.failures {
		errs = append(errs, err)
	}
	return &AggregateError{Errs: errs}
}

// runSynchronously drains the queue on the calling goroutine. Recursively
// added work lands back on the queue and is picked up by this same loop, so
// deep chains cost no call-stack depth.
func (s *WorkSet[K, V]) runSynchronously() {
	for {
		if s.ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		item := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.execute(item)
	}
}

// worker is the processing loop for one concurrent worker goroutine.
func (s *WorkSet[K, V]) worker() {
	defer s.workersWG.Done()
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.finished && s.ctx.Err() == nil {
			s.cond.Wait()
		}
		if s.finished || s.ctx.Err() != nil {
			s.mu.Unlock()
			return
		}
		item := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.execute(item)
	}
}

// execute runs one work item and records its outcome. Errors are captured per
// key rather than propagated, so a failing item never takes down a worker.
func (s *WorkSet[K, V]) execute(item workItem[K, V]) {
	result, err := item.work()

	s.mu.Lock()
	if err != nil {
		s.failures[item.key] = err
	} else {
		s.completed[item.key] = result
	}
	s.pending--
	if s.pending == 0 {
		s.cond.Broadcast()
	}
	s.mu.Unlock()
}

// CompletedWork returns a copy of the results of all successfully completed
// work items keyed by their work key.
func (s *WorkSet[K, V]) CompletedWork() map[K]V {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[K]V, len(s.completed))
	for k, v := range s.completed {
		out[k] = v
	}
	return out
}

// IsCompleted reports whether WaitForAll has finished on this instance.
func (s *WorkSet[K, V]) IsCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// IsAggregate reports whether err is a work-set aggregate error and returns it.
func IsAggregate(err error) (*AggregateError, bool) {
	var agg *AggregateError
	if errors.As(err, &agg) {
		return agg, true
	}
	return nil, false
}
