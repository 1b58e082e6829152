// Package taskqueue applies only the result of the most recently submitted
// asynchronous task.
//
// Tasks are started immediately and run concurrently. Submitting a task
// cancels the context of the previous one, and a generation counter decides at
// completion time whether a result may still be applied: results of
// superseded tasks are dropped without error.
package taskqueue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task produces a value; it should honour ctx cancellation
type Task[T any] func(ctx context.Context) (T, error)

// Queue coordinates latest-wins task submission
type Queue[T any] struct {
	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	closed  bool
	apply   func(T, error)
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// Option configures a Queue
type Option func(*settings)

type settings struct {
	timeout time.Duration
	logger  *zap.Logger
}

// WithTimeout bounds every task. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithLogger logs dropped results at debug level
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// New creates a queue. apply receives the outcome of every task that is
// still the latest when it completes; it may be nil for callers that only use
// Start and Commit.
func New[T any](apply func(T, error), opts ...Option) *Queue[T] {
	s := settings{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	return &Queue[T]{
		apply:   apply,
		timeout: s.timeout,
		logger:  s.logger,
	}
}

// Start registers a new latest generation and returns it with a context that
// is cancelled when a newer generation starts, the timeout elapses or the
// queue is closed.
func (q *Queue[T]) Start(parent context.Context) (uint64, context.Context) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if q.timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, q.timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cancel != nil {
		q.cancel()
	}
	q.gen++
	q.cancel = cancel
	if q.closed {
		cancel()
	}

	return q.gen, ctx
}

// Commit runs fn iff gen is still the latest generation and the queue is
// open. fn runs under the queue lock so commits never interleave.
func (q *Queue[T]) Commit(gen uint64, fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || gen != q.gen {
		q.logger.Debug("dropping superseded result", zap.Uint64("generation", gen), zap.Uint64("latest", q.gen))
		return false
	}
	if fn != nil {
		fn()
	}
	return true
}

// Add starts task in its own goroutine. Its outcome reaches apply only if no
// newer task was added before it completed. It returns the task's generation.
func (q *Queue[T]) Add(ctx context.Context, task Task[T]) uint64 {
	gen, taskCtx := q.Start(ctx)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()

		value, err := task(taskCtx)
		q.Commit(gen, func() {
			if q.apply != nil {
				q.apply(value, err)
			}
		})
	}()

	return gen
}

// IsLatest reports whether gen is the most recent generation
func (q *Queue[T]) IsLatest(gen uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.closed && gen == q.gen
}

// Latest returns the most recent generation, zero before any submission
func (q *Queue[T]) Latest() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.gen
}

// Wait blocks until every task started with Add has returned
func (q *Queue[T]) Wait() {
	q.wg.Wait()
}

// Close cancels the in-flight task and rejects all later commits
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
}
