package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/tiercache/observe"
)

// DefaultWarmConcurrency bounds how many warm tasks run at once.
const DefaultWarmConcurrency = 4

// WarmFunc pre-computes one hot entry, typically by calling a memoized
// operation so its result lands in the cache.
type WarmFunc func(ctx context.Context) error

type warmTask struct {
	name string
	fn   WarmFunc
}

// Warmer pre-populates known hot keys before first real traffic.
//
// Start launches every registered task in the background and returns
// immediately. A failing task is logged and the rest keep going;
// warming is best-effort and the process serves traffic whether or not
// it finished.
type Warmer struct {
	logger observe.Logger
	limit  int

	mu      sync.Mutex
	tasks   []warmTask
	started bool
	wg      sync.WaitGroup
}

// NewWarmer creates a warmer. limit bounds concurrent tasks; <=0 uses
// DefaultWarmConcurrency. A nil logger discards warm logs.
func NewWarmer(logger observe.Logger, limit int) *Warmer {
	if logger == nil {
		logger = observe.NopLogger()
	}
	if limit <= 0 {
		limit = DefaultWarmConcurrency
	}
	return &Warmer{logger: logger, limit: limit}
}

// Register adds a named warm task. Returns ErrWarmerStarted once Start
// has been called.
func (w *Warmer) Register(name string, fn WarmFunc) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrWarmerStarted
	}
	w.tasks = append(w.tasks, warmTask{name: name, fn: fn})
	return nil
}

// Start runs the registered tasks in a background goroutine and
// returns immediately. Calling Start twice is a no-op.
func (w *Warmer) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	tasks := make([]warmTask, len(w.tasks))
	copy(tasks, w.tasks)
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		var g errgroup.Group
		g.SetLimit(w.limit)
		for _, task := range tasks {
			g.Go(func() error {
				// Task failures are contained: log and keep warming.
				if err := task.fn(ctx); err != nil {
					w.logger.Warn(ctx, "cache warm task failed",
						observe.String("task", task.name), observe.Err(err))
				}
				return nil
			})
		}
		_ = g.Wait()

		w.logger.Info(ctx, "cache warming finished", observe.Int("tasks", len(tasks)))
	}()
}

// Wait blocks until warming finishes. Intended for tests and shutdown.
func (w *Warmer) Wait() {
	w.wg.Wait()
}
