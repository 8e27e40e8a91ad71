// Package jobs runs periodic maintenance in the background of motoragd.
package jobs

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultPollInterval replaces a non-positive interval given to NewWorker.
const DefaultPollInterval = time.Hour

// JobProcessor runs one pass of a periodic job
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Option configures a Worker.
type Option func(*Worker)

// WithRunOnStart runs one pass as soon as the worker starts instead of
// waiting a full interval.
func WithRunOnStart() Option {
	return func(w *Worker) { w.runOnStart = true }
}

// WithPassTimeout bounds each pass. Zero leaves passes unbounded.
func WithPassTimeout(d time.Duration) Option {
	return func(w *Worker) { w.passTimeout = d }
}

// Worker runs a JobProcessor on a fixed interval until stopped. Its
// goroutine never holds the process open: returning from main ends it.
type Worker struct {
	name         string
	processor    JobProcessor
	pollInterval time.Duration
	runOnStart   bool
	passTimeout  time.Duration

	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewWorker(name string, processor JobProcessor, pollInterval time.Duration, opts ...Option) *Worker {
	if pollInterval <= 0 {
		log.Printf("%s worker: invalid poll interval %v, using %v", name, pollInterval, DefaultPollInterval)
		pollInterval = DefaultPollInterval
	}
	w := &Worker{
		name:         name,
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start runs the polling loop and blocks until ctx is cancelled or Stop is
// called.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.doneChan)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	log.Printf("%s worker started with poll interval: %v", w.name, w.pollInterval)

	if w.runOnStart {
		w.runPass(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("%s worker stopped: context cancelled", w.name)
			return
		case <-w.stopChan:
			log.Printf("%s worker stopped: stop signal received", w.name)
			return
		case <-ticker.C:
			w.runPass(ctx)
		}
	}
}

func (w *Worker) runPass(ctx context.Context) {
	if w.passTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.passTimeout)
		defer cancel()
	}
	// A failed pass is retried on the next tick.
	if err := w.processor.ProcessJobs(ctx); err != nil {
		log.Printf("%s worker: %v", w.name, err)
	}
}

// Stop signals the loop and waits for the current pass to finish. It is
// safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		<-w.doneChan
		log.Printf("%s worker shutdown complete", w.name)
	})
}
