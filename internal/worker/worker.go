// Package worker runs inbound chart messages on a single event-loop goroutine.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"livechart/internal/logging"
	"livechart/internal/stream"
	"livechart/internal/telemetry"
)

// ErrStopped is returned by Do after Stop.
var ErrStopped = errors.New("worker stopped")

// DefaultQueueSize is the envelope queue capacity used when none is given.
const DefaultQueueSize = 256

type job struct {
	env  stream.Envelope
	fn   func()
	done chan struct{}
}

// Worker serializes every chart mutation and read onto one goroutine, in
// delivery order.
type Worker struct {
	dispatcher *stream.Dispatcher
	reporter   stream.Reporter
	jobQueue   chan job
	workerWg   sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	mu      sync.RWMutex
	stopped bool
}

// New creates a Worker that dispatches through d and reports drops to r.
func New(d *stream.Dispatcher, r stream.Reporter, queueSize int) *Worker {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		dispatcher: d,
		reporter:   r,
		jobQueue:   make(chan job, queueSize),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the event loop
func (w *Worker) Start() {
	w.workerWg.Add(1)
	go w.loop()
}

// Stop rejects new work, drains what is queued and waits for the loop to exit.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.jobQueue)
	w.mu.Unlock()

	w.workerWg.Wait()
	w.cancelFunc()
}

// Enqueue adds env to the queue without blocking. A full queue drops the
// envelope and reports it.
func (w *Worker) Enqueue(env stream.Envelope) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		w.report(env, fmt.Errorf("%w: worker stopped", stream.ErrQueueFull))
		return false
	}

	select {
	case w.jobQueue <- job{env: env}:
		return true
	default:
		w.report(env, fmt.Errorf("%w: dropping %s message", stream.ErrQueueFull, env.Type))
		return false
	}
}

// Do runs fn on the event loop and waits for it to finish.
func (w *Worker) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})

	w.mu.RLock()
	if w.stopped {
		w.mu.RUnlock()
		return ErrStopped
	}
	select {
	case w.jobQueue <- job{fn: fn, done: done}:
		w.mu.RUnlock()
	case <-ctx.Done():
		w.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.workerWg.Done()
	logging.Debug("Event loop started")

	for j := range w.jobQueue {
		if j.fn != nil {
			w.run(j)
			continue
		}
		w.process(j.env)
	}

	logging.Debug("Event loop stopped")
}

func (w *Worker) run(j job) {
	defer close(j.done)
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Event loop task panicked: %v", r)
		}
	}()
	j.fn()
}

func (w *Worker) process(env stream.Envelope) {
	ctx, span := telemetry.StartSpan(w.ctx, "stream.dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("message.type", env.Type))

	if err := w.dispatcher.Dispatch(ctx, env); err != nil {
		kind := stream.KindOf(err)
		span.SetAttributes(
			attribute.String("message.outcome", kind),
			attribute.String("chart.name", stream.ChartOf(err)),
		)
		span.SetStatus(codes.Error, err.Error())
		w.report(env, err)
		return
	}
	span.SetAttributes(attribute.String("message.outcome", "applied"))
}

func (w *Worker) report(env stream.Envelope, err error) {
	if w.reporter == nil {
		logging.Warning("Dropped %s message: %v", env.Type, err)
		return
	}
	w.reporter.Report(w.ctx, stream.NewRejection(env, err))
}
