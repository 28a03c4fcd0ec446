package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"livechart/internal/database"
	"livechart/internal/logging"
	"livechart/internal/stream"
)

// Journal logs every dropped message and persists it to the rejection
// table in the background. It never blocks the event loop: when its buffer
// is full the entry is only logged.
type Journal struct {
	entries chan stream.Rejection
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
	dropped atomic.Int64
}

// NewJournal creates a journal buffering up to size pending writes.
func NewJournal(size int) *Journal {
	if size <= 0 {
		size = journalBuffer
	}
	return &Journal{entries: make(chan stream.Rejection, size)}
}

// Start launches the writer goroutine
func (j *Journal) Start() {
	j.wg.Add(1)
	go j.run()
}

// Stop flushes pending entries and waits for the writer.
func (j *Journal) Stop() {
	j.mu.Lock()
	if j.stopped {
		j.mu.Unlock()
		return
	}
	j.stopped = true
	close(j.entries)
	j.mu.Unlock()

	j.wg.Wait()
}

// Report implements stream.Reporter.
func (j *Journal) Report(ctx context.Context, r stream.Rejection) {
	if r.Chart != "" {
		logging.Warning("Dropped %s message for chart %s (%s): %s", r.MessageType, r.Chart, r.Kind, r.Detail)
	} else {
		logging.Warning("Dropped %s message (%s): %s", r.MessageType, r.Kind, r.Detail)
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.stopped {
		return
	}

	select {
	case j.entries <- r:
	default:
		j.dropped.Add(1)
	}
}

// Dropped returns how many rejections were logged but not persisted.
func (j *Journal) Dropped() int64 {
	return j.dropped.Load()
}

func (j *Journal) run() {
	defer j.wg.Done()
	for r := range j.entries {
		j.store(r)
	}
}

func (j *Journal) store(r stream.Rejection) {
	if database.GetDB() == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := database.StoreRejection(ctx, database.Rejection{
		MessageType: r.MessageType,
		ChartName:   r.Chart,
		Kind:        r.Kind,
		Detail:      r.Detail,
		Payload:     string(r.Payload),
	})
	if err != nil {
		logging.Error("Failed to journal rejected message: %v", err)
	}
}
