// Package series holds the bounded in-memory sample windows behind a live chart.
package series

import (
	"errors"
	"fmt"

	"github.com/gammazero/deque"
)

// ErrOrderingViolation is returned when a sample is older than the newest stored one.
var ErrOrderingViolation = errors.New("ordering violation")

// Sample is a single observation. Timestamp is in epoch milliseconds.
type Sample struct {
	Timestamp int64   `json:"x"`
	Value     float64 `json:"y"`
}

// Buffer is an ordered window of samples for one series.
// Appending to a full buffer evicts the oldest sample.
// A Buffer is not safe for concurrent use.
type Buffer struct {
	name      string
	maxPoints int
	samples   deque.Deque[Sample]
}

// NewBuffer creates an empty buffer. maxPoints <= 0 means unbounded.
func NewBuffer(name string, maxPoints int) *Buffer {
	return &Buffer{
		name:      name,
		maxPoints: maxPoints,
	}
}

// Name returns the series name
func (b *Buffer) Name() string {
	return b.name
}

// Len returns the number of stored samples
func (b *Buffer) Len() int {
	return b.samples.Len()
}

// MaxPoints returns the eviction bound, 0 when unbounded
func (b *Buffer) MaxPoints() int {
	if b.maxPoints < 0 {
		return 0
	}
	return b.maxPoints
}

// Last returns the newest sample
func (b *Buffer) Last() (Sample, bool) {
	if b.samples.Len() == 0 {
		return Sample{}, false
	}
	return b.samples.Back(), true
}

// CheckAppend reports whether s could be appended without breaking time order.
func (b *Buffer) CheckAppend(s Sample) error {
	last, ok := b.Last()
	if ok && s.Timestamp < last.Timestamp {
		return fmt.Errorf("%w: series %s: timestamp %d precedes %d",
			ErrOrderingViolation, b.name, s.Timestamp, last.Timestamp)
	}
	return nil
}

// Append adds s to the end of the buffer, evicting from the front when full.
// It returns the evicted sample count.
func (b *Buffer) Append(s Sample) (int, error) {
	if err := b.CheckAppend(s); err != nil {
		return 0, err
	}
	b.samples.PushBack(s)
	return b.evict(), nil
}

// Initialize replaces the contents with count samples spaced intervalMs apart,
// the last one at endTime, all holding value.
func (b *Buffer) Initialize(count int, intervalMs int64, value float64, endTime int64) {
	b.samples.Clear()
	if count <= 0 {
		return
	}
	start := endTime - int64(count-1)*intervalMs
	for i := 0; i < count; i++ {
		b.samples.PushBack(Sample{
			Timestamp: start + int64(i)*intervalMs,
			Value:     value,
		})
	}
	b.evict()
}

// Snapshot returns a copy of the stored samples, oldest first.
func (b *Buffer) Snapshot() []Sample {
	out := make([]Sample, b.samples.Len())
	for i := range out {
		out[i] = b.samples.At(i)
	}
	return out
}

func (b *Buffer) evict() int {
	if b.maxPoints <= 0 {
		return 0
	}
	n := 0
	for b.samples.Len() > b.maxPoints {
		b.samples.PopFront()
		n++
	}
	return n
}
