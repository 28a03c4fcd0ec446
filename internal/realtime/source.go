// Package realtime produces synthetic chart updates for demos and load tests.
package realtime

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/gammazero/deque"

	"livechart/internal/stream"
)

// DefaultWindow is the number of recent values averaged into y1.
const DefaultWindow = 10

// RandomSource emits a uniform random value in [0, 100) as y0 and the
// running average of the last Window values as y1.
type RandomSource struct {
	chartID string
	msgType string
	window  int

	mu     sync.Mutex
	rng    *rand.Rand
	recent deque.Deque[float64]
	lastX  int64
	now    func() time.Time
}

// NewRandomSource creates a source for chartID. A non-positive window falls
// back to DefaultWindow.
func NewRandomSource(chartID, msgType string, window int, seed int64) *RandomSource {
	if window <= 0 {
		window = DefaultWindow
	}
	return &RandomSource{
		chartID: chartID,
		msgType: msgType,
		window:  window,
		rng:     rand.New(rand.NewSource(seed)),
		now:     time.Now,
	}
}

// Next draws a value and returns the envelope carrying it. Timestamps never
// go backwards, even if the wall clock does.
func (s *RandomSource) Next() (stream.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value := round2(s.rng.Float64() * 100)
	s.recent.PushBack(value)
	for s.recent.Len() > s.window {
		s.recent.PopFront()
	}

	x := s.now().UnixMilli()
	if x < s.lastX {
		x = s.lastX
	}
	s.lastX = x

	payload, err := json.Marshal(stream.Message{
		Name: s.chartID,
		X:    stream.NumberInt(x),
		Y0:   stream.NumberFloat(value),
		Y1:   stream.NumberFloat(round2(s.average())),
	})
	if err != nil {
		return stream.Envelope{}, fmt.Errorf("failed to encode %s message: %w", s.msgType, err)
	}
	return stream.Envelope{Type: s.msgType, Message: payload}, nil
}

// Emit draws one value and hands it to sink.
func (s *RandomSource) Emit(sink func(stream.Envelope) bool) error {
	env, err := s.Next()
	if err != nil {
		return err
	}
	sink(env)
	return nil
}

func (s *RandomSource) average() float64 {
	n := s.recent.Len()
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += s.recent.At(i)
	}
	return sum / float64(n)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
