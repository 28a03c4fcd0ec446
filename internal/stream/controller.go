// Package stream turns inbound chart messages into series appends and redraws.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"livechart/internal/series"
)

// Phase is the lifecycle position of a chart.
type Phase int

const (
	// PhaseInitialized means the chart holds only placeholder data.
	PhaseInitialized Phase = iota + 1
	// PhaseStreaming means at least one message has been applied.
	PhaseStreaming
)

func (p Phase) String() string {
	switch p {
	case PhaseInitialized:
		return "initialized"
	case PhaseStreaming:
		return "streaming"
	default:
		return "uninitialized"
	}
}

// Options controls chart construction.
type Options struct {
	PlaceholderCount      int
	PlaceholderIntervalMs int64
	PlaceholderValue      float64
	MaxPoints             int
	// Now is read once, at controller construction.
	Now func() time.Time
}

// DefaultOptions returns 20 placeholder points 3 s apart at value 100.
func DefaultOptions() Options {
	return Options{
		PlaceholderCount:      20,
		PlaceholderIntervalMs: 3000,
		PlaceholderValue:      100,
		MaxPoints:             500,
		Now:                   time.Now,
	}
}

// ChartState is the pair of series behind one chart.
type ChartState struct {
	Raw            *series.Buffer
	RunningAverage *series.Buffer
}

// ChartHandle ties a chart id to its state.
type ChartHandle struct {
	ID    string
	State *ChartState
	phase Phase
}

// Phase returns the chart's lifecycle phase
func (h *ChartHandle) Phase() Phase {
	return h.phase
}

// Snapshot is a read-only copy of a chart's series.
type Snapshot struct {
	ID             string          `json:"name"`
	Phase          string          `json:"phase"`
	Raw            []series.Sample `json:"raw"`
	RunningAverage []series.Sample `json:"runningAverage"`
}

// Controller owns every chart and applies inbound messages to them.
// It is not safe for concurrent use; callers serialize access (see worker).
type Controller struct {
	renderer  Renderer
	opts      Options
	createdAt time.Time
	charts    map[string]*ChartHandle
}

// NewController creates a controller that draws through r.
func NewController(r Renderer, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		renderer:  r,
		opts:      opts,
		createdAt: opts.Now(),
		charts:    make(map[string]*ChartHandle),
	}
}

// InitializeChart creates a placeholder-filled chart and mounts it.
func (c *Controller) InitializeChart(chartID string) (*ChartHandle, error) {
	if _, exists := c.charts[chartID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrChartExists, chartID)
	}

	state := &ChartState{
		Raw:            series.NewBuffer(SeriesRaw, c.opts.MaxPoints),
		RunningAverage: series.NewBuffer(SeriesRunningAverage, c.opts.MaxPoints),
	}
	end := c.createdAt.UnixMilli() - c.opts.PlaceholderIntervalMs
	state.Raw.Initialize(c.opts.PlaceholderCount, c.opts.PlaceholderIntervalMs, c.opts.PlaceholderValue, end)
	state.RunningAverage.Initialize(c.opts.PlaceholderCount, c.opts.PlaceholderIntervalMs, c.opts.PlaceholderValue, end)

	if err := c.renderer.Mount(newChartSpec(chartID, state)); err != nil {
		return nil, fmt.Errorf("failed to mount chart %s: %w", chartID, err)
	}

	h := &ChartHandle{ID: chartID, State: state, phase: PhaseInitialized}
	c.charts[chartID] = h
	return h, nil
}

// Chart looks up an initialized chart.
func (c *Controller) Chart(chartID string) (*ChartHandle, bool) {
	h, ok := c.charts[chartID]
	return h, ok
}

// ChartIDs returns the initialized chart ids in sorted order.
func (c *Controller) ChartIDs() []string {
	ids := make([]string, 0, len(c.charts))
	for id := range c.charts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot copies a chart's series.
func (c *Controller) Snapshot(chartID string) (Snapshot, error) {
	h, ok := c.charts[chartID]
	if !ok {
		return Snapshot{}, &MessageError{Chart: chartID, Err: ErrUnknownChart}
	}
	return Snapshot{
		ID:             h.ID,
		Phase:          h.phase.String(),
		Raw:            h.State.Raw.Snapshot(),
		RunningAverage: h.State.RunningAverage.Snapshot(),
	}, nil
}

// Spec returns the mount description of a chart with its current data.
func (c *Controller) Spec(chartID string) (ChartSpec, error) {
	h, ok := c.charts[chartID]
	if !ok {
		return ChartSpec{}, &MessageError{Chart: chartID, Err: ErrUnknownChart}
	}
	return newChartSpec(h.ID, h.State), nil
}

// OnMessage applies one inbound message. On error nothing is appended and
// nothing is drawn.
func (c *Controller) OnMessage(msg Message) error {
	h, ok := c.charts[msg.Name]
	if !ok {
		return &MessageError{Chart: msg.Name, Err: ErrUnknownChart}
	}

	p, err := ParseMessage(msg)
	if err != nil {
		return err
	}

	raw := series.Sample{Timestamp: p.Timestamp, Value: p.Raw}
	avg := series.Sample{Timestamp: p.Timestamp, Value: p.Average}

	// Both checks run before either append so a rejection leaves the pair untouched.
	if err := h.State.Raw.CheckAppend(raw); err != nil {
		return &MessageError{Chart: h.ID, Field: "x", Err: err}
	}
	if err := h.State.RunningAverage.CheckAppend(avg); err != nil {
		return &MessageError{Chart: h.ID, Field: "x", Err: err}
	}
	if _, err := h.State.Raw.Append(raw); err != nil {
		return &MessageError{Chart: h.ID, Field: "x", Err: err}
	}
	if _, err := h.State.RunningAverage.Append(avg); err != nil {
		return &MessageError{Chart: h.ID, Field: "x", Err: err}
	}

	c.renderer.AddPoint(h.ID, SeriesRaw, raw, false)
	c.renderer.AddPoint(h.ID, SeriesRunningAverage, avg, false)
	c.renderer.Redraw(h.ID)

	h.phase = PhaseStreaming
	return nil
}

// Handler decodes a JSON payload and applies it with OnMessage.
func (c *Controller) Handler() HandlerFunc {
	return func(_ context.Context, payload json.RawMessage) error {
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			return &MessageError{Err: fmt.Errorf("%w: %v", ErrMalformedMessage, err)}
		}
		return c.OnMessage(msg)
	}
}
