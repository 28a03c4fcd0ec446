// Package render implements the chart rendering collaborator over Server-Sent Events.
package render

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"livechart/internal/logging"
	"livechart/internal/series"
	"livechart/internal/stream"
)

// Event types sent to browsers.
const (
	EventMount     = "mount"
	EventRedraw    = "redraw"
	EventHeartbeat = "heartbeat"
)

// ClientBufferSize is the per-client event queue length.
const ClientBufferSize = 64

// Client is one subscribed browser
type Client struct {
	ID       string
	ChartID  string
	Messages chan string
	Close    chan struct{}

	closeOnce sync.Once
}

// NewClient creates a client for chartID with a fresh id.
func NewClient(chartID string) *Client {
	return &Client{
		ID:       uuid.New().String(),
		ChartID:  chartID,
		Messages: make(chan string, ClientBufferSize),
		Close:    make(chan struct{}),
	}
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.Close) })
}

// PointUpdate is one appended point inside a redraw event.
type PointUpdate struct {
	Series    string  `json:"series"`
	Timestamp int64   `json:"x"`
	Value     float64 `json:"y"`
}

type redrawEvent struct {
	Chart     string        `json:"chart"`
	MaxPoints int           `json:"maxPoints"`
	Points    []PointUpdate `json:"points"`
}

var _ stream.Renderer = (*Broadcaster)(nil)

// Broadcaster fans chart updates out to subscribed browsers. Points added
// with redraw=false are held until the next Redraw and then sent as a single
// event, so a browser repaints once per message.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]bool // chartID -> clients
	specs   map[string]stream.ChartSpec
	pending map[string][]PointUpdate
}

// NewBroadcaster creates an empty broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]map[*Client]bool),
		specs:   make(map[string]stream.ChartSpec),
		pending: make(map[string][]PointUpdate),
	}
}

// Mount records the chart and announces it to existing subscribers.
func (b *Broadcaster) Mount(spec stream.ChartSpec) error {
	if spec.ID == "" {
		return fmt.Errorf("chart id must not be empty")
	}
	msg, err := formatEvent(EventMount, spec)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.specs[spec.ID] = spec
	delete(b.pending, spec.ID)
	b.mu.Unlock()

	b.send(spec.ID, msg)
	return nil
}

// AddPoint queues a point, or sends it at once when redraw is true.
func (b *Broadcaster) AddPoint(chartID, seriesName string, s series.Sample, redraw bool) {
	b.mu.Lock()
	b.pending[chartID] = append(b.pending[chartID], PointUpdate{
		Series:    seriesName,
		Timestamp: s.Timestamp,
		Value:     s.Value,
	})
	b.mu.Unlock()

	if redraw {
		b.Redraw(chartID)
	}
}

// Redraw flushes every queued point of chartID as one redraw event.
func (b *Broadcaster) Redraw(chartID string) {
	b.mu.Lock()
	points := b.pending[chartID]
	delete(b.pending, chartID)
	maxPoints := b.specs[chartID].MaxPoints
	b.mu.Unlock()

	if len(points) == 0 {
		return
	}

	msg, err := formatEvent(EventRedraw, redrawEvent{Chart: chartID, MaxPoints: maxPoints, Points: points})
	if err != nil {
		logging.Error("Failed to marshal redraw event for %s: %v", chartID, err)
		return
	}
	b.send(chartID, msg)
}

// Pending returns the number of points waiting for a redraw
func (b *Broadcaster) Pending(chartID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.pending[chartID])
}

// Attach registers client and queues a mount event carrying spec, which
// should hold the chart's current data. Callers run Attach on the same
// goroutine that drives AddPoint/Redraw so no update falls between the two.
func (b *Broadcaster) Attach(client *Client, spec stream.ChartSpec) error {
	msg, err := formatEvent(EventMount, spec)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.clients[client.ChartID] == nil {
		b.clients[client.ChartID] = make(map[*Client]bool)
	}
	b.clients[client.ChartID][client] = true

	select {
	case client.Messages <- msg:
	default:
	}
	return nil
}

// Detach removes a client
func (b *Broadcaster) Detach(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.clients[client.ChartID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(b.clients, client.ChartID)
		}
	}
	client.shutdown()
}

// ClientCount returns the number of subscribers for chartID
func (b *Broadcaster) ClientCount(chartID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[chartID])
}

// SendHeartbeat sends a keep-alive to every client.
func (b *Broadcaster) SendHeartbeat() {
	b.mu.RLock()
	charts := make([]string, 0, len(b.clients))
	for chartID := range b.clients {
		charts = append(charts, chartID)
	}
	b.mu.RUnlock()

	for _, chartID := range charts {
		b.send(chartID, "event: "+EventHeartbeat+"\ndata: ping\n\n")
	}
}

// send never blocks: the caller is the chart event loop. A client whose
// buffer is full is dropped.
func (b *Broadcaster) send(chartID, msg string) {
	b.mu.RLock()
	clients := make([]*Client, 0, len(b.clients[chartID]))
	for client := range b.clients[chartID] {
		clients = append(clients, client)
	}
	b.mu.RUnlock()

	var slow []*Client
	for _, client := range clients {
		select {
		case client.Messages <- msg:
		default:
			slow = append(slow, client)
		}
	}

	if len(slow) == 0 {
		return
	}
	for _, client := range slow {
		b.Detach(client)
	}
	logging.Warning("Dropped %d unresponsive SSE clients for chart %s", len(slow), chartID)
}

func formatEvent(eventType string, data interface{}) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, jsonData), nil
}
