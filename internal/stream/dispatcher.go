package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Envelope is a named message as delivered by the inbound channel.
type Envelope struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message"`
}

// HandlerFunc handles the payload of one message type.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Rejection describes a dropped message for operator reporting.
type Rejection struct {
	MessageType string
	Chart       string
	Kind        string
	Detail      string
	Payload     []byte
}

// Reporter receives every dropped message.
type Reporter interface {
	Report(ctx context.Context, r Rejection)
}

// NewRejection builds a Rejection for a failed envelope.
func NewRejection(env Envelope, err error) Rejection {
	return Rejection{
		MessageType: env.Type,
		Chart:       ChartOf(err),
		Kind:        KindOf(err),
		Detail:      err.Error(),
		Payload:     []byte(env.Message),
	}
}

// Dispatcher routes envelopes to the single handler registered for their type.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

// Register binds h to msgType. Each type may be registered once.
func (d *Dispatcher) Register(msgType string, h HandlerFunc) error {
	if msgType == "" {
		return fmt.Errorf("message type must not be empty")
	}
	if h == nil {
		return fmt.Errorf("handler for %s must not be nil", msgType)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.handlers[msgType]; exists {
		return fmt.Errorf("handler already registered for message type %s", msgType)
	}
	d.handlers[msgType] = h
	return nil
}

// Types returns the registered message types
func (d *Dispatcher) Types() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	types := make([]string, 0, len(d.handlers))
	for t := range d.handlers {
		types = append(types, t)
	}
	return types
}

// Dispatch runs the handler for env.Type. A panicking handler is turned into
// an error so the caller keeps running.
func (d *Dispatcher) Dispatch(ctx context.Context, env Envelope) (err error) {
	d.mu.RLock()
	h, ok := d.handlers[env.Type]
	d.mu.RUnlock()

	if !ok {
		return &MessageError{Err: fmt.Errorf("%w: %s", ErrUnknownMessageType, env.Type)}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler for %s panicked: %v", env.Type, r)
		}
	}()

	return h(ctx, env.Message)
}
