package stream

import (
	"errors"
	"fmt"

	"livechart/internal/series"
)

var (
	// ErrUnknownChart is returned when a message names a chart that was never initialized.
	ErrUnknownChart = errors.New("unknown chart")
	// ErrMalformedMessage is returned when x, y0 or y1 cannot be read as a number.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrOrderingViolation is returned when a message would move a series backwards in time.
	ErrOrderingViolation = series.ErrOrderingViolation
	// ErrUnknownMessageType is returned by the dispatcher for unregistered message types.
	ErrUnknownMessageType = errors.New("unknown message type")
	// ErrChartExists is returned when a chart id is initialized twice.
	ErrChartExists = errors.New("chart already initialized")
	// ErrQueueFull is reported when an inbound message is dropped before dispatch.
	ErrQueueFull = errors.New("message queue full")
)

// Rejection kinds, as stored in the rejection journal.
const (
	KindUnknownChart       = "unknown_chart"
	KindMalformedMessage   = "malformed_message"
	KindOrderingViolation  = "ordering_violation"
	KindUnknownMessageType = "unknown_message_type"
	KindQueueFull          = "queue_full"
	KindInternal           = "internal"
)

// MessageError describes why a single inbound message was dropped.
type MessageError struct {
	Chart string
	Field string
	Err   error
}

func (e *MessageError) Error() string {
	switch {
	case e.Field != "" && e.Chart != "":
		return fmt.Sprintf("chart %q: field %s: %v", e.Chart, e.Field, e.Err)
	case e.Chart != "":
		return fmt.Sprintf("chart %q: %v", e.Chart, e.Err)
	case e.Field != "":
		return fmt.Sprintf("field %s: %v", e.Field, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *MessageError) Unwrap() error {
	return e.Err
}

// KindOf maps an error to its rejection kind.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrUnknownChart):
		return KindUnknownChart
	case errors.Is(err, ErrMalformedMessage):
		return KindMalformedMessage
	case errors.Is(err, ErrOrderingViolation):
		return KindOrderingViolation
	case errors.Is(err, ErrUnknownMessageType):
		return KindUnknownMessageType
	case errors.Is(err, ErrQueueFull):
		return KindQueueFull
	default:
		return KindInternal
	}
}

// ChartOf returns the chart name carried by err, if any.
func ChartOf(err error) string {
	var me *MessageError
	if errors.As(err, &me) {
		return me.Chart
	}
	return ""
}
