package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a loosely typed numeric field. It accepts a JSON string or a JSON
// number and keeps the raw text; conversion happens in ParseMessage.
type Number struct {
	raw string
	set bool
}

// NumberString wraps a textual value
func NumberString(s string) Number {
	return Number{raw: s, set: true}
}

// NumberFloat wraps a numeric value
func NumberFloat(f float64) Number {
	return Number{raw: strconv.FormatFloat(f, 'f', -1, 64), set: true}
}

// NumberInt wraps an integer value
func NumberInt(i int64) Number {
	return Number{raw: strconv.FormatInt(i, 10), set: true}
}

// String returns the raw text
func (n Number) String() string {
	return n.raw
}

// UnmarshalJSON never fails on well-formed JSON; values that are not numbers
// are kept so that ParseMessage can report them.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = Number{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Number{raw: s, set: true}
		return nil
	}
	*n = Number{raw: string(b), set: true}
	return nil
}

// MarshalJSON writes the raw text as a JSON string
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	return json.Marshal(n.raw)
}

// Message is the payload of one inbound chart update.
type Message struct {
	Name string `json:"name"`
	X    Number `json:"x"`
	Y0   Number `json:"y0"`
	Y1   Number `json:"y1"`
}

// Point is a Message after boundary parsing.
type Point struct {
	Chart     string
	Timestamp int64
	Raw       float64
	Average   float64
}

// ParseMessage converts the loosely typed fields of msg into a Point.
func ParseMessage(msg Message) (Point, error) {
	ts, err := parseTimestamp(msg.X)
	if err != nil {
		return Point{}, &MessageError{Chart: msg.Name, Field: "x", Err: err}
	}
	y0, err := parseValue(msg.Y0)
	if err != nil {
		return Point{}, &MessageError{Chart: msg.Name, Field: "y0", Err: err}
	}
	y1, err := parseValue(msg.Y1)
	if err != nil {
		return Point{}, &MessageError{Chart: msg.Name, Field: "y1", Err: err}
	}
	return Point{Chart: msg.Name, Timestamp: ts, Raw: y0, Average: y1}, nil
}

func parseTimestamp(n Number) (int64, error) {
	s := strings.TrimSpace(n.raw)
	if !n.set || s == "" {
		return 0, fmt.Errorf("%w: missing value", ErrMalformedMessage)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrMalformedMessage, n.raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %q is not an integer timestamp", ErrMalformedMessage, n.raw)
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: %q is out of range", ErrMalformedMessage, n.raw)
	}
	return int64(f), nil
}

func parseValue(n Number) (float64, error) {
	s := strings.TrimSpace(n.raw)
	if !n.set || s == "" {
		return 0, fmt.Errorf("%w: missing value", ErrMalformedMessage)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrMalformedMessage, n.raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrMalformedMessage, n.raw)
	}
	return f, nil
}
