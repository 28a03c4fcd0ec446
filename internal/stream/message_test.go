package stream

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestMessageUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Point
		wantErr error
	}{
		{
			name:    "string fields",
			payload: `{"name":"live_highchart","x":"1700000060000","y0":"42.5","y1":"40.1"}`,
			want:    Point{Chart: "live_highchart", Timestamp: 1700000060000, Raw: 42.5, Average: 40.1},
		},
		{
			name:    "number fields",
			payload: `{"name":"c","x":1700000060000,"y0":42.5,"y1":-3}`,
			want:    Point{Chart: "c", Timestamp: 1700000060000, Raw: 42.5, Average: -3},
		},
		{
			name:    "exponent timestamp",
			payload: `{"name":"c","x":1.7e12,"y0":"1","y1":"2"}`,
			want:    Point{Chart: "c", Timestamp: 1700000000000, Raw: 1, Average: 2},
		},
		{
			name:    "whitespace is trimmed",
			payload: `{"name":"c","x":" 10 ","y0":" 1.5","y1":"2 "}`,
			want:    Point{Chart: "c", Timestamp: 10, Raw: 1.5, Average: 2},
		},
		{
			name:    "boolean value",
			payload: `{"name":"c","x":"10","y0":true,"y1":"2"}`,
			wantErr: ErrMalformedMessage,
		},
		{
			name:    "null timestamp",
			payload: `{"name":"c","x":null,"y0":"1","y1":"2"}`,
			wantErr: ErrMalformedMessage,
		},
		{
			name:    "NaN value",
			payload: `{"name":"c","x":"10","y0":"NaN","y1":"2"}`,
			wantErr: ErrMalformedMessage,
		},
		{
			name:    "infinite value",
			payload: `{"name":"c","x":"10","y0":"1","y1":"+Inf"}`,
			wantErr: ErrMalformedMessage,
		},
		{
			name:    "timestamp out of range",
			payload: `{"name":"c","x":1e30,"y0":"1","y1":"2"}`,
			wantErr: ErrMalformedMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Message
			if err := json.Unmarshal([]byte(tt.payload), &m); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}

			got, err := ParseMessage(m)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParseMessage() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMessage() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseMessage() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseMessageReportsField(t *testing.T) {
	_, err := ParseMessage(msg("c", "10", "1", "bad"))

	var me *MessageError
	if !errors.As(err, &me) {
		t.Fatalf("error %v is not a *MessageError", err)
	}
	if me.Field != "y1" || me.Chart != "c" {
		t.Errorf("MessageError = %+v, want field y1 on chart c", me)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&MessageError{Chart: "a", Err: ErrUnknownChart}, KindUnknownChart},
		{&MessageError{Field: "x", Err: ErrMalformedMessage}, KindMalformedMessage},
		{&MessageError{Err: ErrOrderingViolation}, KindOrderingViolation},
		{ErrUnknownMessageType, KindUnknownMessageType},
		{ErrQueueFull, KindQueueFull},
		{errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
