package database

import "time"

// Rejection is one dropped inbound message.
type Rejection struct {
	ID          string    `json:"id"`
	ReceivedAt  time.Time `json:"receivedAt"`
	MessageType string    `json:"messageType"`
	ChartName   string    `json:"chartName,omitempty"`
	Kind        string    `json:"kind"`
	Detail      string    `json:"detail"`
	Payload     string    `json:"payload,omitempty"`
}

// MaxPayloadBytes caps the stored copy of a rejected payload.
const MaxPayloadBytes = 4096
