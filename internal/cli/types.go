package cli

// Exit codes returned by Execute.
const (
	ExitSuccess      = 0
	ExitRuntimeError = 1
	ExitInvalidUsage = 2
)

// Event is one line of CLI output. With --json each event is written as a
// JSON line; otherwise only Message is printed.
type Event struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ServeOptions override configuration for a single serve run.
type ServeOptions struct {
	ListenAddr string
	Demo       bool
}

// SendRequest is one message posted to a running server.
type SendRequest struct {
	ServerURL   string
	MessageType string
	Payload     []byte
}
