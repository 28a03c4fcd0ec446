package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"livechart/internal/database"
	"livechart/internal/logging"
	"livechart/internal/stream"
)

// maxMessageBytes caps a single inbound message on either transport.
const maxMessageBytes = 64 << 10

// handlePostMessage queues one message whose type is taken from the path
// and whose body is the message payload. Delivery outcome is asynchronous:
// 202 means queued, not applied.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageBytes))
	if err != nil {
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	env := stream.Envelope{Type: r.PathValue("type"), Message: body}
	if !json.Valid(body) {
		s.journal.Report(r.Context(), stream.NewRejection(env,
			fmt.Errorf("%w: body is not valid JSON", stream.ErrMalformedMessage)))
		http.Error(w, "Malformed message", http.StatusBadRequest)
		return
	}

	if !s.worker.Enqueue(env) {
		http.Error(w, "Message queue full", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "queued"}); err != nil {
		logging.Error("Failed to encode message response: %v", err)
	}
}

// handleWebSocket reads envelope frames ({"type": ..., "message": ...}) until
// the peer disconnects. Frames that are not envelopes are reported and skipped.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warning("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-s.closing:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	logging.Debug("WebSocket producer connected from %s", r.RemoteAddr)

	for {
		frameType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Warning("WebSocket producer %s disconnected: %v", r.RemoteAddr, err)
			}
			return
		}
		if frameType != websocket.TextMessage && frameType != websocket.BinaryMessage {
			continue
		}

		var env stream.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
			s.journal.Report(r.Context(), stream.NewRejection(
				stream.Envelope{Message: data},
				fmt.Errorf("%w: frame is not a message envelope", stream.ErrMalformedMessage)))
			continue
		}
		s.worker.Enqueue(env)
	}
}

func (s *Server) handleRejections(w http.ResponseWriter, r *http.Request) {
	if database.GetDB() == nil {
		http.Error(w, "Rejection journal not available", http.StatusServiceUnavailable)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	rejections, err := database.GetRecentRejections(r.Context(), limit)
	if err != nil {
		logging.Error("Failed to read rejections: %v", err)
		http.Error(w, "Failed to read rejections", http.StatusInternalServerError)
		return
	}
	counts, err := database.CountRejectionsByKind(r.Context())
	if err != nil {
		logging.Error("Failed to count rejections: %v", err)
		http.Error(w, "Failed to read rejections", http.StatusInternalServerError)
		return
	}

	if rejections == nil {
		rejections = []database.Rejection{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"rejections": rejections,
		"counts":     counts,
	}); err != nil {
		logging.Error("Failed to encode rejections: %v", err)
	}
}
