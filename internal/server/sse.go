package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-builder/internal/editor"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent("error", map[string]string{"error": message}) //nolint:errcheck
}

// handleEvents streams the document: the current snapshot first, then one
// "document" event per change. The stream ends when the client leaves or the
// workspace is closed.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	updates, unsubscribe := ws.Editor.Subscribe()
	defer unsubscribe()

	doc, version := ws.Editor.Snapshot()
	initial := editor.Update{ResumeID: ws.Editor.ResumeID(), Version: version, Document: doc}
	if err := sse.WriteEvent("document", initial); err != nil {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case update, open := <-updates:
			if !open {
				sse.WriteError("workspace closed")
				return
			}
			if err := sse.WriteEvent("document", update); err != nil {
				return
			}
		}
	}
}
