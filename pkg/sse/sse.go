// Package sse adapts the orchestrator's SSESink contract onto an HTTP
// response writer using gin-contrib/sse for wire framing.
package sse

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	ginsse "github.com/gin-contrib/sse"
)

// Sink is the transport-facing implementation of the orchestrator's
// SSESink contract: Send/Complete/Fail, with a sticky disconnected flag
// once any write fails.
type Sink struct {
	w            http.ResponseWriter
	flusher      http.Flusher
	mu           sync.Mutex
	disconnected atomic.Bool
}

// New wraps w as an SSE sink. w must support http.Flusher, as gin's
// ResponseWriter always does.
func New(w http.ResponseWriter) *Sink {
	flusher, _ := w.(http.Flusher)
	return &Sink{w: w, flusher: flusher}
}

// Send writes one named event with a JSON-encoded payload. It returns
// false (and marks the sink permanently disconnected) on the first write
// failure, matching the "continue consuming upstream, stop forwarding"
// contract the Streaming Generator relies on.
func (s *Sink) Send(event string, payload any) bool {
	if s.disconnected.Load() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		s.disconnected.Store(true)
		return false
	}

	evt := ginsse.Event{Event: event, Data: string(data)}
	if err := evt.Render(s.w); err != nil {
		s.disconnected.Store(true)
		return false
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return true
}

// Disconnected reports whether a prior Send already failed.
func (s *Sink) Disconnected() bool { return s.disconnected.Load() }

// Complete signals a clean end of stream; callers emit the terminal
// `done` event themselves via Send, so Complete is a no-op hook kept for
// symmetry with the Fail path and future transport-level cleanup.
func (s *Sink) Complete() {}

// Fail sends a terminal `error` event with a sanitized message. It never
// leaks raw LLM output — callers are responsible for passing only the
// localized, human-readable message.
func (s *Sink) Fail(message string) {
	s.Send("error", message)
}
