package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

// eventStream writes server-sent events. Sends from several goroutines are
// serialised and dropped once the stream is closed.
type eventStream struct {
	mu     sync.Mutex
	w      *echo.Response
	closed bool
}

func newEventStream(w *echo.Response) *eventStream {
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()
	return &eventStream{w: w}
}

func (s *eventStream) send(event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("sse: marshal %s: %v", event, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		s.closed = true
		return
	}
	s.w.Flush()
}

func (s *eventStream) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
