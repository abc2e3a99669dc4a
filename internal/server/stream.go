package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/opsdeck/tacscope/pkg/marker"
)

// handleStream opens a server-sent-events channel pushing the session's full
// snapshot on every push tick. The snapshot read is independent of the
// scheduler: the two timers communicate only through the session store.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("session")
	role := r.URL.Query().Get("role")

	if code == "" {
		http.Error(w, "Session code is required", http.StatusBadRequest)
		return
	}
	sess, ok := s.store.Get(code)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	log.Printf("Stream opened for session %s (role=%s)", code, role)
	s.metrics.SubscriberConnected()
	defer s.metrics.SubscriberDisconnected()

	ticker := time.NewTicker(s.cfg.Stream.PushInterval())
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Printf("Stream closed for session %s (role=%s)", code, role)
			if role == RolePrimary {
				s.destroySession(code)
			}
			return
		case <-ticker.C:
			// Revalidate against the store: once the session is destroyed
			// the stream ends rather than serving a frozen tail
			if _, ok := s.store.Get(code); !ok {
				log.Printf("Stream closed for session %s (role=%s): session destroyed", code, role)
				return
			}
			data, err := json.Marshal(snapshotEvent(sess))
			if err != nil {
				log.Printf("Stream %s: marshal failed: %v", code, err)
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				// Write failure counts as a disconnect
				if role == RolePrimary {
					s.destroySession(code)
				}
				return
			}
			flusher.Flush()
		}
	}
}

// handleStreamWS serves the same full-state feed over a WebSocket, one JSON
// event per push tick. Disconnect semantics match the SSE channel: a primary
// leaving tears the session down.
func (s *Server) handleStreamWS(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("session")
	role := r.URL.Query().Get("role")

	if code == "" {
		http.Error(w, "Session code is required", http.StatusBadRequest)
		return
	}
	sess, ok := s.store.Get(code)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed for session %s: %v", code, err)
		return
	}
	defer conn.Close()

	log.Printf("WebSocket stream opened for session %s (role=%s)", code, role)
	s.metrics.SubscriberConnected()
	defer s.metrics.SubscriberDisconnected()

	// Reader goroutine: we never expect client messages, but reading is how
	// close frames and dead peers are noticed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.Stream.PushInterval())
	defer ticker.Stop()

	for {
		select {
		case <-closed:
		case <-r.Context().Done():
		case <-ticker.C:
			if _, ok := s.store.Get(code); !ok {
				log.Printf("WebSocket stream closed for session %s (role=%s): session destroyed", code, role)
				return
			}
			if err := conn.WriteJSON(snapshotEvent(sess)); err == nil {
				continue
			}
		}
		log.Printf("WebSocket stream closed for session %s (role=%s)", code, role)
		if role == RolePrimary {
			s.destroySession(code)
		}
		return
	}
}

// snapshotEvent packages a session's current state for the wire. Entities is
// never nil so an empty list serializes as [] rather than null.
func snapshotEvent(sess sessionReader) marker.Event {
	entities, dispositions := sess.Snapshot()
	if entities == nil {
		entities = []marker.Entity{}
	}
	return marker.Event{
		Dispositions: dispositions,
		Entities:     entities,
	}
}

// sessionReader is the slice of session behavior the stream needs.
type sessionReader interface {
	Snapshot() ([]marker.Entity, map[string]marker.Disposition)
}
