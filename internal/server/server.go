// Package server exposes the broadcast engine over HTTP: session creation,
// the live snapshot stream (SSE and WebSocket) and the disposition mutator.
package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/opsdeck/tacscope/internal/catalog"
	"github.com/opsdeck/tacscope/internal/observability"
	"github.com/opsdeck/tacscope/internal/session"
	"github.com/opsdeck/tacscope/internal/sim"
	"github.com/opsdeck/tacscope/pkg/config"
	"github.com/opsdeck/tacscope/pkg/marker"
)

// RolePrimary marks the session-owning subscriber. When it disconnects the
// session is torn down; secondary viewers come and go freely.
const RolePrimary = "primary"

// Server holds the HTTP surface and its dependencies.
type Server struct {
	router   *chi.Mux
	store    *session.Store
	cat      *catalog.Catalog
	cfg      *config.Config
	metrics  *observability.Collector
	limiter  *rate.Limiter
	upgrader websocket.Upgrader
}

// New wires a server around the given store and catalog. metrics may be nil.
func New(cfg *config.Config, cat *catalog.Catalog, store *session.Store, metrics *observability.Collector) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		store:   store,
		cat:     cat,
		cfg:     cfg,
		metrics: metrics,
		limiter: rate.NewLimiter(rate.Limit(cfg.Stream.SessionsPerSecond), cfg.Stream.SessionBurst),
		upgrader: websocket.Upgrader{
			// Origin policy is handled by the CORS layer
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/session", s.handleCreateSession)
	r.Get("/stream", s.handleStream)
	r.Get("/stream/ws", s.handleStreamWS)
	r.Post("/disposition", s.handleUpdateDisposition)
	r.Handle("/metrics", s.metrics.Handler())

	// Everything else is a 404 (chi's default NotFound handler)
}

// handleCreateSession allocates a session and starts its scheduler.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		http.Error(w, "Too many sessions requested", http.StatusTooManyRequests)
		return
	}

	sess, err := s.store.Create(s.cat.SeedDispositions())
	if err != nil {
		log.Printf("Failed to allocate session: %v", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	scheduler := sim.New(s.store, s.cat, sess.Code(), s.cfg.Stream.TickInterval(), s.metrics)
	sess.SetStopper(scheduler.Stop)
	scheduler.Start()

	s.metrics.SessionCreated()
	log.Printf("New session created with code: %s", sess.Code())

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessionCode": sess.Code(),
	})
}

// handleUpdateDisposition applies a viewer's classification change.
func (s *Server) handleUpdateDisposition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Session     string `json:"session"`
		ID          string `json:"id"`
		Disposition string `json:"disposition"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Session == "" || req.ID == "" || req.Disposition == "" {
		http.Error(w, "Session, ID, and disposition are required", http.StatusBadRequest)
		return
	}

	err := s.store.UpdateDisposition(req.Session, req.ID, marker.Disposition(req.Disposition))
	switch err {
	case nil:
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
		})
	case session.ErrSessionNotFound:
		http.Error(w, "Session not found", http.StatusNotFound)
	case session.ErrInvalidDisposition:
		http.Error(w, "Invalid disposition value", http.StatusBadRequest)
	case session.ErrEntityNotFound:
		http.Error(w, "Entity not found in session", http.StatusNotFound)
	default:
		log.Printf("Disposition update failed: %v", err)
		http.Error(w, "Failed to update disposition", http.StatusInternalServerError)
	}
}

// destroySession tears down a session after its primary subscriber leaves.
func (s *Server) destroySession(code string) {
	if s.store.Destroy(code) {
		s.metrics.SessionDestroyed()
		log.Printf("Session destroyed: %s", code)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
