// Package diagnostics serves a strictly read-only HTTP view of this
// node — liveness, peer table, and database snapshot — grounded on the
// teacher's internal/api.Server: same mux.Router-plus-http.Server
// shape, graceful Stop(ctx), uptime tracking. It exists alongside the
// TCP console, never in place of it: nothing here accepts a write, so
// the console stays the only operator interface that can change state.
package diagnostics

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/byznode/byznode/internal/database"
	"github.com/byznode/byznode/internal/membership"
)

// Server is the read-only diagnostics HTTP server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	table      *membership.Table
	store      *database.Store
	startTime  time.Time
}

// NewServer builds a diagnostics Server over table and store.
func NewServer(table *membership.Table, store *database.Store) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		table:     table,
		store:     store,
		startTime: time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(loggingMiddleware)
	s.router.Use(recoveryMiddleware)

	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.HandleFunc("/debug/peers", s.handleDebugPeers).Methods(http.MethodGet)
	s.router.HandleFunc("/debug/db", s.handleDebugDB).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// Start binds addr, logs the resolved listen address, and begins
// serving in its own goroutine. It returns once the listener is bound;
// Serve errors after that point are logged, not returned, since Start
// doesn't block.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	log.Printf("diagnostics: listening on %s", ln.Addr())
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("diagnostics: serve error: %v", err)
		}
	}()
	return nil
}

// Stop gracefully shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	log.Println("diagnostics: shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Uptime returns how long this server has been running.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.startTime)
}
