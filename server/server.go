// Package server exposes the decision rules and the simulator over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/clinflow-xyz/go-clinflow/expert"
	"github.com/clinflow-xyz/go-clinflow/kb"
	"github.com/clinflow-xyz/go-clinflow/logger"
	"github.com/clinflow-xyz/go-clinflow/storage"
)

// Config assembles the server's dependencies. A nil KB uses the default
// knowledge base; a nil Store disables persistence endpoints.
type Config struct {
	Addr  string
	KB    *kb.KnowledgeBase
	Store *storage.Store
	Log   *logrus.Logger
}

// Server routes assessment, simulation, and stored-run requests.
type Server struct {
	kb     *kb.KnowledgeBase
	rules  *expert.System
	store  *storage.Store
	log    *logrus.Logger
	router *mux.Router
	http   *http.Server
}

// New builds the server and its routes.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.KB == nil {
		cfg.KB = kb.Default()
	}
	if cfg.Log == nil {
		cfg.Log = logger.Log
	}

	s := &Server{
		kb:    cfg.KB,
		rules: expert.New(cfg.KB),
		store: cfg.Store,
		log:   cfg.Log,
	}

	r := mux.NewRouter()
	r.Use(s.recovery, s.logging)
	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/scenarios", s.handleScenarios).Methods("GET")
	api.HandleFunc("/cases", s.handleCases).Methods("GET")
	api.HandleFunc("/cases/{key}", s.handleCase).Methods("GET")
	api.HandleFunc("/assess", s.handleAssess).Methods("POST")
	api.HandleFunc("/evaluate", s.handleEvaluate).Methods("POST")
	api.HandleFunc("/certificate", s.handleCertificate).Methods("POST")
	api.HandleFunc("/simulate", s.handleSimulate).Methods("POST")
	api.HandleFunc("/compare", s.handleCompare).Methods("POST")
	api.HandleFunc("/runs", s.handleRuns).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleRun).Methods("GET")

	s.router = r
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route tree, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown or a listener error.
func (s *Server) Start() error {
	s.log.WithField("addr", s.http.Addr).Info("Clinic service started")
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		r.Header.Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)

		s.log.WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"remote_addr": r.RemoteAddr,
			"request_id":  reqID,
			"duration":    time.Since(start).Milliseconds(),
		}).Info("HTTP request")
	})
}

func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.WithField("error", err).Error("Panic recovered")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
