// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/form019-finder/internal/events"
	"github.com/form019-finder/internal/jobs"
	"github.com/form019-finder/internal/logger"
	"github.com/form019-finder/internal/server/middleware"
	"github.com/form019-finder/internal/worker"
)

// ScanStarter starts background scans
type ScanStarter interface {
	Start(ctx context.Context, req worker.Request) (string, error)
}

// JobReader reads and removes jobs
type JobReader interface {
	Get(ctx context.Context, id string) (jobs.Job, error)
	Delete(ctx context.Context, id string) error
}

// Settings are the form defaults; they can change on config reload
type Settings struct {
	BaseDir     string
	UnitFolders []string
	PartTypes   []string
}

// Server is the HTTP surface of the finder
type Server struct {
	scans   ScanStarter
	jobs    JobReader
	events  *events.Broadcaster
	limiter *ClientLimiter
	log     *logger.Logger

	mu       sync.RWMutex
	settings Settings
}

// New creates the server. limiter may be nil to disable rate limiting.
func New(scans ScanStarter, jobReader JobReader, broadcaster *events.Broadcaster, limiter *ClientLimiter, settings Settings, log *logger.Logger) *Server {
	if log == nil {
		log = logger.GetDefault()
	}
	if broadcaster == nil {
		broadcaster = events.NewBroadcaster()
	}
	return &Server{
		scans:    scans,
		jobs:     jobReader,
		events:   broadcaster,
		limiter:  limiter,
		log:      log,
		settings: settings,
	}
}

// UpdateSettings replaces the form defaults
func (s *Server) UpdateSettings(settings Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
}

func (s *Server) currentSettings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Routes returns the HTTP handler with all endpoints registered
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.HandleIndex)
	mux.HandleFunc("POST /start", s.HandleStart)
	mux.HandleFunc("GET /progress/{job_id}", s.HandleProgress)
	mux.HandleFunc("GET /results/{job_id}", s.HandleResults)
	mux.HandleFunc("GET /download/{job_id}", s.HandleDownload)
	mux.HandleFunc("DELETE /jobs/{job_id}", s.HandleDeleteJob)
	mux.HandleFunc("GET /ws/progress/{job_id}", s.HandleProgressStream)
	mux.HandleFunc("GET /api/config", s.HandleGetConfig)
	mux.HandleFunc("GET /api/logs/stream", s.HandleLogStream)
	mux.HandleFunc("GET /health", HandleHealth)

	return middleware.TrafficLogger(s.log)(mux)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
