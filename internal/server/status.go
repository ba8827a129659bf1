package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/desertthunder/ytmp/internal/playback"
)

// StatusSource reports the current playback session.
type StatusSource interface {
	Status() playback.Snapshot
}

// StatusHandler serves the health and status routes.
type StatusHandler struct {
	source  StatusSource
	version string
	started time.Time
}

func NewStatusHandler(source StatusSource, version string) *StatusHandler {
	return &StatusHandler{source: source, version: version, started: time.Now()}
}

// Routes returns the HTTP routes this handler serves.
func (h *StatusHandler) Routes() []string {
	return []string{"/health", "/status"}
}

type healthResponse struct {
	Status  string  `json:"status"`
	Version string  `json:"version"`
	Uptime  float64 `json:"uptime_seconds"`
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/health":
		writeJSON(w, healthResponse{Status: "ok", Version: h.version, Uptime: time.Since(h.started).Seconds()})
	case "/status":
		writeJSON(w, h.source.Status())
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
