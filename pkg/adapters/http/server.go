// Package http exposes a conveyor's state over a small HTTP surface:
// a health check, a JSON status view, and Prometheus metrics. It is an
// optional adapter; the engine itself has no network dependency.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine defines the inspection surface the adapter needs from a
// conveyor instance.
type Engine interface {
	IsComplete() bool
	Depths() (queue, buffer int)
}

// StatusResponse is the JSON body served by GET /status.
type StatusResponse struct {
	Complete    bool `json:"complete"`
	QueueDepth  int  `json:"queue_depth"`
	BufferDepth int  `json:"buffer_depth"`
}

// NewHandler builds the HTTP handler for the engine. When gatherer is
// non-nil, Prometheus metrics are served at /metrics.
func NewHandler(engine Engine, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		queue, buffer := engine.Depths()
		writeJSON(w, http.StatusOK, StatusResponse{
			Complete:    engine.IsComplete(),
			QueueDepth:  queue,
			BufferDepth: buffer,
		})
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
