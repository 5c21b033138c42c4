// Package proxy implements the gateway: a reverse proxy forwarding /api/*
// traffic verbatim to the backend, plus liveness and reachability probes.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/gazexpress/gazexpress/internal/metrics"
	"github.com/gazexpress/gazexpress/pkg/logger"
)

// Gateway forwards API traffic to the backend origin and answers health
// probes about itself and the backend.
type Gateway struct {
	upstream     *url.URL
	probeClient  *http.Client
	probeTimeout time.Duration
	reverse      *httputil.ReverseProxy
	log          *logger.Logger
}

// New constructs a gateway targeting the backend at upstream.
func New(upstream string, probeTimeout time.Duration, log *logger.Logger) (*Gateway, error) {
	upstream = strings.TrimSpace(upstream)
	if upstream == "" {
		return nil, fmt.Errorf("upstream url required")
	}
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("upstream url %q must be absolute", upstream)
	}
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	if log == nil {
		log = logger.NewDefault("gateway")
	}

	g := &Gateway{
		upstream:     target,
		probeClient:  &http.Client{Timeout: probeTimeout},
		probeTimeout: probeTimeout,
		log:          log,
	}

	// Forwarding keeps the /api prefix: the backend mounts its routes
	// under /api as well.
	reverse := httputil.NewSingleHostReverseProxy(target)
	reverse.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		metrics.RecordProxyError()
		g.log.WithError(err).
			WithField("method", r.Method).
			WithField("path", r.URL.Path).
			Warn("backend unreachable for forwarded request")
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"status":  "error",
			"message": "backend unreachable",
		})
	}
	g.reverse = reverse

	return g, nil
}

// Router returns the gateway's route table.
func (g *Gateway) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", g.health).Methods(http.MethodGet)
	r.HandleFunc("/health/backend", g.healthBackend).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/api").Handler(g.reverse)
	r.PathPrefix("/static").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "static files not configured"})
	})
	return r
}

// health reports that the gateway process itself is running.
func (g *Gateway) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"message":   "gateway is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// healthBackend probes the backend health endpoint. It is a read-only
// probe: forwarding keeps working regardless of the result, and a failing
// backend manifests on the individual forwarded requests.
func (g *Gateway) healthBackend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), g.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.upstream.JoinPath("/health").String(), nil)
	if err != nil {
		metrics.RecordBackendHealth(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "error",
			"message": "backend is not reachable",
			"error":   err.Error(),
		})
		return
	}

	resp, err := g.probeClient.Do(req)
	if err != nil {
		metrics.RecordBackendHealth(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "error",
			"message": "backend is not reachable",
			"error":   err.Error(),
		})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		metrics.RecordBackendHealth(true)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":        "ok",
			"message":       "backend is accessible",
			"backendStatus": resp.StatusCode,
		})
		return
	}

	metrics.RecordBackendHealth(false)
	writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
		"status":        "error",
		"message":       "backend is not responding properly",
		"backendStatus": resp.StatusCode,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
