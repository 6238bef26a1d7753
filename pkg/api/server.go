/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package api provides the HTTP heartbeat endpoint for the fleet.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/carverauto/hbd/pkg/cache"
	srHttp "github.com/carverauto/hbd/pkg/http"
	"github.com/carverauto/hbd/pkg/logger"
	"github.com/carverauto/hbd/pkg/models"
	"github.com/carverauto/hbd/pkg/registry"
)

const (
	serviceName     = "hbd"
	shutdownTimeout = 10 * time.Second
)

// HeartbeatProcessor is the coordinator surface the API depends on.
type HeartbeatProcessor interface {
	ProcessHeartbeat(ctx context.Context, req models.HeartbeatRequest) (registry.Outcome, error)
}

// APIServer exposes the heartbeat and introspection endpoints.
type APIServer struct {
	router     *mux.Router
	processor  HeartbeatProcessor
	cache      *cache.HeartbeatCache
	corsConfig models.CORSConfig
	apiKey     string
	logger     logger.Logger
	httpSrv    *http.Server
}

// NewAPIServer creates a new API server instance with the given configuration.
func NewAPIServer(cfg *models.HBDConfig, processor HeartbeatProcessor, c *cache.HeartbeatCache, log logger.Logger) *APIServer {
	if log == nil {
		log = logger.NewTestLogger()
	}

	s := &APIServer{
		router:     mux.NewRouter(),
		processor:  processor,
		cache:      c,
		corsConfig: cfg.CORS,
		apiKey:     cfg.APIKey,
		logger:     log,
	}

	s.setupRoutes()

	return s
}

// Router exposes the underlying router, for tests.
func (s *APIServer) Router() http.Handler {
	return s.router
}

func (s *APIServer) setupRoutes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return srHttp.CommonMiddleware(next, s.corsConfig)
	})

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/hbd", s.heartbeatHandler(false)).Methods(http.MethodGet)
	s.router.HandleFunc("/hbd/uninitialized", s.heartbeatHandler(true)).Methods(http.MethodGet)

	stats := s.router.PathPrefix("/api").Subrouter()
	stats.Use(srHttp.APIKeyMiddleware(s.apiKey))
	stats.HandleFunc("/devices/count", s.handleDeviceCount).Methods(http.MethodGet)
}

// Start begins serving on addr and blocks until the listener fails or the
// server is shut down.
func (s *APIServer) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().
		Str("addr", addr).
		Msg("HTTP server listening")

	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *APIServer) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return s.httpSrv.Shutdown(ctx)
}

func (s *APIServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   serviceName,
	})
}

func (s *APIServer) handleDeviceCount(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"devices": s.cache.Len(),
	})
}

func (s *APIServer) heartbeatHandler(uninitialized bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeHeartbeatQuery(r, uninitialized)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		outcome, procErr := s.processor.ProcessHeartbeat(r.Context(), req)

		s.logger.Debug().
			Uint32("device_id", req.DeviceID).
			Str("mac", req.MAC).
			Str("local_ip", req.LocalIP).
			Str("global_ip", req.GlobalIP).
			Bool("long_poll", req.LongPoll).
			Str("outcome", outcome.String()).
			Msg("heartbeat processed")

		if outcome == registry.OutcomeUnavailable {
			s.logger.Error().
				Err(procErr).
				Str("mac", req.MAC).
				Msg("heartbeat rejected, store unavailable")
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)

			return
		}

		// Devices always see success otherwise, even when the durable
		// write failed internally; that keeps transient store failures
		// from triggering fleet-wide retry storms.
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

// decodeHeartbeatQuery validates the query parameters of one heartbeat
// request. GlobalIP is always server-observed.
func decodeHeartbeatQuery(r *http.Request, uninitialized bool) (models.HeartbeatRequest, error) {
	q := r.URL.Query()

	id, err := strconv.ParseUint(q.Get("ID"), 10, 32)
	if err != nil {
		return models.HeartbeatRequest{}, errInvalidDeviceID
	}

	mac := models.CanonicalMAC(q.Get("MAC"))
	if mac == "" {
		return models.HeartbeatRequest{}, errMissingMAC
	}

	localIP := strings.TrimSpace(q.Get("IP"))
	if localIP == "" {
		return models.HeartbeatRequest{}, errMissingIP
	}

	req := models.HeartbeatRequest{
		DeviceID:      uint32(id),
		MAC:           mac,
		LocalIP:       localIP,
		GlobalIP:      observedGlobalIP(r),
		LongPoll:      q.Get("LP") != "",
		Uninitialized: uninitialized,
	}

	if ts := q.Get("timestamp"); ts != "" {
		// Client clocks are advisory; a bad one is ignored, not rejected.
		if parsed, err := strconv.ParseUint(ts, 10, 64); err == nil {
			req.Timestamp = parsed
		}
	}

	return req, nil
}

// observedGlobalIP extracts the device's global address as seen by the
// server: the first X-Forwarded-For hop when a proxy fronts us, otherwise
// the peer address.
func observedGlobalIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}
