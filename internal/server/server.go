// Package server exposes the gateway HTTP API: per-metric stat
// routes, the aggregate dashboard, the generic stats dispatcher and
// the signup endpoint. Upstream failures surface as fallback payloads
// with HTTP 200; only caller input errors produce a non-200 status.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/tronmegateam/statsgate/internal/health"
	"github.com/tronmegateam/statsgate/internal/signup"
	"github.com/tronmegateam/statsgate/internal/stats"
)

// RawExplorer is the untyped explorer surface the generic stats
// dispatcher proxies through.
type RawExplorer interface {
	FetchRaw(ctx context.Context, path string) (map[string]any, error)
	BatchFetch(ctx context.Context, paths []string) map[string]map[string]any
}

// NodeDirectory serves raw node directory payloads.
type NodeDirectory interface {
	FetchNodes(ctx context.Context) (map[string]any, error)
}

// endpointMap routes individual dispatcher types to explorer paths.
var endpointMap = map[string]string{
	"system":  "system/status",
	"tps":     "system/tps",
	"asset":   "asset?asset=TRX",
	"account": "account/list?limit=10",
	"witness": "vote/witness?limit=100",
}

// combinedEndpoints are batch-fetched for the combined stats view.
var combinedEndpoints = []string{
	"system/status",
	"system/tps",
	"vote/witness?limit=100",
	"account/list?limit=1",
}

// Server is the gateway HTTP server.
type Server struct {
	log      logrus.FieldLogger
	config   Config
	stats    *stats.Service
	explorer RawExplorer
	nodes    NodeDirectory
	cache    *DashboardCache
	metrics  *health.Metrics

	compressors map[string]*Compressor
	srv         *http.Server
	listener    net.Listener
	running     atomic.Bool
}

// New creates a new gateway server. cache, metrics and nodes may be
// nil.
func New(
	log logrus.FieldLogger,
	config Config,
	statsService *stats.Service,
	explorer RawExplorer,
	nodes NodeDirectory,
	cache *DashboardCache,
	metrics *health.Metrics,
) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}

	compressors := make(map[string]*Compressor)

	for _, algorithm := range []string{
		CompressionGzip, CompressionZstd, CompressionZlib,
	} {
		c, err := NewCompressor(algorithm)
		if err != nil {
			return nil, fmt.Errorf("creating %s compressor: %w", algorithm, err)
		}

		compressors[algorithm] = c
	}

	return &Server{
		log:         log.WithField("component", "server"),
		config:      config,
		stats:       statsService,
		explorer:    explorer,
		nodes:       nodes,
		cache:       cache,
		metrics:     metrics,
		compressors: compressors,
	}, nil
}

// Router returns the configured route handler.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.corsMiddleware, s.observeMiddleware)

	api.HandleFunc("/tron/tps", s.handleTPS).Methods(http.MethodGet)
	api.HandleFunc("/tron/block", s.handleBlock).Methods(http.MethodGet)
	api.HandleFunc("/tron/transactions", s.handleTransactions).Methods(http.MethodGet)
	api.HandleFunc("/tron/price", s.handlePrice).Methods(http.MethodGet)
	api.HandleFunc("/tron/accounts", s.handleAccounts).Methods(http.MethodGet)
	api.HandleFunc("/tron/witnesses", s.handleWitnesses).Methods(http.MethodGet)
	api.HandleFunc("/tron/dashboard", s.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/signup", s.handleSignup).Methods(http.MethodPost)

	// CORS preflight for any API route.
	api.PathPrefix("/").HandlerFunc(s.handlePreflight).Methods(http.MethodOptions)

	return r
}

// Start begins serving the gateway API.
func (s *Server) Start(_ context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	s.listener = listener
	s.srv = &http.Server{
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.running.Store(true)

	go func() {
		if err := s.srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("Gateway server failed")
		}
	}()

	s.log.WithField("addr", s.Addr()).Info("Gateway server started")

	return nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.config.Addr
	}

	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	for _, c := range s.compressors {
		_ = c.Close()
	}

	if err := s.cache.Close(); err != nil {
		s.log.WithError(err).Warn("Failed to close dashboard cache")
	}

	if s.srv != nil {
		if err := s.srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to stop gateway server: %w", err)
		}
	}

	s.log.Info("Gateway server stopped")

	return nil
}

func (s *Server) handleTPS(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.stats.Throughput(r.Context()))
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.stats.LatestBlock(r.Context()))
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.stats.TransactionStats(r.Context()))
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.stats.SpotPrice(r.Context()))
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.stats.AccountStats(r.Context()))
}

func (s *Server) handleWitnesses(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.stats.Witnesses(r.Context()))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if bundle, ok := s.cache.Get(ctx); ok {
		s.writeJSON(w, r, http.StatusOK, bundle)

		return
	}

	bundle := s.stats.Dashboard(ctx)
	s.cache.Set(ctx, bundle)

	s.writeJSON(w, r, http.StatusOK, bundle)
}

// handleStats is the generic dispatcher. Unknown types resolve to a
// fallback payload with HTTP 200, never an error.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = "all"
	}

	switch {
	case kind == "supernode":
		s.handleStatsSupernode(w, r)
	case kind == "all":
		s.handleStatsCombined(w, r)
	case endpointMap[kind] != "":
		data, err := s.explorer.FetchRaw(ctx, endpointMap[kind])
		if err != nil {
			s.log.WithError(err).WithField("type", kind).
				Warn("Stats passthrough failed")
			s.writeJSON(w, r, http.StatusOK, s.statsFallback(kind))

			return
		}

		s.writeJSON(w, r, http.StatusOK, map[string]any{
			"type":      kind,
			"data":      data,
			"timestamp": time.Now().UnixMilli(),
		})
	default:
		s.writeJSON(w, r, http.StatusOK, s.statsFallback(kind))
	}
}

// handleStatsSupernode proxies the raw node directory.
func (s *Server) handleStatsSupernode(w http.ResponseWriter, r *http.Request) {
	if s.nodes == nil {
		s.writeJSON(w, r, http.StatusOK, s.statsFallback("supernode"))

		return
	}

	data, err := s.nodes.FetchNodes(r.Context())
	if err != nil {
		s.log.WithError(err).Warn("Node directory proxy failed")
		s.writeJSON(w, r, http.StatusOK, s.statsFallback("supernode"))

		return
	}

	s.writeJSON(w, r, http.StatusOK, data)
}

// handleStatsCombined merges several explorer sources into one view,
// attaching the processed node listing when the witness source is
// available.
func (s *Server) handleStatsCombined(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	results := s.explorer.BatchFetch(ctx, combinedEndpoints)

	payload := map[string]any{
		"system":    results["status"],
		"tps":       results["tps"],
		"supernode": results["witness"],
		"account":   results["list"],
		"timestamp": time.Now().UnixMilli(),
		"type":      "combined",
		"source":    "live_api",
	}

	if overview := s.stats.SupernodeOverview(ctx); overview != nil {
		payload["supernode"] = overview
	}

	s.writeJSON(w, r, http.StatusOK, payload)
}

func (s *Server) statsFallback(kind string) map[string]any {
	return map[string]any{
		"type":      kind,
		"source":    "fallback",
		"timestamp": time.Now().UnixMilli(),
		"supernode": s.stats.FallbackWitnesses(),
		"tps":       s.stats.FallbackThroughput(),
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var submission signup.Submission

	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		s.metrics.RecordSignup("unknown", "malformed")
		s.writeJSON(w, r, http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})

		return
	}

	if err := submission.Validate(); err != nil {
		s.metrics.RecordSignup(submission.Form(), "rejected")
		s.writeJSON(w, r, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})

		return
	}

	s.metrics.RecordSignup(submission.Form(), "accepted")

	s.log.WithFields(logrus.Fields{
		"form":  submission.Form(),
		"email": submission.Email,
	}).Info("Signup accepted")

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"success": true,
		"message": s.config.Relay.Message(),
		"details": map[string]any{
			"configuredMethods": s.config.Relay.ConfiguredMethods(),
		},
	})
}

func (s *Server) handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// writeJSON marshals v, compresses it when the caller accepts an
// encoding we support, and writes it with the given status.
func (s *Server) writeJSON(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	v any,
) {
	body, err := json.Marshal(v)
	if err != nil {
		s.log.WithError(err).Error("Failed to encode response")
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	algorithm := negotiateCompression(r.Header.Get("Accept-Encoding"))

	if c := s.compressors[algorithm]; c != nil {
		compressed, err := c.Compress(body)
		if err == nil {
			body = compressed

			w.Header().Set("Content-Encoding", c.ContentEncoding())
			w.Header().Set("Vary", "Accept-Encoding")
		} else {
			s.log.WithError(err).WithField("algorithm", algorithm).
				Warn("Response compression failed, sending identity")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(body); err != nil {
		s.log.WithError(err).Debug("Failed to write response")
	}
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := s.config.CORSOrigin
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging and
// metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		duration := time.Since(start)
		code := fmt.Sprintf("%d", recorder.status)

		s.metrics.ObserveGateway(r.URL.Path, code, duration)

		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   recorder.status,
			"duration": duration,
		}).Debug("Handled request")
	})
}
