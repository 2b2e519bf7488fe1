// Package http exposes the report ingestion API plus health and metrics
// endpoints.
package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"nowcast/internal/core"
	"nowcast/internal/flood"
	"nowcast/internal/guard"
	"nowcast/internal/store"
)

type Server struct {
	config  *core.Config
	tracker *core.Tracker
	channel core.PresenceChannel
	cache   *store.ArtCache
	ledger  *guard.FailureLedger
	logger  *zap.Logger

	updateGate *flood.Floodgate
	pauseGate  *flood.Floodgate
	healthGate *flood.Floodgate

	server  *http.Server
	metrics *Metrics
}

type Metrics struct {
	ReportsTotal      *prometheus.CounterVec
	AuthFailuresTotal prometheus.Counter
	RateLimitedTotal  *prometheus.CounterVec
	ReconcileTime     prometheus.Histogram
	CacheSize         prometheus.Gauge
	DiscordConnected  prometheus.Gauge
}

func NewServer(
	config *core.Config,
	tracker *core.Tracker,
	channel core.PresenceChannel,
	cache *store.ArtCache,
	ledger *guard.FailureLedger,
	logger *zap.Logger,
	registry *prometheus.Registry,
) *Server {
	metrics := &Metrics{
		ReportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nowcast_reports_total",
				Help: "Total number of playback reports processed",
			},
			[]string{"outcome"},
		),
		AuthFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "nowcast_auth_failures_total",
				Help: "Total number of failed authentication attempts",
			},
		),
		RateLimitedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nowcast_rate_limited_total",
				Help: "Total number of rate limited requests",
			},
			[]string{"endpoint"},
		),
		ReconcileTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nowcast_reconcile_duration_seconds",
				Help:    "Time spent reconciling playback reports",
				Buckets: prometheus.DefBuckets,
			},
		),
		CacheSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "nowcast_artwork_cache_size",
				Help: "Current number of cached artwork entries",
			},
		),
		DiscordConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "nowcast_discord_connected",
				Help: "Whether the Discord IPC connection is up (1) or down (0)",
			},
		),
	}

	registry.MustRegister(
		metrics.ReportsTotal,
		metrics.AuthFailuresTotal,
		metrics.RateLimitedTotal,
		metrics.ReconcileTime,
		metrics.CacheSize,
		metrics.DiscordConnected,
	)

	s := &Server{
		config:     config,
		tracker:    tracker,
		channel:    channel,
		cache:      cache,
		ledger:     ledger,
		logger:     logger,
		updateGate: flood.New(config.Security.UpdatesPerMinute),
		pauseGate:  flood.New(config.Security.PausesPerMinute),
		healthGate: flood.New(config.Security.HealthPerMinute),
		metrics:    metrics,
	}

	mux := http.NewServeMux()

	mux.Handle("/update", s.secured(s.updateGate, "update", http.HandlerFunc(s.handleUpdate)))
	mux.Handle("/pause", s.secured(s.pauseGate, "pause", http.HandlerFunc(s.handlePause)))

	mux.Handle("/healthz", s.limited(s.healthGate, "health", http.HandlerFunc(s.handleHealthz)))
	mux.HandleFunc("/readyz", s.handleReadyz)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", s.handleIndex)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      s.securityHeaders(s.accessControl(mux)),
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	return s
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		s.updateGate.Stop()
		s.pauseGate.Stop()
		s.healthGate.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

type updateRequest struct {
	Title     string  `json:"title"`
	Artist    string  `json:"artist"`
	IsPlaying *bool   `json:"is_playing"`
	Duration  float64 `json:"duration"`
	Position  float64 `json:"position"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxBodyBytes)

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "Request too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}

	report := core.TrackReport{
		Title:     req.Title,
		Artist:    req.Artist,
		IsPlaying: true, // absent field means playing
		Duration:  req.Duration,
		Position:  req.Position,
	}
	if req.IsPlaying != nil {
		report.IsPlaying = *req.IsPlaying
	}

	start := time.Now()
	outcome := s.tracker.Reconcile(r.Context(), report)
	s.metrics.ReconcileTime.Observe(time.Since(start).Seconds())
	s.metrics.ReportsTotal.WithLabelValues(outcome.String()).Inc()
	s.refreshGauges()

	switch outcome {
	case core.OutcomeOK:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case core.OutcomeSkipped:
		writeJSON(w, http.StatusOK, map[string]string{"status": "skipped"})
	case core.OutcomeUnavailable:
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Discord not connected"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "RPC error"})
	}
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	s.channel.Clear()
	s.refreshGauges()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.refreshGauges()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"service":           "nowcast",
		"discord_connected": s.channel.Connected(),
		"cache_size":        s.cache.Len(),
		"auth_enabled":      s.config.Security.AuthToken != "",
		"ip_restriction":    len(s.config.Security.AllowedIPs) > 0,
		"tracked_ips":       s.ledger.TrackedIPs(),
		"update_limiter":    s.updateGate.GetStats(),
		"pause_limiter":     s.pauseGate.GetStats(),
	})
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "service": "nowcast"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>nowcast</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .header { color: #333; }
        .endpoint { margin: 10px 0; }
        .endpoint a { text-decoration: none; color: #0066cc; }
        .endpoint a:hover { text-decoration: underline; }
    </style>
</head>
<body>
    <h1 class="header">🎵 nowcast</h1>
    <p>Now Playing → Discord Rich Presence relay</p>

    <h2>Endpoints</h2>
    <div class="endpoint">🎧 POST /update - Report the current track</div>
    <div class="endpoint">⏸️ POST /pause - Clear the presence</div>
    <div class="endpoint">📊 <a href="/metrics">Metrics</a> - Prometheus metrics</div>
    <div class="endpoint">💚 <a href="/healthz">Health</a> - Health check</div>
    <div class="endpoint">✅ <a href="/readyz">Ready</a> - Readiness check</div>
</body>
</html>`))
}

// accessControl enforces the IP allowlist and the brute-force block on
// every request, the read-only endpoints included. Only auth is exempt
// there.
func (s *Server) accessControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := s.clientIP(r)

		if !s.ipAllowed(clientIP) {
			s.logger.Warn("Request from disallowed IP", zap.String("ip", clientIP))
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Forbidden"})
			return
		}

		if s.ledger.Blocked(clientIP) {
			s.logger.Warn("Request from blocked IP", zap.String("ip", clientIP))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Too many failed authentication attempts"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// limited applies one endpoint's rate limit.
func (s *Server) limited(gate *flood.Floodgate, endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !gate.Allow(s.clientIP(r)) {
			s.metrics.RateLimitedTotal.WithLabelValues(endpoint).Inc()
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Rate limit exceeded"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// secured adds bearer-token auth behind the endpoint's rate limit. A
// rate-limited IP never reaches token comparison.
func (s *Server) secured(gate *flood.Floodgate, endpoint string, next http.Handler) http.Handler {
	return s.limited(gate, endpoint, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			clientIP := s.clientIP(r)
			s.ledger.Record(clientIP)
			s.metrics.AuthFailuresTotal.Inc()
			s.logger.Warn("Authentication failed", zap.String("ip", clientIP))
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}

		next.ServeHTTP(w, r)
	}))
}

func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Server", "nowcast")
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the caller's address. X-Forwarded-For is only honored
// when the server is told it sits behind a trusted proxy; otherwise the
// header is attacker-controlled.
func (s *Server) clientIP(r *http.Request) string {
	if s.config.Server.TrustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			return strings.TrimSpace(strings.Split(xff, ",")[0])
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) ipAllowed(clientIP string) bool {
	if len(s.config.Security.AllowedIPs) == 0 {
		return true
	}
	for _, allowed := range s.config.Security.AllowedIPs {
		if clientIP == allowed {
			return true
		}
	}
	return false
}

func (s *Server) authorized(r *http.Request) bool {
	token := s.config.Security.AuthToken
	if token == "" {
		return true
	}

	header := r.Header.Get("Authorization")
	expected := "Bearer " + token
	return subtle.ConstantTimeCompare([]byte(header), []byte(expected)) == 1
}

func (s *Server) refreshGauges() {
	s.metrics.CacheSize.Set(float64(s.cache.Len()))
	if s.channel.Connected() {
		s.metrics.DiscordConnected.Set(1)
	} else {
		s.metrics.DiscordConnected.Set(0)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
