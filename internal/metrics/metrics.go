// Package metrics exposes Prometheus instrumentation and a health endpoint
// for the analytics binaries.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analytics pipeline.
type Metrics struct {
	// Recompute pipeline
	RecomputeTotal prometheus.Counter
	RecomputeDur   prometheus.Histogram
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	FrameRecords   prometheus.Gauge

	// Sample store
	SamplesAppended prometheus.Counter
	SamplesEvicted  prometheus.Counter
	SamplesRejected prometheus.Counter

	// Analytics output
	AnomaliesFlagged    prometheus.Counter
	ThresholdViolations *prometheus.CounterVec // labels: alert
	StabilityIndex      prometheus.Gauge

	// Session persistence
	SessionOps *prometheus.CounterVec // labels: backend, op, result

	// Circuit breaker
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter
	RedisBufferedSaves       prometheus.Counter

	// Replay
	ReplaySamplesTotal prometheus.Counter
}

// NewMetrics creates all metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecomputeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sgc_recompute_total",
			Help: "Render frames computed (cache misses)",
		}),
		RecomputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sgc_recompute_duration_seconds",
			Help:    "Render pipeline latency per recompute",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sgc_frame_cache_hits_total",
			Help: "Recompute requests served from the frame cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sgc_frame_cache_misses_total",
			Help: "Recompute requests that ran the pipeline",
		}),
		FrameRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sgc_frame_records",
			Help: "Merged records in the last computed frame",
		}),

		SamplesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sgc_samples_appended_total",
			Help: "Samples accepted by the sample store",
		}),
		SamplesEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sgc_samples_evicted_total",
			Help: "Samples dropped by bounded retention",
		}),
		SamplesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sgc_samples_rejected_total",
			Help: "Samples rejected for non-increasing time",
		}),

		AnomaliesFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sgc_anomalies_flagged_total",
			Help: "Anomalies flagged on newly appended samples",
		}),
		ThresholdViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sgc_threshold_violations_total",
			Help: "Threshold alert violations by alert ID",
		}, []string{"alert"}),
		StabilityIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sgc_stability_index",
			Help: "Stability index of the active governance configuration",
		}),

		SessionOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sgc_session_ops_total",
			Help: "Session store operations",
		}, []string{"backend", "op", "result"}),

		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sgc_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sgc_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),
		RedisBufferedSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sgc_redis_buffered_saves_total",
			Help: "Session saves buffered locally while the Redis circuit was open",
		}),

		ReplaySamplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sgc_replay_samples_total",
			Help: "Samples emitted by the replayer",
		}),
	}

	reg.MustRegister(
		m.RecomputeTotal,
		m.RecomputeDur,
		m.CacheHits,
		m.CacheMisses,
		m.FrameRecords,
		m.SamplesAppended,
		m.SamplesEvicted,
		m.SamplesRejected,
		m.AnomaliesFlagged,
		m.ThresholdViolations,
		m.StabilityIndex,
		m.SessionOps,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
		m.RedisBufferedSaves,
		m.ReplaySamplesTotal,
	)

	return m
}

// ObserveSessionOp counts one session store call.
func (m *Metrics) ObserveSessionOp(backend, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SessionOps.WithLabelValues(backend, op, result).Inc()
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	Backend        string    `json:"backend"`
	FeedActive     bool      `json:"feed_active"`
	LastSampleTime time.Time `json:"last_sample_time"`
	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status for a session backend
// (memory, sqlite or redis).
func NewHealthStatus(backend string) *HealthStatus {
	return &HealthStatus{
		Backend:   backend,
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetFeedActive(v bool) {
	h.mu.Lock()
	h.FeedActive = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastSampleTime(t time.Time) {
	h.mu.Lock()
	h.LastSampleTime = t
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks. Nil dependencies
// are skipped.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint. Only the configured backend
// affects the overall status.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK

	switch {
	case h.Backend == "redis" && !h.RedisConnected,
		h.Backend == "sqlite" && !h.SQLiteOK:
		overallStatus = "unhealthy"
		httpCode = http.StatusServiceUnavailable
	case !h.FeedActive:
		overallStatus = "degraded"
	}

	sampleAge := ""
	if !h.LastSampleTime.IsZero() {
		sampleAge = time.Since(h.LastSampleTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		Backend         string  `json:"backend"`
		FeedActive      bool    `json:"feed_active"`
		SampleAge       string  `json:"sample_age"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		Backend:         h.Backend,
		FeedActive:      h.FeedActive,
		SampleAge:       sampleAge,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	mux  *http.ServeMux
	srv  *http.Server
}

// NewServer creates a metrics and health server serving metrics from g.
func NewServer(addr string, health *HealthStatus, g prometheus.Gatherer) *Server {
	mux := Handler(health, g)
	return &Server{
		addr: addr,
		mux:  mux,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handle registers an extra route. Call before Start.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// Handler returns the mux behind Server.
func Handler(health *HealthStatus, g prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)
	return mux
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("metrics server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
