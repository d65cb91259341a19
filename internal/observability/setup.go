package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// Logger is the structured audit logger, separate from the human-oriented
// logrus output. Nil until Init runs; decision paths must not rely on it.
var Logger *zap.Logger

var (
	authzDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"outcome", "reason"},
	)

	adminCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "admin_cache_hits_total",
			Help: "Total number of admin snapshot cache hits",
		},
	)

	adminCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "admin_cache_misses_total",
			Help: "Total number of admin snapshot cache misses",
		},
	)

	adminCacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "admin_cache_evictions_total",
			Help: "Total number of admin snapshot cache evictions",
		},
	)

	upstreamFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_fetch_duration_seconds",
			Help:    "Time spent fetching administrator lists upstream",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
)

// Init registers the metric collectors, sets up tracing and serves the
// Prometheus endpoint. Call it once at startup; the Record helpers work
// without it, they just go unscraped.
func Init(ctx context.Context, metricsAddr string) error {
	var err error
	Logger, err = zap.NewProduction()
	if err != nil {
		return err
	}

	prometheus.MustRegister(
		authzDecisionsTotal,
		adminCacheHitsTotal,
		adminCacheMissesTotal,
		adminCacheEvictionsTotal,
		upstreamFetchDuration,
	)

	otel.SetTracerProvider(trace.NewTracerProvider())

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(metricsAddr, nil); err != nil {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	return nil
}

func RecordDecision(allowed bool, reason string) {
	authzDecisionsTotal.WithLabelValues(outcomeLabel(allowed), reason).Inc()
}

// AuditDecision records the decision metric and writes the decision to the
// structured audit log with its actors.
func AuditDecision(allowed bool, reason string, chatID, userID int64) {
	RecordDecision(allowed, reason)
	if Logger == nil {
		return
	}
	Logger.Info("authorization decision",
		zap.String("outcome", outcomeLabel(allowed)),
		zap.String("reason", reason),
		zap.Int64("chat_id", chatID),
		zap.Int64("user_id", userID),
	)
}

func outcomeLabel(allowed bool) string {
	if allowed {
		return "allow"
	}
	return "deny"
}

func RecordCacheHit() {
	adminCacheHitsTotal.Inc()
}

func RecordCacheMiss() {
	adminCacheMissesTotal.Inc()
}

func RecordCacheEviction() {
	adminCacheEvictionsTotal.Inc()
}

// StartUpstreamFetch starts a fetch timer; the returned func records the
// duration under the given status label.
func StartUpstreamFetch() func(status string) {
	start := time.Now()
	return func(status string) {
		upstreamFetchDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}
}
