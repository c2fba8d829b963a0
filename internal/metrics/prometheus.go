package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lzpending"

// Metric names shared by the JSON registry and the Prometheus collectors.
const (
	MetricHTTPRequests      = "http_requests_total"
	MetricHTTPDuration      = "http_request_duration"
	MetricUpstreamCalls     = "upstream_calls_total"
	MetricUpstreamDuration  = "upstream_call_duration"
	MetricPendingScans      = "pending_scans_total"
	MetricPendingMessages   = "pending_messages"
	MetricDetailLookups     = "detail_lookups_total"
	MetricSightingsRecorded = "sightings_recorded_total"
)

var (
	promRegistry = prometheus.NewRegistry()
	factory      = promauto.With(promRegistry)

	httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status_code"},
	)

	httpRequestDurationSeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	upstreamCallsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_calls_total",
			Help:      "Calls to the scan API and detail pages, by outcome.",
		},
		[]string{"endpoint", "result"}, // result: "ok" or "unavailable"
	)

	upstreamCallDurationSeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_call_duration_seconds",
			Help:      "Duration of calls to the scan API and detail pages.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	pendingScansTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_scans_total",
			Help:      "Pending-message scans, by trigger.",
		},
		[]string{"trigger"}, // "request", "watcher", "cli"
	)

	pendingMessagesGauge = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_messages",
			Help:      "Pending messages found by the most recent scan.",
		},
	)

	detailLookupsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_lookups_total",
			Help:      "Detail-page fallbacks, by source.",
		},
		[]string{"source"}, // "cache", "fetched", "unavailable"
	)

	sightingsRecordedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sightings_recorded_total",
			Help:      "Sightings upserted by the watcher.",
		},
	)
)

func init() {
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// PrometheusHandler serves the Prometheus exposition of the process metrics.
func PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, code).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())

	labels := map[string]string{"method": method, "route": route, "status_code": code}
	IncrementCounter(MetricHTTPRequests, labels, "Total number of HTTP requests")
	RecordTimer(MetricHTTPDuration, duration, map[string]string{"method": method, "route": route}, "HTTP request duration")
}

// RecordUpstreamCall records one outbound call and whether it was available.
func RecordUpstreamCall(endpoint string, available bool, duration time.Duration) {
	result := "ok"
	if !available {
		result = "unavailable"
	}
	upstreamCallsTotal.WithLabelValues(endpoint, result).Inc()
	upstreamCallDurationSeconds.WithLabelValues(endpoint).Observe(duration.Seconds())

	IncrementCounter(MetricUpstreamCalls, map[string]string{"endpoint": endpoint, "result": result}, "Outbound calls by outcome")
	RecordTimer(MetricUpstreamDuration, duration, map[string]string{"endpoint": endpoint}, "Outbound call duration")
}

// RecordPendingScan records a completed scan and its result size.
func RecordPendingScan(trigger string, pending int) {
	pendingScansTotal.WithLabelValues(trigger).Inc()
	pendingMessagesGauge.Set(float64(pending))

	IncrementCounter(MetricPendingScans, map[string]string{"trigger": trigger}, "Pending-message scans")
	SetGauge(MetricPendingMessages, float64(pending), nil, "Pending messages found by the most recent scan")
}

// RecordDetailLookup records how a detail-page fallback was served.
func RecordDetailLookup(source string) {
	detailLookupsTotal.WithLabelValues(source).Inc()
	IncrementCounter(MetricDetailLookups, map[string]string{"source": source}, "Detail-page fallbacks")
}

// RecordSightings records sightings upserted by one watcher run.
func RecordSightings(n int) {
	if n <= 0 {
		return
	}
	sightingsRecordedTotal.Add(float64(n))
	AddToCounter(MetricSightingsRecorded, float64(n), nil, "Sightings upserted by the watcher")
}
