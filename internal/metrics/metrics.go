package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vppmon_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vppmon_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	boundaryFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vppmon_boundary_fetch_total",
			Help: "Boundary document fetch attempts by layer and result.",
		},
		[]string{"layer", "result"},
	)

	boundaryFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vppmon_boundary_fetch_duration_seconds",
			Help:    "Boundary document fetch duration in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"layer"},
	)

	boundaryLayerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vppmon_boundary_layer_state",
			Help: "1 for the current load state of each boundary layer, 0 otherwise.",
		},
		[]string{"layer", "state"},
	)

	boundaryFeatures = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vppmon_boundary_features",
			Help: "Number of features in the loaded boundary document.",
		},
		[]string{"layer"},
	)

	boundaryCacheErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vppmon_boundary_cache_errors_total",
			Help: "Boundary cache read/write failures by backend.",
		},
		[]string{"backend", "op"},
	)

	sceneBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vppmon_scene_build_duration_seconds",
			Help:    "Time to assemble one scene frame.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	sceneLayerRebuilds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vppmon_scene_layer_rebuilds_total",
			Help: "Number of border layer rebuilds after boundary changes.",
		},
	)

	sceneLayerPoints = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vppmon_scene_layer_points",
			Help: "Sampled border points per scene layer.",
		},
		[]string{"layer"},
	)

	widgetTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vppmon_widget_ticks_total",
			Help: "Simulated widget refresh ticks.",
		},
		[]string{"widget"},
	)

	streamConnections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vppmon_stream_connections_total",
			Help: "SSE stream connect/disconnect events.",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vppmon_streams_active",
			Help: "Currently open SSE streams.",
		},
	)

	streamMessages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vppmon_stream_messages_total",
			Help: "SSE data messages sent.",
		},
	)

	streamBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vppmon_stream_bytes_total",
			Help: "Bytes written to SSE streams.",
		},
	)

	streamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vppmon_stream_errors_total",
			Help: "SSE stream errors by reason.",
		},
		[]string{"reason"},
	)

	publishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vppmon_publish_total",
			Help: "Widget snapshots published to the message bus by result.",
		},
		[]string{"widget", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		boundaryFetchTotal,
		boundaryFetchDuration,
		boundaryLayerState,
		boundaryFeatures,
		boundaryCacheErrors,
		sceneBuildDuration,
		sceneLayerRebuilds,
		sceneLayerPoints,
		widgetTicks,
		streamConnections,
		streamsActive,
		streamMessages,
		streamBytes,
		streamErrors,
		publishTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// knownRoutes are the exact paths exposed by the API server.
var knownRoutes = map[string]bool{
	"/":                        true,
	"/healthz":                 true,
	"/readyz":                  true,
	"/metrics":                 true,
	"/app.js":                  true,
	"/styles.css":              true,
	"/index.html":              true,
	"/api/v1/dashboard":        true,
	"/api/v1/scene":            true,
	"/api/v1/scene/stats":      true,
	"/api/v1/boundaries":       true,
	"/api/v1/stream/dashboard": true,
}

// normalizeRoute collapses unknown paths to a single label so scanners and
// bots cannot blow up label cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so SSE keeps working behind the middleware.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying connection.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}

// ObserveBoundaryFetch records one boundary fetch attempt.
func ObserveBoundaryFetch(layer, result string, d time.Duration) {
	boundaryFetchTotal.WithLabelValues(layer, result).Inc()
	boundaryFetchDuration.WithLabelValues(layer).Observe(d.Seconds())
}

// SetBoundaryLayerState marks state as the current state of layer.
func SetBoundaryLayerState(layer, state string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		boundaryLayerState.WithLabelValues(layer, s).Set(v)
	}
}

// SetBoundaryFeatures sets the loaded feature count for layer.
func SetBoundaryFeatures(layer string, n int) {
	boundaryFeatures.WithLabelValues(layer).Set(float64(n))
}

// IncBoundaryCacheErrors counts a failed cache operation.
func IncBoundaryCacheErrors(backend, op string) {
	boundaryCacheErrors.WithLabelValues(backend, op).Inc()
}

// ObserveSceneBuild records how long a frame took to assemble.
func ObserveSceneBuild(d time.Duration) {
	sceneBuildDuration.Observe(d.Seconds())
}

// IncSceneLayerRebuilds counts a border layer rebuild.
func IncSceneLayerRebuilds() {
	sceneLayerRebuilds.Inc()
}

// SetSceneLayerPoints sets the sampled point count for a scene layer.
func SetSceneLayerPoints(layer string, n int) {
	sceneLayerPoints.WithLabelValues(layer).Set(float64(n))
}

// IncWidgetTicks counts one refresh of a simulated widget.
func IncWidgetTicks(widget string) {
	widgetTicks.WithLabelValues(widget).Inc()
}

// IncStreamConnections counts a stream connect or disconnect event.
func IncStreamConnections(event string) {
	streamConnections.WithLabelValues(event).Inc()
}

// IncStreamsActive increments the active stream gauge.
func IncStreamsActive() {
	streamsActive.Inc()
}

// DecStreamsActive decrements the active stream gauge.
func DecStreamsActive() {
	streamsActive.Dec()
}

// IncStreamMessages counts one SSE data message.
func IncStreamMessages() {
	streamMessages.Inc()
}

// AddStreamBytes adds n written bytes.
func AddStreamBytes(n int64) {
	streamBytes.Add(float64(n))
}

// IncStreamErrors counts a stream error by reason.
func IncStreamErrors(reason string) {
	streamErrors.WithLabelValues(reason).Inc()
}

// IncPublish counts a snapshot publish attempt.
func IncPublish(widget, result string) {
	publishTotal.WithLabelValues(widget, result).Inc()
}
