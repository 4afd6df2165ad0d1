// Package stream implements Server-Sent Events (SSE) streaming of the live
// dashboard. Clients connect via GET /api/v1/stream/dashboard and receive the
// combined widget snapshot plus the packet positions on every interval.
//
// SSE message format:
//
//	data: {"type":"dashboard","t":"2026-02-06T04:00:00Z","elapsed":12.5,"dashboard":{...},"packets":[...]}\n\n
//
// First message is always metadata:
//
//	data: {"type":"metadata","stream_id":"...","scene_version":2,"layers":[...]}\n\n
//
// A new metadata message is sent whenever the scene version changes, so
// clients know to refetch the scene. Keep-alive comments (:\n\n) are sent
// every KeepaliveInterval.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/zuoanCo/visual-modal/internal/boundary"
	"github.com/zuoanCo/visual-modal/internal/httputil"
	"github.com/zuoanCo/visual-modal/internal/metrics"
	"github.com/zuoanCo/visual-modal/internal/scene"
	"github.com/zuoanCo/visual-modal/internal/simulate"
)

// Config holds streaming configuration.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	MaxTotal           int           // Max concurrent streams overall (default: 1000).
	BandwidthLimit     int           // Bytes per second per stream (default: 1048576).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	TrustProxy         bool          // Use X-Forwarded-For for the per-IP limit.
}

// Dashboard supplies widget snapshots.
type Dashboard interface {
	Snapshot() simulate.Snapshot
}

// Scene supplies the animation clock, packet positions and scene version.
type Scene interface {
	Elapsed() float64
	Packets(elapsed float64) []scene.Packet
	Version(ctx context.Context) uint64
}

// Layers supplies boundary layer states.
type Layers interface {
	Snapshot() []boundary.LayerStatus
}

// Handler manages SSE streaming connections.
type Handler struct {
	dashboard Dashboard
	scene     Scene
	layers    Layers
	config    Config
	limiter   *streamLimiter
	logger    *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(dashboard Dashboard, sc Scene, layers Layers, config Config, logger *slog.Logger) *Handler {
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	if config.BandwidthLimit <= 0 {
		config.BandwidthLimit = 1 << 20
	}
	return &Handler{
		dashboard: dashboard,
		scene:     sc,
		layers:    layers,
		config:    config,
		limiter:   newStreamLimiter(config.MaxConcurrentPerIP, config.MaxTotal),
		logger:    logger,
	}
}

// HandleDashboard serves the SSE dashboard stream.
// GET /api/v1/stream/dashboard?interval=1
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	interval := 1
	if v := r.URL.Query().Get("interval"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 60 {
			httputil.WriteError(w, http.StatusBadRequest, "invalid interval parameter, must be 1-60")
			return
		}
		interval = n
	}

	// Admission: per-address and global concurrent stream caps.
	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if err := h.limiter.acquire(ip); err != nil {
		metrics.IncStreamErrors(limitReason(err))
		h.logger.Warn("stream rejected",
			"remote_ip", ip,
			"reason", limitReason(err),
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Retry-After", "30")
		httputil.WriteError(w, http.StatusTooManyRequests, err.Error())
		return
	}

	streamID := uuid.NewString()
	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"stream_id", streamID,
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
		"interval", interval,
	)

	defer func() {
		h.limiter.release(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"stream_id", streamID,
			"remote_ip", ip,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Clear the server's default WriteTimeout for this connection.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	ctx := r.Context()
	c := &client{
		w:       w,
		flusher: flusher,
		rc:      rc,
		limiter: rate.NewLimiter(rate.Limit(h.config.BandwidthLimit), h.config.BandwidthLimit),
		id:      streamID,
		logger:  h.logger,
	}

	// Jittered retry interval (3-7s) spreads reconnects after a restart.
	retryMs := 3000 + rand.Intn(4000)
	if err := c.sendRaw(ctx, []byte(fmt.Sprintf("retry: %d\n\n", retryMs))); err != nil {
		return
	}

	version := h.scene.Version(ctx)
	if err := c.sendJSON(ctx, h.metadata(streamID, version, interval)); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (metadata)", "stream_id", streamID, "error", err)
		return
	}

	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()

	keepaliveTicker := time.NewTicker(h.config.KeepaliveInterval)
	defer keepaliveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case t := <-ticker.C:
			if v := h.scene.Version(ctx); v != version {
				version = v
				if err := c.sendJSON(ctx, h.metadata(streamID, version, interval)); err != nil {
					metrics.IncStreamErrors("send_error")
					h.logger.Warn("stream send error (metadata)", "stream_id", streamID, "error", err)
					return
				}
			}

			msg := h.dashboardMessage(t, version)
			data, err := gojson.Marshal(msg)
			if err != nil {
				metrics.IncStreamErrors("marshal_error")
				h.logger.Warn("stream marshal error", "stream_id", streamID, "error", err)
				continue
			}
			if err := c.sendData(ctx, data); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream send error", "stream_id", streamID, "error", err)
				return
			}

			keepaliveTicker.Reset(h.config.KeepaliveInterval)

		case <-keepaliveTicker.C:
			if err := c.sendKeepalive(ctx); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "stream_id", streamID, "error", err)
				return
			}
		}
	}
}

func (h *Handler) metadata(streamID string, version uint64, interval int) metadataMessage {
	states := h.layers.Snapshot()
	layers := make([]LayerPayload, len(states))
	for i, st := range states {
		layers[i] = NewLayerPayload(st)
	}
	return metadataMessage{
		Type:            "metadata",
		StreamID:        streamID,
		SceneVersion:    version,
		IntervalSeconds: interval,
		Layers:          layers,
	}
}

func (h *Handler) dashboardMessage(t time.Time, version uint64) dashboardMessage {
	elapsed := h.scene.Elapsed()
	return dashboardMessage{
		Type:         "dashboard",
		T:            t.UTC().Format(time.RFC3339),
		Elapsed:      elapsed,
		SceneVersion: version,
		Dashboard:    h.dashboard.Snapshot(),
		Packets:      h.scene.Packets(elapsed),
	}
}

// LayerPayload is the public view of one boundary layer.
type LayerPayload struct {
	Layer     boundary.Layer `json:"layer"`
	State     boundary.State `json:"state"`
	Origin    string         `json:"origin,omitempty"`
	Features  int            `json:"features"`
	FetchedAt string         `json:"fetched_at,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// NewLayerPayload converts a layer status for the wire.
func NewLayerPayload(st boundary.LayerStatus) LayerPayload {
	p := LayerPayload{
		Layer: st.Layer,
		State: st.State,
		Error: st.Error,
	}
	if d := st.Document; d != nil {
		p.Origin = d.Origin
		p.Features = len(d.Features)
		if !d.FetchedAt.IsZero() {
			p.FetchedAt = d.FetchedAt.UTC().Format(time.RFC3339)
		}
	}
	return p
}

// SSE message payload types.

type metadataMessage struct {
	Type            string         `json:"type"`
	StreamID        string         `json:"stream_id"`
	SceneVersion    uint64         `json:"scene_version"`
	IntervalSeconds int            `json:"interval_seconds"`
	Layers          []LayerPayload `json:"layers"`
}

type dashboardMessage struct {
	Type         string            `json:"type"`
	T            string            `json:"t"`
	Elapsed      float64           `json:"elapsed"`
	SceneVersion uint64            `json:"scene_version"`
	Dashboard    simulate.Snapshot `json:"dashboard"`
	Packets      []scene.Packet    `json:"packets"`
}
