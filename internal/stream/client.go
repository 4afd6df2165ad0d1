package stream

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gojson "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/zuoanCo/visual-modal/internal/metrics"
)

// writeTimeout bounds a single SSE write.
const writeTimeout = 30 * time.Second

// client manages a single SSE connection's write operations.
type client struct {
	w       http.ResponseWriter
	flusher http.Flusher
	rc      *http.ResponseController
	limiter *rate.Limiter
	id      string
	logger  *slog.Logger

	messagesSent int64
	bytesSent    int64
}

// sendJSON marshals v as JSON and sends it as an SSE "data:" message.
func (c *client) sendJSON(ctx context.Context, v any) error {
	data, err := gojson.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return c.sendData(ctx, data)
}

// sendData sends pre-encoded JSON as an SSE "data:" message.
// SSE format: "data: {json}\n\n"
func (c *client) sendData(ctx context.Context, data []byte) error {
	msg := make([]byte, 0, len(data)+8)
	msg = append(msg, "data: "...)
	msg = append(msg, data...)
	msg = append(msg, '\n', '\n')
	if err := c.sendRaw(ctx, msg); err != nil {
		return err
	}
	c.messagesSent++
	metrics.IncStreamMessages()
	return nil
}

// sendKeepalive sends an SSE comment line to keep the connection alive.
// SSE comment format: ":\n\n"
func (c *client) sendKeepalive(ctx context.Context) error {
	if err := c.sendRaw(ctx, []byte(":\n\n")); err != nil {
		return fmt.Errorf("keepalive: %w", err)
	}
	return nil
}

// sendRaw writes b after waiting for bandwidth, then flushes.
func (c *client) sendRaw(ctx context.Context, b []byte) error {
	if c.limiter != nil {
		n := len(b)
		if burst := c.limiter.Burst(); n > burst {
			n = burst
		}
		if err := c.limiter.WaitN(ctx, n); err != nil {
			return fmt.Errorf("bandwidth wait: %w", err)
		}
	}

	// Extend write deadline before each write to prevent timeout on long-lived connections.
	if err := c.rc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		c.logger.Debug("could not set write deadline", "stream_id", c.id, "error", err)
	}

	n, err := c.w.Write(b)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	c.flusher.Flush()
	c.bytesSent += int64(n)
	metrics.AddStreamBytes(int64(n))
	return nil
}
