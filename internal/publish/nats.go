// Package publish mirrors simulated widget snapshots onto NATS subjects so
// other services can consume the telemetry without polling the HTTP API.
package publish

import (
	"fmt"
	"log/slog"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/zuoanCo/visual-modal/internal/metrics"
	"github.com/zuoanCo/visual-modal/internal/simulate"
)

// DefaultSubjectPrefix is prepended to the widget name.
const DefaultSubjectPrefix = "vpp.metrics"

// DefaultWidgets are the widgets published when Config.Widgets is empty.
var DefaultWidgets = []string{simulate.WidgetSummary, simulate.WidgetStorage}

// Source looks up a widget snapshot by name.
type Source interface {
	WidgetSnapshot(widget string) (any, bool)
}

// Config holds publisher settings.
type Config struct {
	URL           string
	SubjectPrefix string
	Widgets       []string
}

type conn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends widget snapshots to NATS after every tick.
type Publisher struct {
	conn    conn
	nc      *nats.Conn // nil in tests
	source  Source
	prefix  string
	widgets map[string]bool
	logger  *slog.Logger
}

// NewPublisher connects to NATS. The connection retries in the background,
// so an unreachable server delays publishing rather than failing startup.
func NewPublisher(cfg Config, source Source, logger *slog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("vppmon"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "component", "publish", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "component", "publish", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	p := newPublisher(nc, cfg, source, logger)
	p.nc = nc
	logger.Info("nats publisher ready", "component", "publish", "url", cfg.URL, "prefix", p.prefix)
	return p, nil
}

func newPublisher(c conn, cfg Config, source Source, logger *slog.Logger) *Publisher {
	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	widgets := cfg.Widgets
	if len(widgets) == 0 {
		widgets = DefaultWidgets
	}
	set := make(map[string]bool, len(widgets))
	for _, w := range widgets {
		set[w] = true
	}
	return &Publisher{
		conn:    c,
		source:  source,
		prefix:  prefix,
		widgets: set,
		logger:  logger,
	}
}

// Subject returns the subject a widget is published on.
func (p *Publisher) Subject(widget string) string {
	return p.prefix + "." + widget
}

// OnTick publishes the snapshot of widget if it is selected. It has the
// signature of simulate.TickFunc.
func (p *Publisher) OnTick(widget string) {
	if !p.widgets[widget] {
		return
	}
	snap, ok := p.source.WidgetSnapshot(widget)
	if !ok {
		return
	}
	data, err := gojson.Marshal(snap)
	if err != nil {
		metrics.IncPublish(widget, "error")
		p.logger.Error("encoding widget snapshot failed", "component", "publish", "widget", widget, "error", err)
		return
	}
	if err := p.conn.Publish(p.Subject(widget), data); err != nil {
		metrics.IncPublish(widget, "error")
		p.logger.Warn("nats publish failed", "component", "publish", "widget", widget, "error", err)
		return
	}
	metrics.IncPublish(widget, "ok")
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}
