package boundary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zuoanCo/visual-modal/internal/metrics"
)

// Source binds a layer to the URL it is fetched from.
type Source struct {
	Layer Layer
	URL   string
}

// LoaderConfig controls startup loading.
type LoaderConfig struct {
	Sources      []Source
	FetchEnabled bool
}

// Loader fetches boundary documents once at startup. Failures are logged and
// the layer is marked failed; there is no retry.
type Loader struct {
	store    *Store
	config   LoaderConfig
	fetchers map[Layer]*Fetcher
	caches   []Cache
	logger   *slog.Logger
	tracer   trace.Tracer

	mu sync.Mutex // one Load at a time
}

// NewLoader creates a Loader. caches are consulted in order on startup and
// all written after a successful fetch.
func NewLoader(store *Store, config LoaderConfig, caches []Cache, logger *slog.Logger) *Loader {
	fetchers := make(map[Layer]*Fetcher, len(config.Sources))
	for _, src := range config.Sources {
		fetchers[src.Layer] = NewFetcher(src.URL, logger)
	}
	return &Loader{
		store:    store,
		config:   config,
		fetchers: fetchers,
		caches:   caches,
		logger:   logger,
		tracer:   otel.Tracer("github.com/zuoanCo/visual-modal/internal/boundary"),
	}
}

// Load restores every layer from cache and then fetches it from its source,
// all layers concurrently. It returns once every layer has left StateLoading.
func (l *Loader) Load(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var wg conc.WaitGroup
	for _, src := range l.config.Sources {
		src := src
		wg.Go(func() {
			l.loadLayer(ctx, src)
		})
	}
	wg.Wait()

	for _, st := range l.store.Snapshot() {
		l.logger.Info("boundary layer settled",
			"component", "boundary",
			"layer", st.Layer,
			"state", st.State,
			"error", st.Error,
		)
	}
}

func (l *Loader) loadLayer(ctx context.Context, src Source) {
	cachedAt, restored := l.restoreFromCache(ctx, src)

	if !l.config.FetchEnabled {
		if !restored {
			l.markFailed(src.Layer, errors.New("fetch disabled and no cached copy"))
		}
		return
	}

	doc, raw, err := l.fetch(ctx, src, cachedAt)
	if errors.Is(err, ErrNotModified) {
		l.logger.Info("cached boundary document is current",
			"component", "boundary",
			"layer", src.Layer,
			"cached_at", cachedAt.UTC().Format(time.RFC3339),
		)
		return
	}
	if err != nil {
		l.logger.Error("boundary fetch failed",
			"component", "boundary",
			"layer", src.Layer,
			"url", src.URL,
			"error", err,
		)
		if !restored {
			l.markFailed(src.Layer, err)
		}
		return
	}

	l.publish(doc)
	for _, c := range l.caches {
		if err := c.Save(ctx, src.Layer, raw, doc.FetchedAt); err != nil {
			metrics.IncBoundaryCacheErrors(c.Name(), "save")
			l.logger.Warn("boundary cache write failed", "backend", c.Name(), "layer", src.Layer, "error", err)
		}
	}
}

// restoreFromCache publishes the first cached copy that parses and returns
// its timestamp. ok is false when no copy was published.
func (l *Loader) restoreFromCache(ctx context.Context, src Source) (cachedAt time.Time, ok bool) {
	for _, c := range l.caches {
		data, ts, err := c.Load(ctx, src.Layer)
		if err != nil {
			if !errors.Is(err, ErrCacheMiss) {
				metrics.IncBoundaryCacheErrors(c.Name(), "load")
				l.logger.Warn("boundary cache read failed", "backend", c.Name(), "layer", src.Layer, "error", err)
			}
			continue
		}

		features, err := Parse(data, l.logger)
		if err != nil {
			metrics.IncBoundaryCacheErrors(c.Name(), "parse")
			l.logger.Warn("failed to parse cached boundary document", "backend", c.Name(), "layer", src.Layer, "error", err)
			continue
		}

		l.publish(&Document{
			Layer:     src.Layer,
			SourceURL: src.URL,
			Origin:    c.Name(),
			FetchedAt: ts,
			Features:  features,
		})
		l.logger.Info("loaded boundary document from cache",
			"layer", src.Layer,
			"backend", c.Name(),
			"features", len(features),
			"cached_at", ts.UTC().Format(time.RFC3339),
		)
		return ts, true
	}
	return time.Time{}, false
}

// fetch downloads and parses src. A non-zero since makes the request
// conditional on the cached copy being stale.
func (l *Loader) fetch(ctx context.Context, src Source, since time.Time) (*Document, []byte, error) {
	ctx, span := l.tracer.Start(ctx, "boundary.fetch", trace.WithAttributes(
		attribute.String("boundary.layer", string(src.Layer)),
		attribute.String("http.url", src.URL),
	))
	defer span.End()

	start := time.Now()
	doc, raw, err := l.fetchAndParse(ctx, src, since)
	result := "ok"
	switch {
	case errors.Is(err, ErrNotModified):
		result = "not_modified"
	case err != nil:
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	default:
		span.SetAttributes(attribute.Int("boundary.features", len(doc.Features)))
	}
	metrics.ObserveBoundaryFetch(string(src.Layer), result, time.Since(start))
	return doc, raw, err
}

func (l *Loader) fetchAndParse(ctx context.Context, src Source, since time.Time) (*Document, []byte, error) {
	f, ok := l.fetchers[src.Layer]
	if !ok {
		return nil, nil, fmt.Errorf("no fetcher for layer %q", src.Layer)
	}

	raw, err := f.Fetch(ctx, since)
	if err != nil {
		return nil, nil, err
	}

	features, err := Parse(raw, l.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s boundary document: %w", src.Layer, err)
	}

	return &Document{
		Layer:     src.Layer,
		SourceURL: src.URL,
		Origin:    OriginRemote,
		FetchedAt: time.Now(),
		Features:  features,
	}, raw, nil
}

func (l *Loader) publish(doc *Document) {
	l.store.SetLoaded(doc)
	metrics.SetBoundaryFeatures(string(doc.Layer), len(doc.Features))
	metrics.SetBoundaryLayerState(string(doc.Layer), string(StateLoaded), stateNames())
}

func (l *Loader) markFailed(layer Layer, err error) {
	l.store.SetFailed(layer, err)
	metrics.SetBoundaryLayerState(string(layer), string(StateFailed), stateNames())
}

func stateNames() []string {
	out := make([]string, len(States))
	for i, s := range States {
		out[i] = string(s)
	}
	return out
}
