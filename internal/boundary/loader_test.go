package boundary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func geojsonServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoaderLoadsAllLayers(t *testing.T) {
	world := geojsonServer(t, http.StatusOK, sampleCollection)
	china := geojsonServer(t, http.StatusOK, `{"type":"FeatureCollection","features":[]}`)

	store := NewStore(LayerWorld, LayerChina)
	diskCache := NewDiskCache(t.TempDir(), 3)
	l := NewLoader(store, LoaderConfig{
		Sources: []Source{
			{Layer: LayerWorld, URL: world.URL},
			{Layer: LayerChina, URL: china.URL},
		},
		FetchEnabled: true,
	}, []Cache{diskCache}, testLogger)

	l.Load(context.Background())

	if !store.Ready() {
		t.Fatal("store not ready after Load")
	}
	w := store.Get(LayerWorld)
	if w.State != StateLoaded || w.Document.Origin != OriginRemote {
		t.Errorf("world = %s/%v, want loaded from remote", w.State, w.Document)
	}
	if len(w.Document.Features) != 2 {
		t.Errorf("world features = %d, want 2", len(w.Document.Features))
	}

	c := store.Get(LayerChina)
	if c.State != StateLoaded {
		t.Errorf("china state = %s, want loaded (empty document is still loaded)", c.State)
	}

	if _, _, err := diskCache.Load(context.Background(), LayerWorld); err != nil {
		t.Errorf("fetched document not written to cache: %v", err)
	}
}

func TestLoaderFailureMarksFailed(t *testing.T) {
	bad := geojsonServer(t, http.StatusInternalServerError, "")
	good := geojsonServer(t, http.StatusOK, sampleCollection)

	store := NewStore(LayerWorld, LayerChina)
	l := NewLoader(store, LoaderConfig{
		Sources: []Source{
			{Layer: LayerWorld, URL: good.URL},
			{Layer: LayerChina, URL: bad.URL},
		},
		FetchEnabled: true,
	}, nil, testLogger)

	l.Load(context.Background())

	if st := store.Get(LayerChina); st.State != StateFailed || st.Error == "" {
		t.Errorf("china = %s/%q, want failed with error", st.State, st.Error)
	}
	if st := store.Get(LayerWorld); st.State != StateLoaded {
		t.Errorf("world state = %s, want loaded (layers are independent)", st.State)
	}
	if !store.Ready() {
		t.Error("failed layers should not block readiness")
	}
}

func TestLoaderFallsBackToCache(t *testing.T) {
	bad := geojsonServer(t, http.StatusBadGateway, "")

	store := NewStore(LayerWorld)
	diskCache := NewDiskCache(t.TempDir(), 3)
	cachedAt := time.Unix(1_700_000_000, 0)
	if err := diskCache.Save(context.Background(), LayerWorld, []byte(sampleCollection), cachedAt); err != nil {
		t.Fatalf("Save: %v", err)
	}

	l := NewLoader(store, LoaderConfig{
		Sources:      []Source{{Layer: LayerWorld, URL: bad.URL}},
		FetchEnabled: true,
	}, []Cache{diskCache}, testLogger)
	l.Load(context.Background())

	st := store.Get(LayerWorld)
	if st.State != StateLoaded {
		t.Fatalf("state = %s, want loaded from cache", st.State)
	}
	if st.Document.Origin != OriginDiskCache {
		t.Errorf("origin = %q, want %q", st.Document.Origin, OriginDiskCache)
	}
	if !st.Document.FetchedAt.Equal(cachedAt) {
		t.Errorf("FetchedAt = %v, want %v", st.Document.FetchedAt, cachedAt)
	}
}

func TestLoaderNotModifiedKeepsCache(t *testing.T) {
	cachedAt := time.Unix(1_700_000_000, 0)
	var gotSince string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSince = r.Header.Get("If-Modified-Since")
		w.WriteHeader(http.StatusNotModified)
	}))
	t.Cleanup(srv.Close)

	store := NewStore(LayerWorld)
	diskCache := NewDiskCache(t.TempDir(), 3)
	if err := diskCache.Save(context.Background(), LayerWorld, []byte(sampleCollection), cachedAt); err != nil {
		t.Fatalf("Save: %v", err)
	}

	l := NewLoader(store, LoaderConfig{
		Sources:      []Source{{Layer: LayerWorld, URL: srv.URL}},
		FetchEnabled: true,
	}, []Cache{diskCache}, testLogger)
	l.Load(context.Background())

	if want := cachedAt.UTC().Format(http.TimeFormat); gotSince != want {
		t.Errorf("If-Modified-Since = %q, want %q", gotSince, want)
	}
	st := store.Get(LayerWorld)
	if st.State != StateLoaded || st.Document.Origin != OriginDiskCache {
		t.Errorf("layer = %s/%v, want loaded from disk cache", st.State, st.Document)
	}
}

func TestLoaderFetchDisabled(t *testing.T) {
	store := NewStore(LayerWorld, LayerChina)
	diskCache := NewDiskCache(t.TempDir(), 3)
	diskCache.Save(context.Background(), LayerChina, []byte(sampleCollection), time.Now())

	l := NewLoader(store, LoaderConfig{
		Sources: []Source{
			{Layer: LayerWorld, URL: "http://127.0.0.1:1/unused"},
			{Layer: LayerChina, URL: "http://127.0.0.1:1/unused"},
		},
	}, []Cache{diskCache}, testLogger)
	l.Load(context.Background())

	if st := store.Get(LayerWorld); st.State != StateFailed {
		t.Errorf("world state = %s, want failed (no cache, fetch disabled)", st.State)
	}
	if st := store.Get(LayerChina); st.State != StateLoaded {
		t.Errorf("china state = %s, want loaded from cache", st.State)
	}
}

func TestLoaderMissingFeaturesFails(t *testing.T) {
	srv := geojsonServer(t, http.StatusOK, `{"type":"FeatureCollection"}`)
	store := NewStore(LayerWorld)
	l := NewLoader(store, LoaderConfig{
		Sources:      []Source{{Layer: LayerWorld, URL: srv.URL}},
		FetchEnabled: true,
	}, nil, testLogger)
	l.Load(context.Background())

	if st := store.Get(LayerWorld); st.State != StateFailed {
		t.Errorf("state = %s, want failed", st.State)
	}
}

func TestLoaderSerializesConcurrentLoads(t *testing.T) {
	var inFlight, peak, hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		hits.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(sampleCollection))
	}))
	t.Cleanup(srv.Close)

	store := NewStore(LayerWorld)
	l := NewLoader(store, LoaderConfig{
		Sources:      []Source{{Layer: LayerWorld, URL: srv.URL}},
		FetchEnabled: true,
	}, nil, testLogger)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Load(context.Background())
		}()
	}
	wg.Wait()

	if hits.Load() != 3 {
		t.Errorf("fetches = %d, want 3", hits.Load())
	}
	if peak.Load() != 1 {
		t.Errorf("concurrent fetches peaked at %d, want 1", peak.Load())
	}
	if st := store.Get(LayerWorld); st.State != StateLoaded {
		t.Errorf("world state = %s, want loaded", st.State)
	}
}
