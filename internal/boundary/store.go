package boundary

import (
	"sync/atomic"
	"time"
)

// Store provides lock-free reads of per-layer load state.
// Every layer starts in StateLoading.
type Store struct {
	order   []Layer
	layers  map[Layer]*atomic.Pointer[LayerStatus]
	version atomic.Uint64
}

// NewStore creates a Store tracking the given layers.
func NewStore(layers ...Layer) *Store {
	s := &Store{
		order:  layers,
		layers: make(map[Layer]*atomic.Pointer[LayerStatus], len(layers)),
	}
	now := time.Now()
	for _, l := range layers {
		p := &atomic.Pointer[LayerStatus]{}
		p.Store(&LayerStatus{Layer: l, State: StateLoading, UpdatedAt: now})
		s.layers[l] = p
	}
	return s
}

// Layers returns the tracked layers in registration order.
func (s *Store) Layers() []Layer {
	return s.order
}

// Get returns the current status of layer. Unknown layers report failed.
func (s *Store) Get(layer Layer) LayerStatus {
	p, ok := s.layers[layer]
	if !ok {
		return LayerStatus{Layer: layer, State: StateFailed, Error: "unknown layer"}
	}
	return *p.Load()
}

// Document returns the loaded document for layer, or nil.
func (s *Store) Document(layer Layer) *Document {
	p, ok := s.layers[layer]
	if !ok {
		return nil
	}
	return p.Load().Document
}

// SetLoaded publishes a loaded document for its layer.
func (s *Store) SetLoaded(doc *Document) {
	s.set(&LayerStatus{
		Layer:     doc.Layer,
		State:     StateLoaded,
		Document:  doc,
		UpdatedAt: time.Now(),
	})
}

// SetFailed marks layer as failed. The overlay is omitted from the scene.
func (s *Store) SetFailed(layer Layer, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	s.set(&LayerStatus{
		Layer:     layer,
		State:     StateFailed,
		Error:     msg,
		UpdatedAt: time.Now(),
	})
}

func (s *Store) set(st *LayerStatus) {
	p, ok := s.layers[st.Layer]
	if !ok {
		return
	}
	p.Store(st)
	s.version.Add(1)
}

// Version increases on every state change.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

// Ready reports whether no layer is still loading.
func (s *Store) Ready() bool {
	for _, l := range s.order {
		if s.layers[l].Load().State == StateLoading {
			return false
		}
	}
	return true
}

// Snapshot returns every layer status in registration order.
func (s *Store) Snapshot() []LayerStatus {
	out := make([]LayerStatus, 0, len(s.order))
	for _, l := range s.order {
		out = append(out, *s.layers[l].Load())
	}
	return out
}
