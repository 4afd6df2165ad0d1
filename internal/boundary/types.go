package boundary

import (
	"time"

	"github.com/paulmach/orb"
)

// Layer names a boundary overlay drawn on the globe.
type Layer string

const (
	LayerWorld Layer = "world"
	LayerChina Layer = "china"
)

// State is the load state of a layer.
type State string

const (
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateFailed  State = "failed"
)

// States lists every State in display order.
var States = []State{StateLoading, StateLoaded, StateFailed}

// Origins of a loaded document.
const (
	OriginRemote    = "remote"
	OriginDiskCache = "disk-cache"
	OriginValkey    = "valkey"
)

// Feature is one region of a boundary document. Geometry is nil when the
// source feature had no usable geometry.
type Feature struct {
	Name     string
	Geometry orb.Geometry
}

// Document is a parsed boundary FeatureCollection.
type Document struct {
	Layer     Layer
	SourceURL string
	Origin    string
	FetchedAt time.Time
	Features  []Feature
}

// LayerStatus is an immutable view of one layer in the Store.
type LayerStatus struct {
	Layer     Layer
	State     State
	Document  *Document // nil unless State == StateLoaded
	Error     string
	UpdatedAt time.Time
}
