package boundary

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	gojson "github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"
)

// ErrNoFeatures is returned when a document has no "features" array.
var ErrNoFeatures = errors.New("boundary document has no features array")

// rawCollection splits a FeatureCollection into independently decoded features
// so one bad feature cannot discard the whole document.
type rawCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// nameKeys are the property keys checked, in order, for a feature label.
var nameKeys = []string{"name", "NAME", "admin", "ADMIN"}

// Parse decodes a GeoJSON FeatureCollection. Features whose geometry cannot be
// decoded are kept with a nil Geometry and logged at debug level, so callers
// see the same feature count as the source.
func Parse(data []byte, logger *slog.Logger) ([]Feature, error) {
	var rc rawCollection
	if err := gojson.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("decoding feature collection: %w", err)
	}
	if rc.Features == nil {
		return nil, ErrNoFeatures
	}

	features := make([]Feature, 0, len(rc.Features))
	var malformed int
	for i, raw := range rc.Features {
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			malformed++
			logger.Debug("skipping malformed boundary feature geometry", "index", i, "error", err)
			features = append(features, Feature{})
			continue
		}
		features = append(features, Feature{
			Name:     featureName(f.Properties),
			Geometry: f.Geometry,
		})
	}

	if malformed > 0 {
		logger.Warn("boundary document contained malformed features",
			"features", len(features),
			"malformed", malformed,
		)
	}
	return features, nil
}

func featureName(props geojson.Properties) string {
	for _, k := range nameKeys {
		if s := props.MustString(k, ""); s != "" {
			return s
		}
	}
	return ""
}
