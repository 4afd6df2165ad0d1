package api

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/zuoanCo/visual-modal/internal/httputil"
	"github.com/zuoanCo/visual-modal/internal/scene"
	"github.com/zuoanCo/visual-modal/internal/stream"
)

// dashboardHandler serves the combined widget snapshot.
// GET /api/v1/dashboard
func dashboardHandler(d Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, d.Snapshot())
	}
}

// sceneHandler serves one frame.
// GET /api/v1/scene?azimuth=0&polar=1.5708&distance=70&elapsed=12.5
func sceneHandler(s Scene) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cam := s.Config().Camera
		q := r.URL.Query()

		var err error
		if cam.Azimuth, err = floatParam(q, "azimuth", cam.Azimuth, math.Inf(-1), math.Inf(1)); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if cam.Polar, err = floatParam(q, "polar", cam.Polar, 0, math.Pi); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if cam.Distance, err = floatParam(q, "distance", cam.Distance, 0, math.Inf(1)); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		elapsed, err := floatParam(q, "elapsed", -1, 0, math.Inf(1))
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if elapsed < 0 {
			elapsed = s.Elapsed()
		}

		httputil.WriteJSON(w, http.StatusOK, s.Frame(r.Context(), cam, elapsed))
	}
}

// floatParam parses an optional finite query parameter within [lo, hi].
func floatParam(q url.Values, name string, def, lo, hi float64) (float64, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < lo || f > hi {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return f, nil
}

type sceneStatsResponse struct {
	Layers      scene.CacheStats `json:"layers"`
	Arcs        int              `json:"arcs"`
	EarthRadius float64          `json:"earth_radius"`
	Elapsed     float64          `json:"elapsed"`
}

// sceneStatsHandler reports layer cache statistics.
// GET /api/v1/scene/stats
func sceneStatsHandler(s Scene) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := s.Config()
		httputil.WriteJSON(w, http.StatusOK, sceneStatsResponse{
			Layers:      s.Stats(),
			Arcs:        len(cfg.Arcs),
			EarthRadius: cfg.EarthRadius,
			Elapsed:     s.Elapsed(),
		})
	}
}

type boundariesResponse struct {
	Ready  bool                  `json:"ready"`
	Layers []stream.LayerPayload `json:"layers"`
}

// boundariesHandler reports the load state of every boundary layer.
// GET /api/v1/boundaries
func boundariesHandler(l Layers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		states := l.Snapshot()
		resp := boundariesResponse{
			Ready:  l.Ready(),
			Layers: make([]stream.LayerPayload, len(states)),
		}
		for i, st := range states {
			resp.Layers[i] = stream.NewLayerPayload(st)
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}
