package webd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/tempd/api"
	"github.com/rotblauer/tempd/events"
	"github.com/rotblauer/tempd/field"
	"github.com/rotblauer/tempd/geo"
	"github.com/rotblauer/tempd/gradient"
	"github.com/rotblauer/tempd/metrics"
	"github.com/rotblauer/tempd/params"
	"github.com/rotblauer/tempd/raster"
	"github.com/rotblauer/tempd/source"
	"github.com/rotblauer/tempd/state"
)

// maxLoadBody caps POST /load bodies.
const maxLoadBody = 256 << 20

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func (s *WebDaemon) writeJSON(w http.ResponseWriter, status int, v any) {
	j, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to marshal response", "error", err)
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(j); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

type webDaemonStatus struct {
	StartedAt time.Time               `json:"started_at"`
	Uptime    string                  `json:"uptime"`
	Config    *params.WebDaemonConfig `json:"config"`
	WSOpen    bool                    `json:"ws_open"`
	WSConns   int                     `json:"ws_conns"`
	Metrics   metrics.Snapshot        `json:"metrics"`
	Current   *events.StackCommitted  `json:"current"`
	History   []events.StackCommitted `json:"history"`
	Places    int                     `json:"places_cached"`
}

func (s *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	st := webDaemonStatus{
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Config:    s.Config,
		WSOpen:    !s.melodyInstance.IsClosed(),
		WSConns:   s.melodyInstance.Len(),
		Metrics:   s.Globe.Metrics.Snapshot(),
		History:   s.history.Get(),
	}
	if c := s.Globe.Display.Current(); c != nil {
		ev := c.Event()
		st.Current = &ev
	}
	if s.geocoder != nil {
		st.Places = s.geocoder.Cached()
	}
	s.writeJSON(w, http.StatusOK, st)
}

// loadStatus maps load errors to HTTP statuses. Bad input is the
// client's fault. A stale load lost to a newer one.
func loadStatus(err error) int {
	switch {
	case errors.Is(err, source.ErrPayload),
		errors.Is(err, field.ErrConfiguration),
		errors.Is(err, field.ErrShapeMismatch),
		errors.Is(err, field.ErrCoordinate),
		errors.Is(err, field.ErrNonFinite),
		errors.Is(err, gradient.ErrUnknownPreset),
		errors.Is(err, gradient.ErrParse),
		errors.Is(err, gradient.ErrNoKeys),
		errors.Is(err, gradient.ErrKeyPosition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, state.ErrStale):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *WebDaemon) loadOptions(r *http.Request) (api.Options, error) {
	opts := api.Options{Level: s.Config.Level, Gradient: s.Config.Gradient}
	q := r.URL.Query()
	if v := q.Get("level"); v != "" {
		lvl, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("%w: level %q", field.ErrCoordinate, v)
		}
		opts.Level = lvl
	}
	if v := q.Get("gradient"); v != "" {
		opts.Gradient = v
	}
	return opts, nil
}

func (s *WebDaemon) load(w http.ResponseWriter, r *http.Request, src source.Source) {
	opts, err := s.loadOptions(r)
	if err != nil {
		s.writeJSON(w, loadStatus(err), errorResponse{err.Error()})
		return
	}
	c, err := s.Globe.Load(r.Context(), src, opts)
	if err != nil {
		s.writeJSON(w, loadStatus(err), errorResponse{err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, c.Event())
}

// handleLoad loads a JSON payload from the request body: values, extents,
// axis indices, and an optional bound.
func (s *WebDaemon) handleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Body == nil {
		http.Error(w, "Please send a request body", http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxLoadBody))
	if err != nil {
		s.logger.Error("Failed to read request body", "error", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	p, err := source.DecodeJSON(body)
	if err != nil {
		s.writeJSON(w, loadStatus(err), errorResponse{err.Error()})
		return
	}
	s.load(w, r, &source.Static{Label: "http", Payload: p})
}

// handleLoadNoise loads the synthetic noise dataset. Query params seed,
// time, lat, and lon override the defaults.
func (s *WebDaemon) handleLoadNoise(w http.ResponseWriter, r *http.Request) {
	config := params.DefaultNoiseConfig()
	q := r.URL.Query()
	// Extents are validated before anything is allocated.
	ints := map[string]*int{"time": &config.Time, "lat": &config.Lat, "lon": &config.Lon}
	for name, dst := range ints {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{fmt.Sprintf("bad %s: %q", name, v)})
			return
		}
		*dst = n
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{fmt.Sprintf("bad seed: %q", v)})
			return
		}
		config.Seed = seed
	}
	if err := config.Validate(); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}
	s.load(w, r, source.NewNoise(config))
}

// layerPath is the route handleLayerPNG serves timestep t on.
func layerPath(t int) string {
	return fmt.Sprintf("/stack/%d.png", t)
}

type stackResponse struct {
	events.StackCommitted
	Layout    *field.Layout    `json:"layout"`
	Summary   field.Summary    `json:"summary"`
	Grid      *geojson.Feature `json:"grid,omitempty"`
	AreaMeans []float64        `json:"area_means,omitempty"`
	Layers    []string         `json:"layers"`
}

func (s *WebDaemon) handleStack(w http.ResponseWriter, r *http.Request) {
	c := s.Globe.Display.Current()
	if c == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{"no stack loaded"})
		return
	}
	res := stackResponse{
		StackCommitted: c.Event(),
		Layout:         c.Field.Layout(),
		Summary:        c.Summary,
		AreaMeans:      c.AreaMeans,
	}
	if c.Grid != nil {
		res.Grid = c.Grid.Feature()
	}
	for t := 0; t < c.Stack.Len(); t++ {
		res.Layers = append(res.Layers, layerPath(t))
	}
	s.writeJSON(w, http.StatusOK, res)
}

// handleLayerPNG serves one timestep of the displayed stack. Encoded
// layers are cached per commit.
func (s *WebDaemon) handleLayerPNG(w http.ResponseWriter, r *http.Request) {
	c := s.Globe.Display.Current()
	if c == nil {
		http.Error(w, "no stack loaded", http.StatusNotFound)
		return
	}
	t, err := strconv.Atoi(mux.Vars(r)["t"])
	if err != nil || t < 0 || t >= c.Stack.Len() {
		http.Error(w, fmt.Sprintf("no layer %q", mux.Vars(r)["t"]), http.StatusNotFound)
		return
	}
	key := fmt.Sprintf("%d@%s/%s", c.Ticket, c.At.Format(time.RFC3339Nano), raster.LayerName(t))
	b, ok := s.encoded.Get(key)
	if !ok {
		buf := new(bytes.Buffer)
		if err := c.Stack.EncodePNG(buf, t); err != nil {
			s.logger.Error("Failed to encode layer", "t", t, "error", err)
			http.Error(w, "Failed to encode layer", http.StatusInternalServerError)
			return
		}
		b = buf.Bytes()
		s.encoded.Add(key, b)
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	if _, err := w.Write(b); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

type sampleResponse struct {
	T          int        `json:"t"`
	Lat        int        `json:"lat"`
	Lon        int        `json:"lon"`
	Level      int        `json:"level"`
	Raw        float64    `json:"raw"`
	Normalized float64    `json:"normalized"`
	Color      string     `json:"color"`
	Center     *orb.Point `json:"center,omitempty"`
	Place      *geo.Place `json:"place,omitempty"`
}

// handleSample reads one cell of the displayed stack by grid indices.
func (s *WebDaemon) handleSample(w http.ResponseWriter, r *http.Request) {
	c := s.Globe.Display.Current()
	if c == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{"no stack loaded"})
		return
	}
	q := r.URL.Query()
	var idx [3]int
	for i, name := range []string{"t", "lat", "lon"} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{fmt.Sprintf("bad %s: %q", name, v)})
			return
		}
		idx[i] = n
	}
	t, lat, lon := idx[0], idx[1], idx[2]
	level := c.Stack.Level

	raw, err := c.Field.RawValue(t, level, lat, lon)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}
	norm, _ := c.Field.NormalizedValue(t, level, lat, lon)
	px, _ := c.Stack.At(t, lat, lon)
	res := sampleResponse{
		T:          t,
		Lat:        lat,
		Lon:        lon,
		Level:      level,
		Raw:        raw,
		Normalized: norm,
		Color:      fmt.Sprintf("#%02x%02x%02x%02x", px.R, px.G, px.B, px.A),
	}
	if c.Grid != nil {
		center := c.Grid.CellCenter(lat, lon)
		res.Center = &center
		if s.geocoder != nil {
			place, err := s.geocoder.Place(center)
			if err != nil {
				s.logger.Warn("Reverse geocode failed", "error", err)
			} else {
				res.Place = &place
			}
		}
	}
	s.writeJSON(w, http.StatusOK, res)
}
