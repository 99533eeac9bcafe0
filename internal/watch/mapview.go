package watch

import (
	"context"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tronmegateam/statsgate/internal/stats"
)

// Marker is one renderable map point.
type Marker struct {
	Name     string
	Lat      float64
	Lng      float64
	Category string
	Country  string
	Votes    int64
	Rank     int
}

// NodeSource provides the node listing markers are built from.
type NodeSource interface {
	NodeRecords(ctx context.Context) []stats.NodeRecord
}

// Renderer receives the marker set to draw whenever it changes.
type Renderer interface {
	Render(markers []Marker)
}

// demoMarkers keep the map populated when no node resolves to a
// plottable location.
func demoMarkers() []Marker {
	return []Marker{
		{Name: "Singapore Hub", Lat: 1.3521, Lng: 103.8198, Category: "Super Rep"},
		{Name: "SF Hub", Lat: 37.7749, Lng: -122.4194, Category: "Cloud"},
		{Name: "Malta Exchange", Lat: 35.9375, Lng: 14.3754, Category: "Exchange"},
	}
}

// MapController owns the marker state for the node map: the full
// fetched set, the active category filter and the rendered subset.
type MapController struct {
	log      logrus.FieldLogger
	source   NodeSource
	renderer Renderer

	mu       sync.Mutex
	all      []Marker
	category string
}

// NewMapController creates a controller with the "all" filter
// active. renderer may be nil.
func NewMapController(
	log logrus.FieldLogger,
	source NodeSource,
	renderer Renderer,
) *MapController {
	return &MapController{
		log:      log.WithField("component", "watch_map"),
		source:   source,
		renderer: renderer,
		category: "all",
	}
}

// Load fetches the node listing, keeps only records with plottable
// coordinates, and renders through the active filter. When nothing
// valid remains the demonstration markers are used so the map is
// never empty.
func (m *MapController) Load(ctx context.Context) {
	records := m.source.NodeRecords(ctx)

	markers := make([]Marker, 0, len(records))

	for _, record := range records {
		if !plottable(record.Latitude, record.Longitude) {
			continue
		}

		markers = append(markers, Marker{
			Name:     record.Name,
			Lat:      record.Latitude,
			Lng:      record.Longitude,
			Category: record.Type,
			Country:  record.Country,
			Votes:    record.Votes,
			Rank:     record.Rank,
		})
	}

	if len(markers) == 0 {
		m.log.Debug("No plottable nodes, using demonstration markers")

		markers = demoMarkers()
	}

	m.mu.Lock()
	m.all = markers
	m.mu.Unlock()

	m.render()
}

// Filter re-renders the already-fetched marker set through a
// category predicate. It never triggers a fetch.
func (m *MapController) Filter(category string) {
	m.mu.Lock()
	m.category = category
	m.mu.Unlock()

	m.render()
}

// Markers returns the subset matching the active filter.
func (m *MapController) Markers() []Marker {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.filtered()
}

func (m *MapController) render() {
	if m.renderer == nil {
		return
	}

	m.mu.Lock()
	markers := m.filtered()
	m.mu.Unlock()

	m.renderer.Render(markers)
}

func (m *MapController) filtered() []Marker {
	if m.category == "" || m.category == "all" {
		out := make([]Marker, len(m.all))
		copy(out, m.all)

		return out
	}

	out := make([]Marker, 0, len(m.all))

	for _, marker := range m.all {
		if marker.Category == m.category {
			out = append(out, marker)
		}
	}

	return out
}

// plottable reports whether the coordinates are present and within
// valid ranges. A 0,0 pair counts as missing.
func plottable(lat, lng float64) bool {
	if lat == 0 && lng == 0 {
		return false
	}

	return math.Abs(lat) <= 90 && math.Abs(lng) <= 180
}
