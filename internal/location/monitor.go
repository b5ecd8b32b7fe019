package location

import (
	"math"
	"sync"

	"github.com/sadopc/tracklet/internal/models"
)

const earthRadiusMeters = 6371000.0

// RegionEvent is a crossing of a monitored region. RegionID is the place id.
type RegionEvent struct {
	RegionID string
	Entered  bool
}

type region struct {
	place  models.Place
	inside bool
	known  bool
}

// Monitor tracks which registered places a device is inside.
type Monitor struct {
	mu      sync.Mutex
	regions map[string]*region
	order   []string
}

func NewMonitor() *Monitor {
	return &Monitor{regions: make(map[string]*region)}
}

// SetRegions replaces the monitored places. Places that stay registered keep
// their inside/outside state; disabled places are not monitored.
func (m *Monitor) SetRegions(places []*models.Place) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := make(map[string]*region, len(places))
	order := make([]string, 0, len(places))
	for _, p := range places {
		if !p.GeofenceEnabled {
			continue
		}
		r, ok := m.regions[p.ID]
		if !ok {
			r = &region{}
		}
		r.place = *p
		next[p.ID] = r
		order = append(order, p.ID)
	}
	m.regions = next
	m.order = order
}

// Update returns the crossings caused by moving to s, exits first. The first
// fix inside a region counts as an entry.
func (m *Monitor) Update(s models.LocationSample) []RegionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	var exits, enters []RegionEvent
	for _, id := range m.order {
		r := m.regions[id]
		inside := Distance(s.Latitude, s.Longitude, r.place.Latitude, r.place.Longitude) <= r.place.RadiusMeters
		switch {
		case inside && (!r.known || !r.inside):
			enters = append(enters, RegionEvent{RegionID: id, Entered: true})
		case !inside && r.known && r.inside:
			exits = append(exits, RegionEvent{RegionID: id})
		}
		r.inside = inside
		r.known = true
	}
	return append(exits, enters...)
}

// Inside lists the regions the last update was inside of.
func (m *Monitor) Inside() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, id := range m.order {
		if m.regions[id].inside {
			ids = append(ids, id)
		}
	}
	return ids
}

// Distance is the great-circle distance in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := lat1 * math.Pi / 180
	p2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(p1)*math.Cos(p2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
