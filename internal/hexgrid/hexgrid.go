// Package hexgrid buckets geographic positions into H3 hexagonal
// cells. The grid is pure reference data: cells are computed on
// demand and never persisted on their own.
package hexgrid

import (
	"math"

	"github.com/uber/h3-go/v4"

	"github.com/yerzhan-m/utm-airspace/internal/geo"
)

// CellID is the textual H3 index of a grid cell. It is used as a map
// and database key; nothing outside this package needs to decode it.
type CellID string

// edgeLengthMeters is the average hexagon edge length per H3
// resolution, 0 through 15.
var edgeLengthMeters = [16]float64{
	1107712.591, 418676.0055, 158244.6558, 59810.85794,
	22606.3794, 8544.408276, 3229.482772, 1220.629759,
	461.3546837, 174.3756681, 65.90780749, 24.9108131,
	9.415526211, 3.559893033, 1.348574562, 0.509713273,
}

// Grid is a fixed-resolution hexagonal index over the service area.
type Grid struct {
	resolution int
	sampleStep float64 // meters between samples along a path segment
}

// NewGrid builds a grid at the given H3 resolution. sampleStepMeters
// bounds the sampling interval along route segments; it is clamped to
// half the cell edge length so thin crossings cannot slip between
// samples.
func NewGrid(resolution int, sampleStepMeters float64) *Grid {
	if resolution < 0 || resolution > 15 {
		resolution = 8
	}
	maxStep := edgeLengthMeters[resolution] / 2
	if sampleStepMeters <= 0 || sampleStepMeters > maxStep {
		sampleStepMeters = maxStep
	}
	return &Grid{resolution: resolution, sampleStep: sampleStepMeters}
}

func (g *Grid) Resolution() int { return g.resolution }

// CellOf returns the cell containing the point.
func (g *Grid) CellOf(p geo.Point) CellID {
	cell := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), g.resolution)
	return CellID(cell.String())
}

// CellCenter returns the center coordinate of the cell containing p.
func (g *Grid) CellCenter(p geo.Point) geo.Point {
	cell := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), g.resolution)
	ll := h3.CellToLatLng(cell)
	return geo.Point{Lat: ll.Lat, Lng: ll.Lng}
}

// NeighborsWithinRadius returns every cell that can contain a point
// within radiusMeters of p, as a k-ring around p's own cell. The ring
// is an over-approximation; callers needing exact distances filter
// afterwards.
func (g *Grid) NeighborsWithinRadius(p geo.Point, radiusMeters float64) []CellID {
	origin := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), g.resolution)
	if radiusMeters <= 0 {
		return []CellID{CellID(origin.String())}
	}

	// Adjacent cell centers are sqrt(3) edge lengths apart. The radius
	// is padded by two edge lengths: p sits up to one edge length off
	// its cell center, and an in-range point's cell center can sit up
	// to another edge length past the radius.
	edge := edgeLengthMeters[g.resolution]
	spacing := edge * math.Sqrt(3)
	k := int(math.Ceil((radiusMeters + 2*edge) / spacing))

	disk := origin.GridDisk(k)
	out := make([]CellID, 0, len(disk))
	for _, c := range disk {
		out = append(out, CellID(c.String()))
	}
	return out
}

// CellsCoveredByPath returns the deduplicated set of cells touched by
// the polyline, in first-touched order. Each segment is sampled at
// the grid's step so segments longer than a cell cannot skip cells
// they pass through.
func (g *Grid) CellsCoveredByPath(path []geo.Point) []CellID {
	seen := make(map[CellID]struct{})
	var out []CellID

	add := func(p geo.Point) {
		id := g.CellOf(p)
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	for i, p := range path {
		add(p)
		if i+1 >= len(path) {
			break
		}
		next := path[i+1]
		dist := geo.DistanceMeters(p, next)
		steps := int(dist / g.sampleStep)
		for s := 1; s <= steps; s++ {
			t := float64(s) / float64(steps+1)
			add(geo.Point{
				Lat: p.Lat + (next.Lat-p.Lat)*t,
				Lng: p.Lng + (next.Lng-p.Lng)*t,
			})
		}
	}
	return out
}
