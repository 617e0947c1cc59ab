// Package geo implements the planar geometry used by airspace checks.
// Geographic inputs are projected onto a local tangent plane around a
// reference point before any distance or intersection math, so all
// results are in meters.
package geo

import "math"

const (
	// EarthRadiusMeters is Earth's mean radius for the haversine
	// formula.
	EarthRadiusMeters = 6371000.0

	// Meters per degree of longitude at the equator and per degree of
	// latitude. Longitude is scaled by cos(lat) at the projection
	// reference.
	metersPerDegreeLng = 111320.0
	metersPerDegreeLat = 110540.0
)

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Valid reports whether the coordinate is inside the WGS84 range.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceMeters returns the great-circle distance between two points
// in meters.
func DistanceMeters(a, b Point) float64 {
	const degToRad = math.Pi / 180
	lat1 := a.Lat * degToRad
	lat2 := b.Lat * degToRad
	dLat := (b.Lat - a.Lat) * degToRad
	dLng := (b.Lng - a.Lng) * degToRad

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Asin(math.Sqrt(h))
	return EarthRadiusMeters * c
}

// PointInCircle reports whether p lies within the closed disk of the
// given radius around center. The boundary is inclusive: a point at
// exactly radius meters is inside.
func PointInCircle(p, center Point, radiusMeters float64) bool {
	return DistanceMeters(p, center) <= radiusMeters
}

// project converts p to meters relative to ref on a local tangent
// plane. Good enough for the sub-ten-kilometer scales of drone routes.
func project(p, ref Point) (x, y float64) {
	latRad := ref.Lat * math.Pi / 180
	x = (p.Lng - ref.Lng) * metersPerDegreeLng * math.Cos(latRad)
	y = (p.Lat - ref.Lat) * metersPerDegreeLat
	return x, y
}

// SegmentIntersectsCircle reports whether the segment a-b passes
// through the closed disk around center. A zero-length segment is
// treated as a point.
func SegmentIntersectsCircle(a, b, center Point, radiusMeters float64) bool {
	x1, y1 := project(a, center)
	x2, y2 := project(b, center)

	dx := x2 - x1
	dy := y2 - y1

	qa := dx*dx + dy*dy
	if qa == 0 {
		return PointInCircle(a, center, radiusMeters)
	}

	qb := 2 * (x1*dx + y1*dy)
	qc := x1*x1 + y1*y1 - radiusMeters*radiusMeters

	disc := qb*qb - 4*qa*qc
	if disc < 0 {
		return false
	}

	disc = math.Sqrt(disc)
	t1 := (-qb - disc) / (2 * qa)
	t2 := (-qb + disc) / (2 * qa)

	// Entry or exit point within the segment, or the whole segment
	// inside the disk.
	return (t1 >= 0 && t1 <= 1) || (t2 >= 0 && t2 <= 1) || (t1 < 0 && t2 > 1)
}

// SegmentsIntersect reports whether segments a-b and c-d intersect,
// including shared endpoints and collinear overlap. The test runs in
// the local plane projected around a.
func SegmentsIntersect(a, b, c, d Point) bool {
	ax, ay := project(a, a)
	bx, by := project(b, a)
	cx, cy := project(c, a)
	dx, dy := project(d, a)

	o1 := orientation(ax, ay, bx, by, cx, cy)
	o2 := orientation(ax, ay, bx, by, dx, dy)
	o3 := orientation(cx, cy, dx, dy, ax, ay)
	o4 := orientation(cx, cy, dx, dy, bx, by)

	if o1 != o2 && o3 != o4 {
		return true
	}

	if o1 == 0 && onSegment(ax, ay, cx, cy, bx, by) {
		return true
	}
	if o2 == 0 && onSegment(ax, ay, dx, dy, bx, by) {
		return true
	}
	if o3 == 0 && onSegment(cx, cy, ax, ay, dx, dy) {
		return true
	}
	if o4 == 0 && onSegment(cx, cy, bx, by, dx, dy) {
		return true
	}
	return false
}

// orientation returns 0 for collinear, 1 for clockwise, 2 for
// counter-clockwise ordering of p, q, r.
func orientation(px, py, qx, qy, rx, ry float64) int {
	v := (qy-py)*(rx-qx) - (qx-px)*(ry-qy)
	switch {
	case math.Abs(v) < 1e-9:
		return 0
	case v > 0:
		return 1
	default:
		return 2
	}
}

// onSegment reports whether collinear point q lies on segment p-r.
func onSegment(px, py, qx, qy, rx, ry float64) bool {
	return qx <= math.Max(px, rx) && qx >= math.Min(px, rx) &&
		qy <= math.Max(py, ry) && qy >= math.Min(py, ry)
}

// PathIntersectsZone reports whether a route touches the closed disk:
// any waypoint inside the disk or any segment crossing it counts. A
// single-point path degrades to a point test.
func PathIntersectsZone(path []Point, center Point, radiusMeters float64) bool {
	for _, p := range path {
		if PointInCircle(p, center, radiusMeters) {
			return true
		}
	}
	for i := 0; i+1 < len(path); i++ {
		if SegmentIntersectsCircle(path[i], path[i+1], center, radiusMeters) {
			return true
		}
	}
	return false
}

// PathSelfIntersects reports whether any two non-adjacent segments of
// the path cross each other.
func PathSelfIntersects(path []Point) bool {
	for i := 0; i+1 < len(path); i++ {
		for j := i + 2; j+1 < len(path); j++ {
			// Adjacent segments share an endpoint; the first and last
			// segments of a closed loop are still compared.
			if i == 0 && j+2 == len(path) && path[0] == path[len(path)-1] {
				continue
			}
			if SegmentsIntersect(path[i], path[i+1], path[j], path[j+1]) {
				return true
			}
		}
	}
	return false
}
