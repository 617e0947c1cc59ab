// Package conflict implements the read-side conflict check for
// candidate flight routes: static intersection with restricted zones
// and dynamic overlap with existing airspace reservations. The check
// has no side effects; reserving is the approval flow's job.
package conflict

import (
	"context"
	"fmt"

	"github.com/yerzhan-m/utm-airspace/internal/domain"
	"github.com/yerzhan-m/utm-airspace/internal/geo"
	"github.com/yerzhan-m/utm-airspace/internal/hexgrid"
	"github.com/yerzhan-m/utm-airspace/internal/ledger"
)

// ZoneSource supplies the active restricted zones for the static
// check. Satisfied by the zone service (cache-backed snapshot).
type ZoneSource interface {
	ActiveZones(ctx context.Context) ([]domain.RestrictedZone, error)
}

type Detector struct {
	zones  ZoneSource
	grid   *hexgrid.Grid
	ledger *ledger.Ledger
}

func NewDetector(zones ZoneSource, grid *hexgrid.Grid, lg *ledger.Ledger) *Detector {
	return &Detector{zones: zones, grid: grid, ledger: lg}
}

// CheckConflicts tests a candidate route against every active
// restricted zone and against reservations overlapping the window at
// the given altitude band. The result is consistent as of one ledger
// and zone snapshot.
func (d *Detector) CheckConflicts(ctx context.Context, waypoints []domain.Waypoint, window domain.TimeWindow, band int) (*domain.ConflictResult, error) {
	result := &domain.ConflictResult{
		Waypoints: []domain.Waypoint{},
		Zones:     []domain.RestrictedZone{},
	}

	path := pathOf(waypoints)

	zones, err := d.zones.ActiveZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active zones: %w", err)
	}

	for _, zone := range zones {
		center := geo.Point{Lat: zone.CenterLat, Lng: zone.CenterLng}

		if geo.PathIntersectsZone(path, center, zone.Radius) {
			result.Zones = append(result.Zones, zone)
			result.Messages = append(result.Messages,
				fmt.Sprintf("route intersects restricted zone %q (radius %.0fm)", zone.Name, zone.Radius))
		}

		// Altitude ceiling applies per waypoint inside the zone.
		for _, wp := range waypoints {
			p := geo.Point{Lat: wp.Latitude, Lng: wp.Longitude}
			if wp.Altitude > zone.MaxAltitude && geo.PointInCircle(p, center, zone.Radius) {
				result.Messages = append(result.Messages,
					fmt.Sprintf("altitude %.0fm exceeds %.0fm ceiling of zone %q", wp.Altitude, zone.MaxAltitude, zone.Name))
			}
		}
	}

	// Dynamic check: reservations on the cells the route covers.
	cellWaypoints := d.waypointsByCell(waypoints)
	flagged := make(map[int]struct{})
	for _, cell := range d.grid.CellsCoveredByPath(path) {
		overlapping := d.ledger.ActiveIntervalsFor(cell, band, window.Start, window.End)
		if len(overlapping) == 0 {
			continue
		}
		for _, iv := range overlapping {
			result.Messages = append(result.Messages,
				fmt.Sprintf("cell %s band %d reserved by flight request %d from %s to %s",
					cell, band, iv.FlightRequestID,
					iv.Start.UTC().Format("15:04"), iv.End.UTC().Format("15:04")))
		}
		for _, idx := range cellWaypoints[cell] {
			if _, ok := flagged[idx]; !ok {
				flagged[idx] = struct{}{}
				result.Waypoints = append(result.Waypoints, waypoints[idx])
			}
		}
	}

	result.HasConflicts = len(result.Zones) > 0 || len(result.Waypoints) > 0 || len(result.Messages) > 0
	return result, nil
}

// waypointsByCell indexes waypoint positions by their containing cell
// so dynamic conflicts can be reported at waypoint granularity.
func (d *Detector) waypointsByCell(waypoints []domain.Waypoint) map[hexgrid.CellID][]int {
	out := make(map[hexgrid.CellID][]int, len(waypoints))
	for i, wp := range waypoints {
		cell := d.grid.CellOf(geo.Point{Lat: wp.Latitude, Lng: wp.Longitude})
		out[cell] = append(out[cell], i)
	}
	return out
}

func pathOf(waypoints []domain.Waypoint) []geo.Point {
	path := make([]geo.Point, len(waypoints))
	for i, wp := range waypoints {
		path[i] = geo.Point{Lat: wp.Latitude, Lng: wp.Longitude}
	}
	return path
}
