// Package ledger holds the authoritative in-memory view of airspace
// reservations. All mutation goes through a single mutex, which makes
// Reserve an atomic check-then-insert: of two racing reservations for
// an overlapping slot, exactly one wins and the other gets
// domain.ErrConflict.
package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/yerzhan-m/utm-airspace/internal/domain"
	"github.com/yerzhan-m/utm-airspace/internal/hexgrid"
)

// Slot addresses one hexagonal cell at one altitude band.
type Slot struct {
	Cell hexgrid.CellID
	Band int
}

// Interval is a half-open [Start, End) claim on a slot.
type Interval struct {
	Start           time.Time
	End             time.Time
	FlightRequestID int64
}

func (iv Interval) overlaps(start, end time.Time) bool {
	return iv.Start.Before(end) && start.Before(iv.End)
}

// BandFor discretizes an altitude into a band index.
func BandFor(altitudeMeters, bandSizeMeters float64) int {
	if bandSizeMeters <= 0 || altitudeMeters <= 0 {
		return 0
	}
	return int(altitudeMeters / bandSizeMeters)
}

type Ledger struct {
	mu       sync.RWMutex
	slots    map[Slot][]Interval // sorted by Start
	byFlight map[int64][]Slot
}

func New() *Ledger {
	return &Ledger{
		slots:    make(map[Slot][]Interval),
		byFlight: make(map[int64][]Slot),
	}
}

// Load seeds the ledger from persisted reservations, typically at
// startup. Overlaps in the input are trusted: the rows were written
// through Reserve in a previous run.
func (l *Ledger) Load(reservations []domain.Reservation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range reservations {
		slot := Slot{Cell: hexgrid.CellID(r.CellID), Band: r.AltitudeBand}
		l.insertLocked(slot, Interval{
			Start:           r.StartTime,
			End:             r.EndTime,
			FlightRequestID: r.FlightRequestID,
		})
	}
}

// Reserve claims every (cell, band) slot for the window. The overlap
// check and the insertion happen under one lock; on conflict nothing
// is inserted and domain.ErrConflict is returned.
func (l *Ledger) Reserve(flightID int64, cells []hexgrid.CellID, band int, start, end time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, cell := range cells {
		slot := Slot{Cell: cell, Band: band}
		for _, iv := range l.slots[slot] {
			if iv.FlightRequestID != flightID && iv.overlaps(start, end) {
				return domain.ErrConflict
			}
		}
	}

	for _, cell := range cells {
		slot := Slot{Cell: cell, Band: band}
		l.insertLocked(slot, Interval{Start: start, End: end, FlightRequestID: flightID})
	}
	return nil
}

// Release removes every claim held by the flight request. Releasing a
// request with no claims is a no-op.
func (l *Ledger) Release(flightID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, slot := range l.byFlight[flightID] {
		ivs := l.slots[slot]
		kept := ivs[:0]
		for _, iv := range ivs {
			if iv.FlightRequestID != flightID {
				kept = append(kept, iv)
			}
		}
		if len(kept) == 0 {
			delete(l.slots, slot)
		} else {
			l.slots[slot] = kept
		}
	}
	delete(l.byFlight, flightID)
}

// ActiveIntervalsFor returns the claims on a slot overlapping the
// query window, sorted by start time.
func (l *Ledger) ActiveIntervalsFor(cell hexgrid.CellID, band int, start, end time.Time) []Interval {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Interval
	for _, iv := range l.slots[Slot{Cell: cell, Band: band}] {
		if iv.overlaps(start, end) {
			out = append(out, iv)
		}
	}
	return out
}

// insertLocked keeps the slot's intervals ordered by start time.
func (l *Ledger) insertLocked(slot Slot, iv Interval) {
	ivs := l.slots[slot]
	idx := sort.Search(len(ivs), func(i int) bool { return ivs[i].Start.After(iv.Start) })
	ivs = append(ivs, Interval{})
	copy(ivs[idx+1:], ivs[idx:])
	ivs[idx] = iv
	l.slots[slot] = ivs

	l.byFlight[iv.FlightRequestID] = appendSlotOnce(l.byFlight[iv.FlightRequestID], slot)
}

func appendSlotOnce(slots []Slot, slot Slot) []Slot {
	for _, s := range slots {
		if s == slot {
			return slots
		}
	}
	return append(slots, slot)
}
