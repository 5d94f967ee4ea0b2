// Package ephemeris assembles GPS broadcast navigation subframes into
// per-satellite Keplerian orbital-element sets and evaluates them at a
// requested GPS time to produce ECEF positions.
package ephemeris

import (
	"sync"
	"time"

	"github.com/bramburn/gnssephemeris/internal/lnav"
)

// satelliteState is the per-SV pairing state: a completed element set,
// plus at most one subframe (2 or 3) awaiting its IODE-matching
// complement.
type satelliteState struct {
	current *OrbitalElements
	partial lnav.Subframe
}

// Store is process-scope GPS receiver state: the satellites known so
// far and the scalar offset between GPS time and the local clock. It is
// safe for concurrent use — the session driver writes on every incoming
// message, while the consumer reads a snapshot to answer position
// queries. The lock is never held across serial I/O or across
// Position, which is pure.
type Store struct {
	mu              sync.RWMutex
	timeCorrection  float64
	satellites      map[byte]*satelliteState
	now             func() time.Time
}

// NewStore returns an empty Store. now defaults to time.Now; tests may
// override it via WithClock.
func NewStore() *Store {
	return &Store{
		satellites: make(map[byte]*satelliteState),
		now:        time.Now,
	}
}

// WithClock overrides the clock used for GPSTime/SetTimeCorrection.
// Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *Store) unixNow() float64 {
	return float64(s.now().UnixNano()) / 1e9
}

// SetTimeCorrection latches the scalar offset between GPS time and the
// local clock, derived from an RXM-RAWX epoch's rcv_tow/week fields.
func (s *Store) SetTimeCorrection(gpsTime float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeCorrection = gpsTime - s.unixNow()
}

// GPSTime returns the current instant expressed in GPS seconds, per the
// most recently latched time correction.
func (s *Store) GPSTime() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unixNow() + s.timeCorrection
}

// ConsumeSubframe folds one LNAV subframe into the named satellite's
// pairing state. Only subframe 2 and 3 carry an IODE and participate in
// pairing; every other subframe is ignored. A newer partial subframe
// always replaces an older one of the same or mismatched IODE — only an
// opposite-kind partial with an equal IODE completes a pair.
func (s *Store) ConsumeSubframe(svID byte, subframe lnav.Subframe) {
	iode, ok := lnav.IODEOf(subframe)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sat, ok := s.satellites[svID]
	if !ok {
		sat = &satelliteState{}
		s.satellites[svID] = sat
	}

	if sat.partial != nil && oppositeKind(sat.partial, subframe) {
		if partialIODE, _ := lnav.IODEOf(sat.partial); partialIODE == iode {
			elements := fromSubframes(sat.partial, subframe)
			sat.current = &elements
			sat.partial = nil
			return
		}
	}
	sat.partial = subframe
}

func oppositeKind(a, b lnav.Subframe) bool {
	_, aIs2 := a.(lnav.Subframe2)
	_, bIs2 := b.(lnav.Subframe2)
	return aIs2 != bIs2
}

func fromSubframes(a, b lnav.Subframe) OrbitalElements {
	sf2, sf3, ok := asPair(a, b)
	if !ok {
		sf2, sf3, _ = asPair(b, a)
	}
	return OrbitalElements{
		M0:         sf2.M0,
		DeltaN:     sf2.DeltaN,
		E:          sf2.E,
		SqrtA:      sf2.SqrtA,
		Omega0:     sf3.Omega0,
		I0:         sf3.I0,
		OmegaSmall: sf3.OmegaSmall,
		OmegaDot:   sf3.OmegaDot,
		IDot:       sf3.IDot,
		CUc:        sf2.CUc,
		CUs:        sf2.CUs,
		CRc:        sf3.CRc,
		CRs:        sf2.CRs,
		CIc:        sf3.CIc,
		CIs:        sf3.CIs,
		TOE:        sf2.TOE,
	}
}

func asPair(a, b lnav.Subframe) (lnav.Subframe2, lnav.Subframe3, bool) {
	sf2, ok2 := a.(lnav.Subframe2)
	sf3, ok3 := b.(lnav.Subframe3)
	return sf2, sf3, ok2 && ok3
}

// SatelliteElements is one satellite's completed orbital-element set, as
// returned by CompleteSatellites.
type SatelliteElements struct {
	SVID     byte
	Elements OrbitalElements
}

// CompleteSatellites returns a snapshot of every satellite whose pairing
// state currently holds a completed element set. The snapshot is taken
// under lock and returned by value, so callers may evaluate Position on
// it without holding the Store's lock.
func (s *Store) CompleteSatellites() []SatelliteElements {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SatelliteElements, 0, len(s.satellites))
	for svID, sat := range s.satellites {
		if sat.current != nil {
			out = append(out, SatelliteElements{SVID: svID, Elements: *sat.current})
		}
	}
	return out
}
