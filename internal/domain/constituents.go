package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Constituent is an immutable catalog entry for a harmonic constituent.
type Constituent struct {
	Name string
	// Lunar holds the Doodson multipliers on (Cm, s, h, p, N, p').
	Lunar [6]int
	// Solar holds the multipliers on (H, s, h, p, N, p'), using Cm = H - s + h.
	Solar [6]int
	// Omega is the angular speed in rad/s.
	Omega float64
	// PhaseOrigin is the phase offset in degrees.
	PhaseOrigin float64
	// Family is the nodal group this constituent belongs to under GroupScheme.
	Family string
}

// Species returns the first Doodson number (0 long period, 1 diurnal, 2 semidiurnal, ...).
func (c Constituent) Species() int {
	return c.Lunar[0]
}

// SpeedDegPerHr returns the angular speed in degrees per hour.
func (c Constituent) SpeedDegPerHr() float64 {
	return Rad2Deg(c.Omega) * 3600
}

// ConstituentParam holds the amplitude and phase for a specific location.
type ConstituentParam struct {
	Name       string
	AmplitudeM float64 // Amplitude in meters.
	PhaseDeg   float64 // Phase in degrees.
}

type doodsonEntry struct {
	name   string
	lunar  [4]int
	origin float64
}

// Canonical catalog order. Regression tables depend on it.
//
//nolint:gochecknoglobals // Read-only table.
var doodsonTable = []doodsonEntry{
	{"Z0", [4]int{0, 0, 0, 0}, 0},
	// Diurnal.
	{"K1", [4]int{1, 1, 0, 0}, 90},
	{"O1", [4]int{1, -1, 0, 0}, -90},
	{"Q1", [4]int{1, -2, 0, 1}, -90},
	{"P1", [4]int{1, 1, -2, 0}, -90},
	{"S1", [4]int{1, 1, -1, 0}, 180},
	{"J1", [4]int{1, 2, 0, -1}, 90},
	{"M1", [4]int{1, 0, 0, 0}, 0},
	// Semidiurnal.
	{"M2", [4]int{2, 0, 0, 0}, 0},
	{"S2", [4]int{2, 2, -2, 0}, 0},
	{"N2", [4]int{2, -1, 0, 1}, 0},
	{"K2", [4]int{2, 2, 0, 0}, 0},
	{"L2", [4]int{2, 1, 0, -1}, 180},
	{"LAMBDA2", [4]int{2, 1, -2, 1}, 180},
	{"EPS2", [4]int{2, -3, 2, 1}, 0},
	{"R2", [4]int{2, 2, -1, 0}, 180},
	{"2N2", [4]int{2, -2, 0, 2}, 0},
	{"MU2", [4]int{2, -2, 2, 0}, 0},
	{"NU2", [4]int{2, -1, 2, -1}, 0},
	{"T2", [4]int{2, 2, -3, 0}, 0},
	{"ETA2", [4]int{2, 3, 0, -1}, 0},
	{"MSN2", [4]int{2, 3, -2, -1}, 0},
	{"MNS2", [4]int{2, -3, 2, 1}, 0},
	{"3M2S2", [4]int{2, -4, 4, 0}, 0},
	{"2SM2", [4]int{2, 4, -4, 0}, 0},
	// Compound and shallow water.
	{"MKS2", [4]int{2, 0, 2, 0}, 0},
	{"MK3", [4]int{3, 1, 0, 0}, 0},
	{"MO3", [4]int{3, -1, 0, 0}, 0},
	{"MS4", [4]int{4, 2, -2, 0}, 0},
	{"MN4", [4]int{4, -1, 0, 1}, 0},
	{"N4", [4]int{4, -2, 0, 2}, 0},
	{"S4", [4]int{4, 4, -4, 0}, 0},
	{"2MK6", [4]int{6, 2, 0, 0}, 0},
	{"2MS6", [4]int{6, 2, -2, 0}, 0},
	// Long period.
	{"MF", [4]int{0, 2, 0, 0}, 0},
	{"MSF", [4]int{0, 2, -2, 0}, 0},
	{"MM", [4]int{0, 1, 0, -1}, 0},
	{"MTM", [4]int{0, 3, 0, -1}, 0},
	{"MFM", [4]int{0, 3, 0, -1}, 0},
	{"MT", [4]int{0, 3, 0, -1}, 0},
	{"MSM", [4]int{0, 1, -2, 1}, 0},
	{"MSQM", [4]int{0, 4, -2, 0}, 0},
	{"SSA", [4]int{0, 0, 2, 0}, 0},
	{"SA", [4]int{0, 0, 1, 0}, 0},
}

// Perihelion terms.
//
//nolint:gochecknoglobals // Read-only table.
var perihelionTerms = map[string]int{"R2": -1, "T2": 1}

type catalog struct {
	order  []string
	byName map[string]Constituent
}

//nolint:gochecknoglobals // Built once, never mutated.
var registry = buildCatalog()

func buildCatalog() catalog {
	entries := append([]doodsonEntry(nil), doodsonTable...)
	for n := 3; n <= 12; n++ {
		origin := 0.0
		if n == 3 {
			origin = 180
		}
		entries = append(entries, doodsonEntry{"M" + strconv.Itoa(n), [4]int{n, 0, 0, 0}, origin})
	}

	cat := catalog{
		order:  make([]string, 0, len(entries)),
		byName: make(map[string]Constituent, len(entries)),
	}
	for _, e := range entries {
		c := Constituent{Name: e.name, PhaseOrigin: e.origin, Family: groupFamilyOf(e.name)}
		copy(c.Lunar[:4], e.lunar[:])
		c.Lunar[5] = perihelionTerms[e.name]

		c.Solar = c.Lunar
		c.Solar[1] -= c.Lunar[0]
		c.Solar[2] += c.Lunar[0]

		for k, m := range c.Lunar {
			c.Omega += float64(m) * AstronomicalOmegas[k]
		}

		cat.order = append(cat.order, e.name)
		cat.byName[e.name] = c
	}
	return cat
}

// LookupConstituent returns the catalog entry for name (case-insensitive).
func LookupConstituent(name string) (Constituent, error) {
	c, ok := registry.byName[strings.ToUpper(name)]
	if !ok {
		return Constituent{}, fmt.Errorf("%w: %s", ErrUnsupportedConstituent, name)
	}
	return c, nil
}

// ConstituentNames returns all catalog names in canonical order.
func ConstituentNames() []string {
	return append([]string(nil), registry.order...)
}

// Catalog returns all catalog entries in canonical order.
func Catalog() []Constituent {
	out := make([]Constituent, 0, len(registry.order))
	for _, name := range registry.order {
		out = append(out, registry.byName[name])
	}
	return out
}

// argument returns the Greenwich argument in radians at the given ephemeris state.
func (c Constituent) argument(e EphemerisState) float64 {
	v := e.Vector()
	sum := c.PhaseOrigin
	for k, m := range c.Solar {
		sum += float64(m) * v[k]
	}
	return Deg2Rad(sum)
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
