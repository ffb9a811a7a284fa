package domain

import (
	"fmt"
	"math"
)

// Equilibrium amplitudes in meters (Kantha and Clayson, table 6.1.1, after Desai 1996).
// Diurnal constituents smaller than J1 are left out, as are R2 and M3.
//
//nolint:gochecknoglobals // Read-only table.
var equilibriumAmplitudes = map[string]float64{
	"MF":  0.042017,
	"MM":  0.022191,
	"SSA": 0.019542,
	"MT":  0.008049,
	"MFM": 0.008049,
	"MTM": 0.008049,
	"MSM": 0.004239,
	"MSF": 0.003678,
	"SA":  0.003104,

	"K1": 0.142408,
	"O1": 0.101266,
	"P1": 0.047129,
	"Q1": 0.019387,
	"M1": 0.007965,
	"J1": 0.007965,

	"M2":      0.244102,
	"S2":      0.113572,
	"N2":      0.046735,
	"K2":      0.030875,
	"NU2":     0.008877,
	"MU2":     0.007463,
	"L2":      0.006899,
	"T2":      0.006636,
	"2N2":     0.006184,
	"EPS2":    0.001804,
	"LAMBDA2": 0.001800,
	"ETA2":    0.001727,
}

// EquilibriumConstituents returns the names with a tabulated equilibrium amplitude.
func EquilibriumConstituents() []string {
	var out []string
	for _, name := range registry.order {
		if _, ok := equilibriumAmplitudes[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// EquilibriumTide returns the equilibrium tide at lat, lon (degrees) sec seconds after
// t's epoch, using the nodal corrections currently bound on t.
func EquilibriumTide(t *Tides, lat, lon, sec float64) (float64, error) {
	if err := t.checkReady(); err != nil {
		return 0, err
	}
	phi, lambda := Deg2Rad(lat), Deg2Rad(lon)
	cosl2 := math.Cos(phi) * math.Cos(phi)
	// Legendre terms by species; P0 follows Cartwright and Tayler.
	legendre := [3]float64{1.5*cosl2 - 1, math.Sin(2 * phi), cosl2}

	eta := 0.0
	for i, c := range t.constituents {
		amp, ok := equilibriumAmplitudes[c.Name]
		if !ok {
			return 0, fmt.Errorf("%w: no equilibrium amplitude for %s", ErrUnsupportedConstituent, c.Name)
		}
		m := c.Species()
		eta += amp * legendre[m] * t.f[i] * math.Cos(t.omega[i]*sec+float64(m)*lambda+t.phi[i]+t.u[i])
	}
	return eta, nil
}
