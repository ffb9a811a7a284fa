package domain

import (
	"fmt"
	"math"
	"strings"
)

// NodalCorrection computes the 18.6-year amplitude factor f and phase correction u
// for a constituent. The astronomical arguments p, N and p' are in degrees; u is in radians.
type NodalCorrection interface {
	Factors(name string, p, n, pp float64) (f, u float64, err error)
}

type polyCoeff struct {
	f0, f1, f2, u1 float64
}

type polyTable map[string]polyCoeff

func (t polyTable) get(name string) polyCoeff {
	if c, ok := t[name]; ok {
		return c
	}
	return polyCoeff{f0: 1}
}

// PolynomialScheme evaluates f = f0 + f1 cos N + f2 cos²N and u = u1 sin N
// from a coefficient table. The zero value uses the Kowalik and Luick table.
type PolynomialScheme struct {
	table polyTable
}

// NewPolynomialScheme returns the default scheme.
func NewPolynomialScheme() PolynomialScheme {
	return PolynomialScheme{table: kowalikLuickTable}
}

// NewOTPSPolynomialScheme returns the variant used by the OTPS software.
func NewOTPSPolynomialScheme() PolynomialScheme {
	return PolynomialScheme{table: otpsTable}
}

// Factors implements NodalCorrection.
func (s PolynomialScheme) Factors(name string, _, n, _ float64) (float64, float64, error) {
	table := s.table
	if table == nil {
		table = kowalikLuickTable
	}
	name = strings.ToUpper(name)
	c, ok := table[name]
	if !ok {
		if _, known := registry.byName[name]; !known {
			return 0, 0, fmt.Errorf("%w: no nodal coefficients for %s", ErrUnsupportedConstituent, name)
		}
		c = polyCoeff{f0: 1}
	}
	cosN := math.Cos(Deg2Rad(n))
	sinN := math.Sin(Deg2Rad(n))
	return c.f0 + c.f1*cosN + c.f2*cosN*cosN, c.u1 * sinN, nil
}

// NodalFactors evaluates scheme for every name at the given ephemeris state.
func NodalFactors(scheme NodalCorrection, names []string, e EphemerisState) (f, u []float64, err error) {
	f = make([]float64, len(names))
	u = make([]float64, len(names))
	for i, name := range names {
		f[i], u[i], err = scheme.Factors(name, e.P, e.N, e.PP)
		if err != nil {
			return nil, nil, err
		}
	}
	return f, u, nil
}
