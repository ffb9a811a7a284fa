package domain

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strconv"
	"strings"
)

// Nodal families of the UKHO Tidal Harmonic Constants Product Specification, appendix B.
const (
	familyZero   = "zero"
	familyM1B    = "M1B"
	familyM1     = "M1"
	familyM1A    = "M1A"
	familyGamma2 = "GAMMA2"
	familyAlpha2 = "ALPHA2"
	familyDelta2 = "DELTA2"
	familyXi2    = "XI2"
	familyL2     = "L2"
	familyMm     = "MM"
	familyMf     = "MF"
	familyO1     = "O1"
	familyK1     = "K1"
	familyJ1     = "J1"
	familyM2     = "M2"
	familyK2     = "K2"
	familyOddM   = "ODDM"
	familyMSf    = "MSF"
	family2SM    = "2SM"
	familyMSm    = "MSM"
)

//nolint:gochecknoglobals // Assigned once, never mutated.
var groupTags = buildGroupTags()

// Compound names that the product specification maps onto another combination.
//
//nolint:gochecknoglobals // Read-only table.
var groupAliases = map[string]string{
	"UPS1": "KQ1",
	"OO1":  "KQ1",
	"L2A":  "2MN2",
}

func buildGroupTags() map[string]string {
	tags := make(map[string]string)
	assign := func(family string, names ...string) {
		for _, n := range names {
			tags[n] = family
		}
	}
	assign(familyZero, "Z0", "SA", "SSA", "PI1", "P1", "S1", "PSI1", "T2", "S2", "R2")
	assign(familyM1B, "M1B")
	assign(familyM1, "M1")
	assign(familyM1A, "M1A")
	assign(familyGamma2, "GAMMA2")
	assign(familyAlpha2, "ALPHA2")
	assign(familyDelta2, "DELTA2")
	assign(familyXi2, "XI2", "ETA2")
	assign(familyL2, "L2")
	assign(familyMm, "MM", "MFM", "MTM", "MT")
	assign(familyMf, "MF")
	assign(familyO1, "O1", "SIGMA1", "Q1", "RHO1", "2Q1", "NUJ1")
	assign(familyK1, "K1", "TAU1")
	assign(familyJ1, "J1", "CHI1", "PHI1", "THETA1")
	assign(familyM2, "M2", "NA2", "NB2", "NA2*", "MA2", "MB2", "MA2*", "MQM",
		"EPS2", "MU2", "N2", "NU2", "LAMBDA2", "MP1", "2N2")
	assign(familyK2, "K2")
	assign(familyOddM, "M3", "M5", "M7", "M9", "M11")
	assign(familyMSf, "MSF", "MSO", "MSQM")
	assign(family2SM, "2SM")
	assign(familyMSm, "MSM")
	return tags
}

func groupFamilyOf(name string) string {
	return groupTags[name]
}

// GroupScheme implements the UKHO nodal formulas. Families with a closed form are
// evaluated directly; other names are decomposed and combined from their primaries.
type GroupScheme struct{}

// Factors implements NodalCorrection.
func (GroupScheme) Factors(name string, p, n, pp float64) (float64, float64, error) {
	name = strings.ToUpper(name)
	p, n, pp = Deg2Rad(p), Deg2Rad(n), Deg2Rad(pp)

	if f, u, ok := groupClosedForm(name, p, n, pp); ok {
		return f, u, nil
	}

	target := name
	if alias, ok := groupAliases[name]; ok {
		target = alias
	}
	d, err := DecomposeConstituent(target)
	if err != nil {
		if errors.Is(err, ErrConstituentCombination) {
			return 0, 0, fmt.Errorf("nodal factors for %s: %w", name, err)
		}
		return 0, 0, err
	}
	if d.LongPeriod {
		return 0, 0, fmt.Errorf("%w: long-period combination %s", ErrUnsupportedConstituent, name)
	}

	f, u := 1.0, 0.0
	for _, c := range d.Components {
		primary := c.Primary()
		pf, pu, ok := groupClosedForm(primary, p, n, pp)
		if !ok {
			return 0, 0, fmt.Errorf("%w: no nodal factors for %s in %s", ErrUnsupportedConstituent, primary, name)
		}
		m := float64(c.Multiplicity)
		f *= math.Pow(pf, math.Abs(m))
		u += m * pu
	}
	return f, u, nil
}

// groupClosedForm evaluates a tagged family. Angles are in radians.
func groupClosedForm(name string, p, n, pp float64) (float64, float64, bool) {
	family, ok := groupTags[name]
	if !ok {
		return 0, 0, false
	}

	switch family {
	case familyZero:
		return 1, 0, true
	case familyM1B, familyM1, familyM1A, familyGamma2, familyAlpha2, familyDelta2, familyXi2, familyL2:
		z := complexForm(family, p, n, pp)
		return cmplx.Abs(z), cmplx.Phase(z), true
	case familyMSm:
		// MSM = MSF - MM.
		mf, mu, _ := groupClosedForm("MSF", p, n, pp)
		nf, nu, _ := groupClosedForm("MM", p, n, pp)
		return mf * nf, mu - nu, true
	}

	f, uDeg := tabulatedForm(family, name, p, n)
	return f, Deg2Rad(uDeg), true
}

func complexForm(family string, p, n, pp float64) complex128 {
	sin, cos := math.Sin, math.Cos
	switch family {
	case familyM1B:
		return complex(1+2.783*cos(2*p)+0.558*cos(2*p-n)+0.184*cos(n),
			2.783*sin(2*p)+0.558*sin(2*p-n)+0.184*sin(n))
	case familyM1:
		return complex(2*(cos(p)+0.2*cos(p-n)), sin(p)+0.2*sin(p-n))
	case familyM1A:
		return complex(1+0.3593*cos(2*p)+0.2*cos(n)+0.066*cos(2*p-n),
			-0.3593*sin(2*p)-0.2*sin(n)-0.066*sin(2*p-n))
	case familyGamma2:
		return complex(1+0.147*cos(2*(n-p)), 0.147*sin(2*(n-p)))
	case familyAlpha2:
		return complex(1-0.0446*cos(p-pp), -0.0446*sin(p-pp))
	case familyDelta2:
		return complex(1-0.477*cos(n), 0.477*sin(n))
	case familyXi2:
		return complex(1+0.439*cos(n), -0.439*sin(n))
	default: // familyL2
		return complex(1-0.2505*cos(2*p)-0.1102*cos(2*p-n)-0.0156*cos(2*p-2*n)-0.037*cos(n),
			-0.2505*sin(2*p)-0.1102*sin(2*p-n)-0.0156*sin(2*p-2*n)-0.037*sin(n))
	}
}

func m2GroupF(n float64) float64 {
	return 1.0007 - 0.0373*math.Cos(n) + 0.0002*math.Cos(2*n)
}

// tabulatedForm returns f and u (degrees).
func tabulatedForm(family, name string, p, n float64) (float64, float64) {
	sin, cos := math.Sin, math.Cos
	switch family {
	case familyMm:
		return 1 - 0.1311*cos(n) + 0.0538*cos(2*p) + 0.0205*cos(2*p-n), 0
	case familyMf:
		return 1.084 + 0.415*cos(n) + 0.039*cos(2*n),
			-23.7*sin(n) + 2.7*sin(2*n) - 0.4*sin(3*n)
	case familyO1:
		return 1.0176 + 0.1871*cos(n) - 0.0147*cos(2*n),
			10.80*sin(n) - 1.34*sin(2*n) + 0.19*sin(3*n)
	case familyK1:
		return 1.0060 + 0.1150*cos(n) - 0.0088*cos(2*n) + 0.0006*cos(3*n),
			-8.86*sin(n) + 0.68*sin(2*n) - 0.07*sin(3*n)
	case familyJ1:
		return 1.1029 + 0.1676*cos(n) - 0.0170*cos(2*n) + 0.0016*cos(3*n),
			-12.94*sin(n) + 1.34*sin(2*n) - 0.19*sin(3*n)
	case familyM2:
		return m2GroupF(n), -2.14 * sin(n)
	case familyK2:
		return 1.0246 + 0.2863*cos(n) + 0.0083*cos(2*n) - 0.0015*cos(3*n),
			-17.74*sin(n) + 0.68*sin(2*n) - 0.04*sin(3*n)
	case familyOddM:
		s, _ := strconv.ParseFloat(name[1:], 64)
		return math.Pow(m2GroupF(n), s/2), -s * 1.07 * sin(n)
	case familyMSf:
		return m2GroupF(n), 2.14 * sin(n)
	default: // family2SM
		return math.Pow(m2GroupF(n), 2), 2 * 2.14 * sin(n)
	}
}
