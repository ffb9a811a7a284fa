package domain

import (
	"math"
	"strconv"
)

// Coefficients from Kowalik and Luick, table 1.6, with compound constituents
// derived from their primaries.
//
//nolint:gochecknoglobals // Built once, never mutated.
var kowalikLuickTable = buildKowalikLuick()

//nolint:gochecknoglobals // Built once, never mutated.
var otpsTable = buildOTPS()

const (
	m2F1 = -0.037
	m2U1 = -0.03665191
	k2F1 = 0.286
	k2U1 = -0.30892328
	o1F1 = 0.187
	o1U1 = 0.18849556
	k1F1 = 0.115
	k1U1 = -0.1553343
	mfF1 = 0.414
	mfU1 = -0.41364303
)

func buildKowalikLuick() polyTable {
	t := polyTable{
		// Long period. MFM follows Schureman (same as MF).
		"MM":   {f0: 1, f1: -0.130},
		"MF":   {f0: 1.043, f1: mfF1, u1: mfU1},
		"MFM":  {f0: 1.043, f1: mfF1, u1: mfU1},
		"MTM":  {f0: 1.043, f1: mfF1, u1: mfU1},
		"MT":   {f0: 1.043, f1: mfF1, u1: mfU1},
		"MSQM": {f0: 1.043, f1: mfF1, u1: mfU1},
		"MSF":  {f0: 1, f1: m2F1, u1: m2U1},
		"MSM":  {f0: 1, f1: -0.167, u1: m2U1},
		// Diurnal.
		"O1": {f0: 1.009, f1: o1F1, u1: o1U1},
		"Q1": {f0: 1.009, f1: o1F1, u1: o1U1},
		"J1": {f0: 0.996, f1: 0.169, u1: Deg2Rad(-12.94)},
		"K1": {f0: 1.006, f1: k1F1, u1: k1U1},
		// Semidiurnal.
		"M2":   {f0: 1, f1: m2F1, u1: m2U1},
		"N2":   {f0: 1, f1: m2F1, u1: m2U1},
		"L2":   {f0: 1, f1: m2F1, u1: m2U1},
		"K2":   {f0: 1.024, f1: k2F1, u1: k2U1},
		"ETA2": {f0: 1.09211766765308, f1: 0.40197133789017, u1: -0.305072967338429},
		// Compounds.
		"MKS2":  {f0: 1.024, f1: m2F1 + k2F1, u1: m2U1 + k2U1},
		"MSN2":  {f0: 1, f1: 2 * m2F1},
		"2MK6":  {f0: 1.024, f1: 2*m2F1*1.024 + k2F1, u1: 2*m2U1 + k2U1},
		"MO3":   {f0: 1.009, f1: o1F1 + m2F1*1.009, u1: m2U1 + o1U1},
		"MNS2":  {f0: 1, f1: 2 * m2F1, u1: 2 * m2U1},
		"3M2S2": {f0: 1, f1: 3 * m2F1, u1: 3 * m2U1},
		"MK3":   {f0: 1.024, f1: k1F1 + m2F1, u1: m2U1 + k1U1},
		"2SM2":  {f0: 1, f1: m2F1, u1: -m2U1},
		"2MS6":  {f0: 1, f1: 2 * m2F1, u1: 2 * m2U1},
	}

	m2 := t.get("M2")
	for _, comp := range []string{"N2", "S2"} {
		c := t.get(comp)
		t["M"+comp[:1]+"4"] = polyCoeff{
			f0: m2.f0 * c.f0,
			f1: m2.f0*c.f1 + m2.f1*c.f0,
			u1: m2.u1 + c.u1,
		}
	}
	for n := 1; n <= 12; n++ {
		if n == 2 {
			continue
		}
		half := float64(n) / 2
		t["M"+strconv.Itoa(n)] = polyCoeff{
			f0: math.Pow(m2.f0, half),
			f1: m2.f1 / m2.f0 * half,
			u1: m2.u1 * half,
		}
	}
	t["N4"] = t["M4"]
	// Pugh table 4.3; L2 and EPS2 follow UKHO.
	for _, comp := range []string{"2N2", "MU2", "NU2", "N2", "L2", "LAMBDA2", "EPS2"} {
		t[comp] = m2
	}
	return t
}

func buildOTPS() polyTable {
	t := polyTable{
		"MM": {f0: 1, f1: -0.130},
		"MF": {f0: 1.043, f1: mfF1, u1: mfU1},
		"O1": {f0: 1.009, f1: o1F1, u1: o1U1},
		"Q1": {f0: 1.009, f1: o1F1, u1: o1U1},
		"K1": {f0: 1.006, f1: k1F1, u1: k1U1},
		"M2": {f0: 1, f1: m2F1, u1: m2U1},
		"N2": {f0: 1, f1: m2F1, u1: m2U1},
		"K2": {f0: 1.024, f1: k2F1, u1: k2U1},
	}
	m2 := t.get("M2")
	for _, comp := range []string{"M2", "N2", "S2"} {
		name := "M" + comp[:1] + "4"
		if comp == "M2" {
			name = "M4"
		}
		c := t.get(comp)
		t[name] = polyCoeff{
			f0: m2.f0 * c.f0,
			f1: m2.f0*c.f1 + m2.f1*c.f0,
			f2: m2.f1 * c.f1,
			u1: m2.u1 + c.u1,
		}
	}
	for _, comp := range []string{"2N2", "MU2", "NU2", "T2"} {
		t[comp] = m2
	}
	return t
}
