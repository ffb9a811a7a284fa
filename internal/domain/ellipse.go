package domain

import "math"

// Ellipse describes a tidal current ellipse.
type Ellipse struct {
	Major float64 // Semi-major axis.
	Minor float64 // Semi-minor axis.
	// Inclination is the direction of the major axis, counter-clockwise from the u axis, in radians.
	Inclination float64
	// Phase is the phase of the current along the major axis, in radians.
	Phase float64
}

// TidalEllipseParameters computes the current ellipse from the amplitudes and phases
// (radians) of the u and v velocity components (Pugh, appendix 3).
func TidalEllipseParameters(au, pu, av, pv float64) Ellipse {
	au2, av2 := au*au, av*av
	dp := pu - pv
	focus := math.Sqrt(au2*au2 + av2*av2 + 2*au2*av2*math.Cos(2*dp))
	delta := 0.5 * math.Atan2(av2*math.Sin(2*dp), au2+av2*math.Cos(2*dp))
	return Ellipse{
		Major:       math.Sqrt(0.5 * (au2 + av2 + focus)),
		Minor:       math.Sqrt(math.Max(0.5*(au2+av2-focus), 0)),
		Inclination: math.Atan2(av*math.Cos(dp-delta), au*math.Cos(delta)),
		Phase:       pu - delta,
	}
}
