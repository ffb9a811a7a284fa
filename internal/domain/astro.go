package domain

import (
	"math"
	"time"
)

const (
	secondsPerDay = 86400.0
	julianYear    = 365.25 * secondsPerDay
)

// AstronomicalOmegas are the angular speeds (rad/s) of Cm, s, h, p, N and p'.
// Source: Pugh, "Tides, Surges and Mean Sea-Level" (1996), table 3:2.
//
//nolint:gochecknoglobals // Read-only table.
var AstronomicalOmegas = [6]float64{
	2 * math.Pi / (1.03505 * secondsPerDay),  // mean lunar day
	2 * math.Pi / (27.3217 * secondsPerDay),  // sidereal month
	2 * math.Pi / (365.2422 * secondsPerDay), // tropical year
	2 * math.Pi * 3.0937e-4 / secondsPerDay,  // lunar perigee
	-2 * math.Pi * 1.471e-4 / secondsPerDay,  // regression of the lunar nodes
	2 * math.Pi / (20942 * julianYear),       // perihelion
}

// schwiderski holds (s, h, p, N, p') as polynomials in T, from
// Schwiderski (1980) supplemented by Kowalik and Luick for N and p'.
//
//nolint:gochecknoglobals // Read-only table.
var schwiderski = [5][4]float64{
	{270.434358, 481267.88314137, -0.001133, 1.9e-6},
	{279.69668, 36000.768930485, 3.03e-4, 0},
	{334.329653, 4069.0340329575, -0.010325, -1.2e-5},
	{259.18344, -1934.14212, 0.00216, 0},
	{281.22084, 1.719, 0.00036, 0},
}

//nolint:gochecknoglobals // Reference epoch of the ephemeris.
var ephemerisEpoch = time.Date(1975, 1, 1, 0, 0, 0, 0, time.UTC)

// EphemerisState holds the astronomical arguments in degrees.
// The angles are not reduced modulo 360.
type EphemerisState struct {
	H  float64 // Hour angle of the mean sun, measured from midnight.
	S  float64 // Mean longitude of the moon.
	Hs float64 // Mean longitude of the sun.
	P  float64 // Longitude of the lunar perigee.
	N  float64 // Longitude of the lunar ascending node.
	PP float64 // Longitude of the perihelion.
}

// Vector returns the state ordered as (H, s, h, p, N, p').
func (e EphemerisState) Vector() [6]float64 {
	return [6]float64{e.H, e.S, e.Hs, e.P, e.N, e.PP}
}

// secondsSince returns t - ref in seconds without the time.Duration range limit.
func secondsSince(t, ref time.Time) float64 {
	return float64(t.Unix()-ref.Unix()) + float64(t.Nanosecond()-ref.Nanosecond())/1e9
}

// AstronomicalArgument evaluates the ephemeris at t.
func AstronomicalArgument(t time.Time) EphemerisState {
	// Unix seconds keep whole-day arithmetic exact far beyond the range of time.Duration.
	whole := t.Unix() - ephemerisEpoch.Unix()
	dayCount := whole / int64(secondsPerDay)
	rem := whole % int64(secondsPerDay)
	if rem < 0 {
		dayCount--
		rem += int64(secondsPerDay)
	}
	days := float64(dayCount)
	secs := float64(rem) + float64(t.Nanosecond())/1e9
	// Guard rounding at the day boundary.
	if secs >= secondsPerDay {
		days++
		secs -= secondsPerDay
	}

	d := days + secs/secondsPerDay + 1
	bigT := (27392.500528 + 1.0000000356*d) / 36525
	powers := [4]float64{1, bigT, bigT * bigT, bigT * bigT * bigT}

	var v [5]float64
	for r, row := range schwiderski {
		for k, c := range row {
			v[r] += c * powers[k]
		}
	}

	return EphemerisState{
		H:  secs / secondsPerDay * 360,
		S:  v[0],
		Hs: v[1],
		P:  v[2],
		N:  v[3],
		PP: v[4],
	}
}
