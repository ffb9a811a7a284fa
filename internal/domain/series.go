package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// TideLevel represents a single tide height prediction at a specific time.
type TideLevel struct {
	Time    time.Time
	HeightM float64
}

// Extrema represents high and low tide events.
type Extrema struct {
	Highs []TideLevel
	Lows  []TideLevel
}

// GenerateSeries synthesizes heights from start to end (inclusive) every interval.
// Amplitudes are in meters and phases in degrees, in the order of t.Constituents().
// Nodal corrections are recomputed whenever refresh has elapsed; refresh <= 0 keeps
// the corrections bound at the time of the call.
func GenerateSeries(t *Tides, amplitudes, phasesDeg []float64, start, end time.Time,
	interval, refresh time.Duration) ([]TideLevel, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: non-positive interval %s", ErrDimensionMismatch, interval)
	}
	epoch, ok := t.Epoch()
	if !ok {
		return nil, ErrEpochNotSet
	}
	phases := make([]float64, len(phasesDeg))
	for i, p := range phasesDeg {
		phases[i] = Deg2Rad(p)
	}

	predictions := make([]TideLevel, 0, int(end.Sub(start)/interval)+1)
	lastRefresh := start
	for ts := start; !ts.After(end); ts = ts.Add(interval) {
		sec := secondsSince(ts, epoch)
		if refresh > 0 && ts.Sub(lastRefresh) >= refresh {
			if err := t.ComputeNodalCorrections(sec); err != nil {
				return nil, err
			}
			lastRefresh = ts
		}
		h, err := t.FromAmplitudePhase(amplitudes, phases, sec)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, TideLevel{Time: ts, HeightM: h})
	}
	return predictions, nil
}

// FindExtrema identifies high and low tides from a time series by sign changes of the
// first difference. A flat run counts once, at its first sample.
func FindExtrema(predictions []TideLevel) Extrema {
	ex := Extrema{Highs: []TideLevel{}, Lows: []TideLevel{}}
	for _, i := range extremumIndices(predictions) {
		if i.high {
			ex.Highs = append(ex.Highs, predictions[i.at])
		} else {
			ex.Lows = append(ex.Lows, predictions[i.at])
		}
	}
	return ex
}

type extremumIndex struct {
	at   int
	high bool
}

func extremumIndices(predictions []TideLevel) []extremumIndex {
	var out []extremumIndex
	for i := 1; i < len(predictions)-1; i++ {
		prev := predictions[i-1].HeightM
		curr := predictions[i].HeightM
		// Skip over a plateau to the next distinct value.
		j := i + 1
		for j < len(predictions)-1 && predictions[j].HeightM == curr {
			j++
		}
		next := predictions[j].HeightM
		switch {
		case curr > prev && curr > next:
			out = append(out, extremumIndex{at: i, high: true})
		case curr < prev && curr < next:
			out = append(out, extremumIndex{at: i})
		}
	}
	return out
}

// RefineExtremum fits a parabola through three equally spaced samples and returns its vertex.
// The discrete peak is returned for uneven spacing, a flat parabola, or a vertex outside
// the sampling interval.
func RefineExtremum(before, peak, after TideLevel) (time.Time, float64) {
	dt := peak.Time.Sub(before.Time).Hours()
	if math.Abs(dt-after.Time.Sub(peak.Time).Hours()) > 1e-6 {
		return peak.Time, peak.HeightM
	}

	h0, h1, h2 := before.HeightM, peak.HeightM, after.HeightM
	a := (h2 - 2*h1 + h0) / (2 * dt * dt)
	b := (h2 - h0) / (2 * dt)
	if math.Abs(a) < 1e-10 {
		return peak.Time, peak.HeightM
	}

	vertex := -b / (2 * a)
	if math.Abs(vertex) > dt {
		return peak.Time, peak.HeightM
	}
	return peak.Time.Add(time.Duration(vertex * float64(time.Hour))), h1 + b*vertex + a*vertex*vertex
}

// RefineExtrema applies RefineExtremum to the extrema of predictions found by FindExtrema.
func RefineExtrema(predictions []TideLevel, extrema Extrema) Extrema {
	if len(predictions) < 3 {
		return extrema
	}
	index := make(map[time.Time]int, len(predictions))
	for i, p := range predictions {
		index[p.Time] = i
	}
	refine := func(levels []TideLevel) []TideLevel {
		out := make([]TideLevel, 0, len(levels))
		for _, l := range levels {
			i, ok := index[l.Time]
			if !ok || i < 1 || i >= len(predictions)-1 {
				out = append(out, l)
				continue
			}
			ts, h := RefineExtremum(predictions[i-1], predictions[i], predictions[i+1])
			out = append(out, TideLevel{Time: ts, HeightM: h})
		}
		sort.Slice(out, func(a, b int) bool { return out[a].Time.Before(out[b].Time) })
		return out
	}
	return Extrema{Highs: refine(extrema.Highs), Lows: refine(extrema.Lows)}
}
