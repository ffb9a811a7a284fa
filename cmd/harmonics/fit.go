package main

import (
	"fmt"
	"math"
	"time"

	"go.ngs.io/tides/internal/adapter/record"
	"go.ngs.io/tides/internal/domain"
)

// Constant is one fitted constituent.
type Constant struct {
	Name       string  `json:"name"`
	AmplitudeM float64 `json:"amplitude_m"`
	PhaseDeg   float64 `json:"phase_deg"`
}

// Result is the outcome of a fit over one record.
type Result struct {
	Station      string     `json:"station,omitempty"`
	Name         string     `json:"name,omitempty"`
	Lat          float64    `json:"lat"`
	Lon          float64    `json:"lon"`
	Start        string     `json:"start"`
	End          string     `json:"end"`
	Epoch        string     `json:"epoch"`
	Samples      int        `json:"samples"`
	MeanM        float64    `json:"mean_m"`
	RMSResidualM float64    `json:"rms_residual_m"`
	Constituents []Constant `json:"constituents"`
	Rejected     []string   `json:"rejected,omitempty"`
}

func (r *Result) params() []domain.ConstituentParam {
	out := make([]domain.ConstituentParam, len(r.Constituents))
	for i, c := range r.Constituents {
		out[i] = domain.ConstituentParam{Name: c.Name, AmplitudeM: c.AmplitudeM, PhaseDeg: c.PhaseDeg}
	}
	return out
}

// fit analyses samples against names. With rayleigh > 0, constituents are
// first reduced until each pair separates within the record length divided
// by rayleigh. Nodal corrections are evaluated at the record midpoint.
func fit(samples []record.Sample, names []string, rayleigh float64) (*Result, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("need at least two samples, got %d", len(samples))
	}
	first, last := samples[0].Time, samples[len(samples)-1].Time
	length := last.Sub(first).Seconds()

	selected := names
	if rayleigh > 0 {
		var err error
		selected, err = domain.SelectConstituents(names, length/rayleigh)
		if err != nil {
			return nil, err
		}
	}
	if 2*len(selected)+1 > len(samples) {
		return nil, fmt.Errorf("%d samples cannot resolve %d constituents", len(samples), len(selected))
	}

	tides, err := domain.NewTides(selected)
	if err != nil {
		return nil, err
	}
	epoch := first.Add(last.Sub(first) / 2)
	if err := tides.SetInitialTime(epoch); err != nil {
		return nil, err
	}

	x := make([]float64, len(samples))
	times := make([]float64, len(samples))
	mean := 0.0
	for i, s := range samples {
		x[i] = s.Height
		times[i] = s.Time.Sub(epoch).Seconds()
		mean += s.Height
	}
	mean /= float64(len(samples))

	amps, phases, err := domain.HarmonicAnalysis(tides, x, times)
	if err != nil {
		return nil, err
	}

	// Residual against the mean plus the fitted constituents.
	sq := 0.0
	for i, ts := range times {
		h, err := tides.FromAmplitudePhase(amps, phases, ts)
		if err != nil {
			return nil, err
		}
		d := x[i] - mean - h
		sq += d * d
	}

	res := &Result{
		Start:        first.Format(time.RFC3339),
		End:          last.Format(time.RFC3339),
		Epoch:        epoch.Format(time.RFC3339),
		Samples:      len(samples),
		MeanM:        round(mean, 6),
		RMSResidualM: round(math.Sqrt(sq/float64(len(samples))), 6),
		Constituents: make([]Constant, len(selected)),
	}
	for i, name := range selected {
		res.Constituents[i] = Constant{
			Name:       name,
			AmplitudeM: round(amps[i], 6),
			PhaseDeg:   round(domain.Rad2Deg(phases[i]), 6),
		}
	}
	kept := make(map[string]bool, len(selected))
	for _, name := range selected {
		kept[name] = true
	}
	for _, name := range names {
		if !kept[name] {
			res.Rejected = append(res.Rejected, name)
		}
	}
	return res, nil
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
