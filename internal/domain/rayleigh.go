package domain

import (
	"math"
	"sort"
)

// ClosestConstituents returns the indices of the two constituents with the closest
// angular speeds, ordered by speed. It returns (-1, -1) for fewer than two constituents.
func (t *Tides) ClosestConstituents() (int, int) {
	if len(t.omega) < 2 {
		return -1, -1
	}
	ind := make([]int, len(t.omega))
	for i := range ind {
		ind[i] = i
	}
	sort.SliceStable(ind, func(a, b int) bool { return t.omega[ind[a]] < t.omega[ind[b]] })

	best := 0
	minDiff := math.Inf(1)
	for k := 0; k+1 < len(ind); k++ {
		if d := t.omega[ind[k+1]] - t.omega[ind[k]]; d < minDiff {
			minDiff = d
			best = k
		}
	}
	return ind[best], ind[best+1]
}

// MinimumRayleighPeriod returns the record length in seconds needed to separate the two
// closest constituents. It is 0 for fewer than two constituents and +Inf for equal speeds.
func (t *Tides) MinimumRayleighPeriod() float64 {
	i, j := t.ClosestConstituents()
	if i < 0 {
		return 0
	}
	d := t.omega[j] - t.omega[i]
	if d == 0 {
		return math.Inf(1)
	}
	return 2 * math.Pi / d
}

// SelectConstituents drops constituents, given in order of importance, until every pair
// can be separated within period seconds. Of each offending pair the later one is removed.
func SelectConstituents(names []string, period float64) ([]string, error) {
	selected := append([]string(nil), names...)
	for len(selected) >= 2 {
		t, err := NewTides(selected)
		if err != nil {
			return nil, err
		}
		if t.MinimumRayleighPeriod() < period {
			return selected, nil
		}
		i, j := t.ClosestConstituents()
		drop := max(i, j)
		selected = append(selected[:drop], selected[drop+1:]...)
	}
	return selected, nil
}
