package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestEquilibriumTide(t *testing.T) {
	epoch := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	td := newTestTides(t, []string{"M2", "K1", "MF"}, epoch)
	f, u, phi := td.F(), td.U(), td.Phi()

	tests := []struct {
		name     string
		lat, lon float64
		want     float64
	}{
		// Only the semidiurnal and long-period terms survive on the equator.
		{"equator", 0, 0, 0.244102*f[0]*math.Cos(phi[0]+u[0]) + 0.5*0.042017*f[2]*math.Cos(phi[2]+u[2])},
		// At the pole only the long-period term is left.
		{"pole", 90, 30, -0.042017 * f[2] * math.Cos(phi[2]+u[2])},
		{"mid latitude", 45, 0,
			0.244102*0.5*f[0]*math.Cos(phi[0]+u[0]) + 0.142408*f[1]*math.Cos(phi[1]+u[1]) - 0.25*0.042017*f[2]*math.Cos(phi[2]+u[2])},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EquilibriumTide(td, tt.lat, tt.lon, 0)
			if err != nil {
				t.Fatalf("EquilibriumTide: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("expected %.12f, got %.12f", tt.want, got)
			}
		})
	}
}

func TestEquilibriumTide_Longitude(t *testing.T) {
	td := newTestTides(t, []string{"M2"}, time.Date(2010, 6, 1, 0, 0, 0, 0, time.UTC))
	// Moving 90 degrees east advances the semidiurnal argument by half a turn.
	a, _ := EquilibriumTide(td, 10, 0, 0)
	b, _ := EquilibriumTide(td, 10, 90, 0)
	if math.Abs(a+b) > 1e-12 {
		t.Errorf("expected opposite values, got %v and %v", a, b)
	}
}

func TestEquilibriumTide_Errors(t *testing.T) {
	td, err := NewTides([]string{"M2"})
	if err != nil {
		t.Fatalf("NewTides: %v", err)
	}
	if _, err := EquilibriumTide(td, 0, 0, 0); !errors.Is(err, ErrEpochNotSet) {
		t.Errorf("expected ErrEpochNotSet, got %v", err)
	}

	td = newTestTides(t, []string{"M2", "M4"}, time.Date(2010, 6, 1, 0, 0, 0, 0, time.UTC))
	if _, err := EquilibriumTide(td, 0, 0, 0); !errors.Is(err, ErrUnsupportedConstituent) {
		t.Errorf("expected ErrUnsupportedConstituent, got %v", err)
	}
}

func TestEquilibriumConstituents(t *testing.T) {
	names := EquilibriumConstituents()
	if len(names) == 0 {
		t.Fatal("no equilibrium constituents")
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if _, err := LookupConstituent(name); err != nil {
			t.Errorf("%s not in catalog: %v", name, err)
		}
		seen[name] = true
	}
	for _, want := range []string{"M2", "K1", "MF"} {
		if !seen[want] {
			t.Errorf("%s missing", want)
		}
	}
}

func TestEquilibriumTide_Point(t *testing.T) {
	td := newTestTides(t, []string{"M2", "K1", "MF"}, time.Date(2003, 1, 17, 19, 30, 0, 0, time.UTC))
	f, u, phi, omega := td.F(), td.U(), td.Phi(), td.Omega()
	const sec = 3600.0
	lat, lon := 30.0, -45.0
	latR, lonR := Deg2Rad(lat), Deg2Rad(lon)
	cos2 := math.Cos(latR) * math.Cos(latR)
	want := 0.244102*cos2*f[0]*math.Cos(omega[0]*sec+2*lonR+phi[0]+u[0]) +
		0.142408*math.Sin(2*latR)*f[1]*math.Cos(omega[1]*sec+lonR+phi[1]+u[1]) +
		0.042017*(1.5*cos2-1)*f[2]*math.Cos(omega[2]*sec+phi[2]+u[2])

	got, err := EquilibriumTide(td, lat, lon, sec)
	if err != nil {
		t.Fatalf("EquilibriumTide: %v", err)
	}
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("expected %.12f, got %.12f", want, got)
	}

	// At the poles only the long-period part survives.
	pole, _ := NewTides([]string{"M2", "K1"})
	_ = pole.SetInitialTime(time.Date(2003, 1, 17, 19, 30, 0, 0, time.UTC))
	if h, _ := EquilibriumTide(pole, 90, 0, sec); math.Abs(h) > 1e-12 {
		t.Errorf("polar equilibrium tide: expected 0, got %.3g", h)
	}

	s1 := newTestTides(t, []string{"S1"}, time.Date(2003, 1, 17, 19, 30, 0, 0, time.UTC))
	if _, err := EquilibriumTide(s1, 0, 0, 0); !errors.Is(err, ErrUnsupportedConstituent) {
		t.Errorf("expected ErrUnsupportedConstituent, got %v", err)
	}
}
