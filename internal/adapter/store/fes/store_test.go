package fes

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fhs/go-netcdf/netcdf"
	"github.com/google/go-cmp/cmp"

	"go.ngs.io/tides/internal/adapter/interp"
	"go.ngs.io/tides/internal/adapter/store"
)

const fill = 1.844674e19

// memConstituent is a 0..359.5 x -10..10 half-degree grid with uniform
// amplitude (cm) and phase (degrees), land south of -8.
func memConstituent(t *testing.T, ampCM, phaseDeg float64) *store.MemDataset {
	t.Helper()
	nLat, nLon := 41, 720
	ds := store.NewMemDataset().AddDim("lat", nLat).AddDim("lon", nLon)
	lat := make([]float64, nLat)
	lon := make([]float64, nLon)
	for i := range lat {
		lat[i] = -10 + 0.5*float64(i)
	}
	for j := range lon {
		lon[j] = 0.5 * float64(j)
	}
	a := make([]float64, nLat*nLon)
	p := make([]float64, nLat*nLon)
	for i := range lat {
		for j := range lon {
			if lat[i] < -8 {
				a[i*nLon+j], p[i*nLon+j] = fill, fill
				continue
			}
			a[i*nLon+j], p[i*nLon+j] = ampCM, phaseDeg
		}
	}
	for _, err := range []error{
		ds.AddVar("lat", []string{"lat"}, lat),
		ds.AddVar("lon", []string{"lon"}, lon),
		ds.AddVar("amplitude", []string{"lat", "lon"}, a),
		ds.AddVar("phase", []string{"lat", "lon"}, p),
		ds.SetFillValue("amplitude", fill),
	} {
		if err != nil {
			t.Fatal(err)
		}
	}
	return ds
}

func memStore(t *testing.T, opened *[]string) *Store {
	t.Helper()
	sources := map[string]store.DataSource{
		"/fes/m2.nc": memConstituent(t, 120, 350),
		"/fes/k1.nc": memConstituent(t, 30, 45),
	}
	var buf strings.Builder
	if err := WriteConfig(&buf, []string{"M2", "K1", "XX9"}, "/fes"); err != nil {
		t.Fatal(err)
	}
	cfg, err := ParseConfig(strings.NewReader(buf.String()), "")
	if err != nil {
		t.Fatal(err)
	}
	return NewStore(cfg, WithOpener(func(path string) (store.DataSource, error) {
		*opened = append(*opened, path)
		src, ok := sources[path]
		if !ok {
			return nil, fmt.Errorf("%s: %w", path, store.ErrNotFound)
		}
		return src, nil
	}))
}

func TestStore_LoadForLocation(t *testing.T) {
	var opened []string
	s := memStore(t, &opened)

	if diff := cmp.Diff([]string{"M2", "K1"}, s.Constituents()); diff != "" {
		t.Errorf("Constituents() mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"interior", 3.3, 120.2},
		{"negative longitude", -2, -30.7},
		{"coast", -8.2, 10},
		{"coast extrapolated", -8.6, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := s.LoadForLocation(tt.lat, tt.lon)
			if err != nil {
				t.Fatalf("LoadForLocation() error = %v", err)
			}
			if len(params) != 2 || params[0].Name != "M2" || params[1].Name != "K1" {
				t.Fatalf("LoadForLocation() = %+v", params)
			}
			if math.Abs(params[0].AmplitudeM-1.2) > 1e-9 || math.Abs(params[0].PhaseDeg-350) > 1e-9 {
				t.Errorf("M2 = %+v, want 1.2 m at 350", params[0])
			}
			if math.Abs(params[1].AmplitudeM-0.3) > 1e-9 || math.Abs(params[1].PhaseDeg-45) > 1e-9 {
				t.Errorf("K1 = %+v, want 0.3 m at 45", params[1])
			}
		})
	}
	if diff := cmp.Diff([]string{"/fes/m2.nc", "/fes/k1.nc"}, opened); diff != "" {
		t.Errorf("opened files mismatch (-want +got):\n%s", diff)
	}

	// A cached location is served without reopening or re-reading.
	before := len(s.cache)
	if _, err := s.LoadForLocation(3.3, 120.2+360); err != nil {
		t.Fatalf("LoadForLocation() error = %v", err)
	}
	if len(s.cache) != before {
		t.Errorf("cache grew from %d to %d for a repeated location", before, len(s.cache))
	}

	if _, err := s.LoadForLocation(40, 10); !errors.Is(err, interp.ErrRangeConfiguration) {
		t.Errorf("LoadForLocation() outside the atlas error = %v, want ErrRangeConfiguration", err)
	}
	if _, err := s.LoadForLocation(-9.9, 10); !errors.Is(err, interp.ErrLandMask) {
		t.Errorf("LoadForLocation() deep inland error = %v, want ErrLandMask", err)
	}
	if _, err := s.LoadForStation("tokyo"); err == nil {
		t.Error("LoadForStation() succeeded")
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNormalizeLon360(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0}, {-0.5, 359.5}, {360, 0}, {725, 5}, {-190, 170},
	}
	for _, tt := range tests {
		if got := normalizeLon360(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("normalizeLon360(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// writeConstituentNC writes a FES2014-style 3x4 file near (35, 139).
func writeConstituentNC(t *testing.T, path string, ampCM, phaseDeg float32) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		t.Fatalf("create nc: %v", err)
	}
	defer f.Close()

	latDim, _ := f.AddDim("lat", 3)
	lonDim, _ := f.AddDim("lon", 4)
	vlat, _ := f.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	vlon, _ := f.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	vamp, _ := f.AddVar("amplitude", netcdf.FLOAT, []netcdf.Dim{latDim, lonDim})
	vpha, _ := f.AddVar("phase", netcdf.FLOAT, []netcdf.Dim{latDim, lonDim})
	if err := f.EndDef(); err != nil {
		t.Fatalf("enddef: %v", err)
	}
	if err := vlat.WriteFloat64s([]float64{34, 35, 36}); err != nil {
		t.Fatalf("write lat: %v", err)
	}
	if err := vlon.WriteFloat64s([]float64{138, 139, 140, 141}); err != nil {
		t.Fatalf("write lon: %v", err)
	}
	a := make([]float32, 12)
	p := make([]float32, 12)
	for k := range a {
		a[k], p[k] = ampCM, phaseDeg
	}
	if err := vamp.WriteFloat32s(a); err != nil {
		t.Fatalf("write amp: %v", err)
	}
	if err := vpha.WriteFloat32s(p); err != nil {
		t.Fatalf("write pha: %v", err)
	}
}

func TestDiscoverAndOpen(t *testing.T) {
	dir := t.TempDir()
	writeConstituentNC(t, filepath.Join(dir, "ocean_tide", "m2.nc"), 50, 120)
	writeConstituentNC(t, filepath.Join(dir, "ocean_tide", "s2.nc"), 20, 150)
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if diff := cmp.Diff([]string{"M2", "S2"}, cfg.Names(TypeTide)); diff != "" {
		t.Errorf("Discover() names mismatch (-want +got):\n%s", diff)
	}

	ini := filepath.Join(dir, "ocean_tide.ini")
	f, err := os.Create(ini)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteConfig(f, []string{"M2", "S2"}, "${FES_DATA}/ocean_tide"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	s, err := Open(ini, dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()
	params, err := s.LoadForLocation(35.5, 139.25)
	if err != nil {
		t.Fatalf("LoadForLocation() error = %v", err)
	}
	if len(params) != 2 {
		t.Fatalf("LoadForLocation() = %+v", params)
	}
	if math.Abs(params[0].AmplitudeM-0.5) > 1e-6 || math.Abs(params[0].PhaseDeg-120) > 1e-4 {
		t.Errorf("M2 = %+v, want 0.5 m at 120", params[0])
	}
	if math.Abs(params[1].AmplitudeM-0.2) > 1e-6 || math.Abs(params[1].PhaseDeg-150) > 1e-4 {
		t.Errorf("S2 = %+v, want 0.2 m at 150", params[1])
	}

	if _, err := Discover(filepath.Join(dir, "missing")); err == nil {
		t.Error("Discover() of a missing directory succeeded")
	}
}
