package fes

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleINI = `# FES2014 ocean tide
TIDE_M2_FILE = ${FES_DATA}/ocean_tide/m2.nc
TIDE_M2_LATITUDE = lat
TIDE_M2_LONGITUDE = lon
TIDE_M2_AMPLITUDE = amplitude
TIDE_M2_PHASE = phase

; shallow water
TIDE_MS_4_FILE = ${FES_DATA}//ocean_tide/../ocean_tide/ms4.nc
TIDE_K1_FILE   =   /abs/k1.nc
LOAD_M2_FILE = ${FES_DATA}/load_tide/m2.nc
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(sampleINI), "/data/fes")
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}

	if diff := cmp.Diff([]string{"M2", "MS_4", "K1"}, cfg.Names(TypeTide)); diff != "" {
		t.Errorf("Names(TIDE) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"M2"}, cfg.Names("LOAD")); diff != "" {
		t.Errorf("Names(LOAD) mismatch (-want +got):\n%s", diff)
	}

	m2, ok := cfg.Section(TypeTide, "M2")
	if !ok {
		t.Fatal("Section(TIDE, M2) not found")
	}
	want := Section{Type: "TIDE", Name: "M2", Fields: map[string]string{
		"FILE":      "/data/fes/ocean_tide/m2.nc",
		"LATITUDE":  "lat",
		"LONGITUDE": "lon",
		"AMPLITUDE": "amplitude",
		"PHASE":     "phase",
	}}
	if diff := cmp.Diff(want, m2); diff != "" {
		t.Errorf("Section(TIDE, M2) mismatch (-want +got):\n%s", diff)
	}

	ms4, _ := cfg.Section(TypeTide, "MS_4")
	if got := ms4.Get(FieldFile, ""); got != "/data/fes/ocean_tide/ms4.nc" {
		t.Errorf("MS_4 file = %q", got)
	}
	if got := ms4.Get(FieldAmplitude, "amplitude"); got != "amplitude" {
		t.Errorf("MS_4 default amplitude = %q", got)
	}
	k1, _ := cfg.Section(TypeTide, "K1")
	if got := k1.Get(FieldFile, ""); got != "/abs/k1.nc" {
		t.Errorf("K1 file = %q", got)
	}
	if _, ok := cfg.Section(TypeTide, "S2"); ok {
		t.Error("Section(TIDE, S2) found")
	}
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		line string
	}{
		{"missing equals", "TIDE_M2_FILE = a.nc\nTIDE_M2_LATITUDE lat\n", "line 2"},
		{"two tokens", "\n\nTIDE_FILE = a.nc\n", "line 3"},
		{"empty field", "TIDE_M2_ = a.nc\n", "line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(strings.NewReader(tt.in), "")
			if !errors.Is(err, ErrSyntax) {
				t.Fatalf("ParseConfig() error = %v, want ErrSyntax", err)
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Errorf("ParseConfig() error = %q, want it to name %s", err, tt.line)
			}
		})
	}
}

func TestWriteConfig_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteConfig(&buf, []string{"M2", "2N2"}, "/fes"); err != nil {
		t.Fatalf("WriteConfig() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "TIDE_M2_FILE         = /fes/m2.nc\n") {
		t.Errorf("WriteConfig() output starts %q", buf.String()[:40])
	}

	cfg, err := ParseConfig(&buf, "")
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if diff := cmp.Diff([]string{"M2", "2N2"}, cfg.Names(TypeTide)); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	s, _ := cfg.Section(TypeTide, "2N2")
	if got := s.Get(FieldFile, ""); got != "/fes/2n2.nc" {
		t.Errorf("2N2 file = %q", got)
	}
	if got := s.Get(FieldPhase, ""); got != "phase" {
		t.Errorf("2N2 phase = %q", got)
	}
}
