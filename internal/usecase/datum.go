package usecase

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// DatumMSL is the datum predictions are synthesized against.
const DatumMSL = "MSL"

// defaultDatumRadiusKm bounds nearest-neighbour matches for entries without a radius.
const defaultDatumRadiusKm = 80.0

// DatumOffset is the height of mean sea level above a chart datum at a place.
type DatumOffset struct {
	Datum    string  `json:"datum"`
	Station  string  `json:"station,omitempty"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RadiusKm float64 `json:"radius_km,omitempty"`
	OffsetM  float64 `json:"offset_m"`
}

// DatumTable resolves datum offsets by station id or nearest location.
type DatumTable struct {
	entries []DatumOffset
}

// NewDatumTable builds a table from entries, upper-casing datum names.
func NewDatumTable(entries []DatumOffset) *DatumTable {
	t := &DatumTable{entries: make([]DatumOffset, len(entries))}
	for i, e := range entries {
		e.Datum = strings.ToUpper(e.Datum)
		t.entries[i] = e
	}
	return t
}

// ReadDatumTable decodes a JSON array of DatumOffset.
func ReadDatumTable(r io.Reader) (*DatumTable, error) {
	var entries []DatumOffset
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode datum offsets: %w", err)
	}
	return NewDatumTable(entries), nil
}

// LoadDatumTable reads a datum offset file.
func LoadDatumTable(path string) (*DatumTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDatumTable(f)
}

// Lookup returns the offset for datum. A station id match wins; otherwise the
// nearest entry within its radius of (lat, lon) is used.
func (t *DatumTable) Lookup(datum string, stationID *string, lat, lon *float64) (float64, bool) {
	datum = strings.ToUpper(datum)
	if stationID != nil && *stationID != "" {
		for _, e := range t.entries {
			if e.Datum == datum && e.Station == *stationID {
				return e.OffsetM, true
			}
		}
		return 0, false
	}
	if lat == nil || lon == nil {
		return 0, false
	}

	bestDist := math.MaxFloat64
	bestOffset := 0.0
	found := false
	for _, e := range t.entries {
		if e.Datum != datum {
			continue
		}
		radius := e.RadiusKm
		if radius == 0 {
			radius = defaultDatumRadiusKm
		}
		d := haversineKm(*lat, *lon, e.Lat, e.Lon)
		if d <= radius && d < bestDist {
			bestDist = d
			bestOffset = e.OffsetM
			found = true
		}
	}
	return bestOffset, found
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0
	toRad := func(x float64) float64 { return x * math.Pi / 180.0 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
