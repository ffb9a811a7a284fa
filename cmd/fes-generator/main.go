// Package main writes a synthetic FES2014-style atlas, one NetCDF file per
// constituent plus the matching ini file, seeded from a station's harmonic
// constants. It is meant for development and tests, not for navigation.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/tides/internal/adapter/store/csv"
	"go.ngs.io/tides/internal/adapter/store/fes"
	"go.ngs.io/tides/internal/domain"
)

// fillValue marks land cells, as in the FES2014 distribution.
const fillValue float32 = 1.844674e19

// RegionalGrid defines the geographic bounds and resolution
type RegionalGrid struct {
	LatMin     float64
	LatMax     float64
	LonMin     float64
	LonMax     float64
	Resolution float64 // degrees
}

func (g RegionalGrid) axes() (lat, lon []float64) {
	nLat := int(math.Round((g.LatMax-g.LatMin)/g.Resolution)) + 1
	nLon := int(math.Round((g.LonMax-g.LonMin)/g.Resolution)) + 1
	lat = make([]float64, nLat)
	for i := range lat {
		lat[i] = g.LatMin + float64(i)*g.Resolution
	}
	lon = make([]float64, nLon)
	for j := range lon {
		lon[j] = g.LonMin + float64(j)*g.Resolution
	}
	return lat, lon
}

func main() {
	dataDir := flag.String("data-dir", "./data", "Directory holding <station>_constituents.csv")
	station := flag.String("station", "tokyo", "Station whose constants seed the atlas")
	outDir := flag.String("out", "./data/fes", "Output directory for NetCDF files and ocean_tide.ini")
	region := flag.String("region", "japan", "Region: japan, global, or custom")
	latMin := flag.Float64("lat-min", 20.0, "Minimum latitude (custom region)")
	latMax := flag.Float64("lat-max", 50.0, "Maximum latitude (custom region)")
	lonMin := flag.Float64("lon-min", 120.0, "Minimum longitude, 0-360 (custom region)")
	lonMax := flag.Float64("lon-max", 150.0, "Maximum longitude, 0-360 (custom region)")
	resolution := flag.Float64("resolution", 0.125, "Grid resolution in degrees")
	refLat := flag.Float64("ref-lat", 35.6762, "Latitude where the station constants apply")
	refLon := flag.Float64("ref-lon", 139.6503, "Longitude where the station constants apply")
	landAbove := flag.Float64("land-above", math.Inf(1), "Mask cells north of this latitude as land")
	flag.Parse()

	var grid RegionalGrid
	switch *region {
	case "japan":
		grid = RegionalGrid{LatMin: 20, LatMax: 50, LonMin: 120, LonMax: 150, Resolution: *resolution}
	case "global":
		grid = RegionalGrid{LatMin: -90, LatMax: 90, LonMin: 0, LonMax: 359.5, Resolution: 0.5}
	case "custom":
		grid = RegionalGrid{LatMin: *latMin, LatMax: *latMax, LonMin: *lonMin, LonMax: *lonMax, Resolution: *resolution}
	default:
		log.Fatalf("Unknown region: %s (use japan, global, or custom)", *region)
	}
	if grid.Resolution <= 0 || grid.LatMax <= grid.LatMin || grid.LonMax <= grid.LonMin {
		log.Fatalf("Invalid grid: %+v", grid)
	}

	params, err := csv.NewConstituentStore(*dataDir).LoadForStation(*station)
	if err != nil {
		log.Fatalf("Failed to read station constants: %v", err)
	}

	log.Printf("Loaded %d constituents for %s", len(params), *station)
	log.Printf("Grid: %.2f°-%.2f°N, %.2f°-%.2f°E, resolution: %.3f°",
		grid.LatMin, grid.LatMax, grid.LonMin, grid.LonMax, grid.Resolution)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	var written []string
	for _, p := range params {
		if _, err := domain.LookupConstituent(p.Name); err != nil {
			log.Printf("Skipping %s: %v", p.Name, err)
			continue
		}
		path := filepath.Join(*outDir, strings.ToLower(p.Name)+".nc")
		if err := generateNetCDF(path, p, grid, *refLat, *refLon, *landAbove); err != nil {
			log.Printf("Warning: Failed to generate NetCDF for %s: %v", p.Name, err)
			continue
		}
		written = append(written, p.Name)
		log.Printf("Generated %s", path)
	}
	if len(written) == 0 {
		log.Fatalf("No constituent files written")
	}

	iniPath := filepath.Join(*outDir, "ocean_tide.ini")
	f, err := os.Create(iniPath)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", iniPath, err)
	}
	if err := fes.WriteConfig(f, written, "${FES_DATA}"); err != nil {
		_ = f.Close()
		log.Fatalf("Failed to write %s: %v", iniPath, err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Failed to close %s: %v", iniPath, err)
	}

	lat, lon := grid.axes()
	log.Printf("=== Generation Complete ===")
	log.Printf("Files created in: %s", *outDir)
	log.Printf("Grid size: %d × %d points", len(lat), len(lon))
	log.Printf("Serve with FES_INI=%s FES_DATA_PATH=%s", iniPath, *outDir)
}

// field synthesizes amplitude (cm) and phase (degrees) varying smoothly
// around the reference point, where they equal the station constants.
func field(p domain.ConstituentParam, lat, lon []float64, refLat, refLon, landAbove float64) (amp, pha []float32) {
	amp = make([]float32, len(lat)*len(lon))
	pha = make([]float32, len(lat)*len(lon))
	for i, la := range lat {
		for j, lo := range lon {
			idx := i*len(lon) + j
			if la > landAbove {
				amp[idx], pha[idx] = fillValue, fillValue
				continue
			}
			dist := math.Hypot(la-refLat, lo-refLon)

			// 100% at the reference point, never below half.
			distFactor := math.Max(math.Cos(dist*math.Pi/20.0), 0.5)
			spatialVar := 1.0 +
				0.15*(math.Sin(la*math.Pi/15.0)-math.Sin(refLat*math.Pi/15.0)) +
				0.1*(math.Cos(lo*math.Pi/20.0)-math.Cos(refLon*math.Pi/20.0))
			amp[idx] = float32(100 * p.AmplitudeM * distFactor * spatialVar)

			phase := p.PhaseDeg + 2.0*dist +
				10.0*(math.Sin(la*math.Pi/30.0)-math.Sin(refLat*math.Pi/30.0))
			phase = math.Mod(phase, 360.0)
			if phase < 0 {
				phase += 360.0
			}
			pha[idx] = float32(phase)
		}
	}
	return amp, pha
}

// generateNetCDF writes one constituent file with lat, lon, amplitude and phase.
func generateNetCDF(path string, p domain.ConstituentParam, grid RegionalGrid, refLat, refLon, landAbove float64) (err error) {
	lat, lon := grid.axes()
	amp, pha := field(p, lat, lon, refLat, refLon, landAbove)

	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := ds.Close(); err == nil {
			err = cerr
		}
	}()

	//nolint:gosec // G115: axis lengths are positive.
	latDim, err := ds.AddDim("lat", uint64(len(lat)))
	if err != nil {
		return err
	}
	//nolint:gosec // G115: axis lengths are positive.
	lonDim, err := ds.AddDim("lon", uint64(len(lon)))
	if err != nil {
		return err
	}

	latVar, err := ds.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	if err != nil {
		return err
	}
	lonVar, err := ds.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	if err != nil {
		return err
	}
	ampVar, err := ds.AddVar("amplitude", netcdf.FLOAT, []netcdf.Dim{latDim, lonDim})
	if err != nil {
		return err
	}
	phaVar, err := ds.AddVar("phase", netcdf.FLOAT, []netcdf.Dim{latDim, lonDim})
	if err != nil {
		return err
	}
	units := []struct {
		v    netcdf.Var
		name string
	}{{latVar, "degrees_north"}, {lonVar, "degrees_east"}, {ampVar, "cm"}, {phaVar, "degrees"}}
	for _, u := range units {
		if err := u.v.Attr("units").WriteBytes([]byte(u.name)); err != nil {
			return err
		}
	}
	for _, v := range []netcdf.Var{ampVar, phaVar} {
		if err := v.Attr("_FillValue").WriteFloat32s([]float32{fillValue}); err != nil {
			return err
		}
	}
	if err := ds.Attr("constituent").WriteBytes([]byte(p.Name)); err != nil {
		return err
	}
	if err := ds.EndDef(); err != nil {
		return err
	}

	if err := latVar.WriteFloat64s(lat); err != nil {
		return err
	}
	if err := lonVar.WriteFloat64s(lon); err != nil {
		return err
	}
	if err := ampVar.WriteFloat32s(amp); err != nil {
		return err
	}
	return phaVar.WriteFloat32s(pha)
}
