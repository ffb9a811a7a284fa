// Package main fits harmonic constants to a tide gauge record.
//
// The record is a CSV of time,height rows (RFC3339, meters) or a JMA hourly
// file. Results are printed as JSON and may be saved as a station in a SQLite
// database or a CSV station directory, ready to be served by the tides server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.ngs.io/tides/internal/adapter/record"
	"go.ngs.io/tides/internal/adapter/store/csv"
	"go.ngs.io/tides/internal/adapter/store/sqlite"
	"go.ngs.io/tides/internal/domain"
)

const defaultConstituents = "M2,S2,N2,K2,K1,O1,P1,Q1,M4,MS4,MN4,M6,S4,MF,MM,SSA,SA"

func main() {
	var (
		input       string
		format      string
		station     string
		stationName string
		lat         float64
		lon         float64
		constCSV    string
		rayleigh    float64
		dbPath      string
		csvDir      string
		debug       bool
	)

	flag.StringVar(&input, "input", "", "Observation record; - for stdin")
	flag.StringVar(&format, "format", "csv", "Record format: csv (time,height) or jma (hourly fixed-width)")
	flag.StringVar(&station, "station", "", "Station id used when saving; for jma input also the station code")
	flag.StringVar(&stationName, "name", "", "Human-friendly station name for metadata")
	flag.Float64Var(&lat, "lat", 0, "Latitude in degrees")
	flag.Float64Var(&lon, "lon", 0, "Longitude in degrees (east positive)")
	flag.StringVar(&constCSV, "constituents", defaultConstituents, "Comma-separated constituent list, most important first")
	flag.Float64Var(&rayleigh, "rayleigh", 1, "Rayleigh criterion factor on the record length; 0 disables selection")
	flag.StringVar(&dbPath, "db", "", "Save the result to this SQLite database (requires -station)")
	flag.StringVar(&csvDir, "csv_dir", "", "Save the result to this CSV station directory (requires -station)")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if input == "" {
		fmt.Fprintln(os.Stderr, "Usage: harmonics -input record.csv [-station id -db stations.db] [options]")
		os.Exit(2)
	}
	if (dbPath != "" || csvDir != "") && station == "" {
		fmt.Fprintln(os.Stderr, "-station is required to save results")
		os.Exit(2)
	}

	samples, err := readInput(input, format, station)
	if err != nil {
		slog.Error("failed to read record", "input", input, "err", err)
		os.Exit(1)
	}

	names := parseConstituents(constCSV)
	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "no known constituents provided")
		os.Exit(1)
	}

	result, err := fit(samples, names, rayleigh)
	if err != nil {
		slog.Error("fit failed", "err", err)
		os.Exit(1)
	}
	if stationName == "" {
		stationName = station
	}
	result.Station = station
	result.Name = stationName
	result.Lat = lat
	result.Lon = lon

	slog.Info("harmonic analysis complete",
		"samples", result.Samples,
		"constituents", len(result.Constituents),
		"rejected", len(result.Rejected),
	)

	if dbPath != "" {
		if err := saveSQLite(dbPath, result); err != nil {
			slog.Error("failed to save station", "db", dbPath, "err", err)
			os.Exit(1)
		}
		slog.Info("saved station", "db", dbPath, "station", station)
	}
	if csvDir != "" {
		if err := csv.NewConstituentStore(csvDir).SaveStation(station, result.params()); err != nil {
			slog.Error("failed to save station", "dir", csvDir, "err", err)
			os.Exit(1)
		}
		slog.Info("saved station", "dir", csvDir, "station", station)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode JSON: %v\n", err)
		os.Exit(1)
	}
}

func readInput(path, format, station string) ([]record.Sample, error) {
	r := io.Reader(os.Stdin)
	if path != "-" {
		//nolint:gosec // G304: the record path comes from the operator.
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	switch format {
	case "csv":
		return record.ReadCSV(r)
	case "jma":
		return record.ReadJMA(r, station)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func parseConstituents(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.ToUpper(strings.TrimSpace(p))
		if trimmed == "" {
			continue
		}
		if _, err := domain.LookupConstituent(trimmed); err != nil {
			slog.Warn("skipping constituent", "name", trimmed, "err", err)
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func saveSQLite(path string, r *Result) error {
	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.SaveStation(sqlite.Station{
		ID:        r.Station,
		Name:      r.Name,
		Latitude:  r.Lat,
		Longitude: r.Lon,
		Source:    fmt.Sprintf("harmonics %s..%s", r.Start, r.End),
	}, r.params())
}
