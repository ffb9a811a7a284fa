// Package csv stores station harmonic constants as one CSV file per station.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.ngs.io/tides/internal/adapter/store"
	"go.ngs.io/tides/internal/domain"
)

const fileSuffix = "_constituents.csv"

var (
	header    = []string{"constituent", "amplitude_m", "phase_deg"}
	stationID = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// ConstituentStore provides access to tidal constituent data.
type ConstituentStore struct {
	dataDir string
}

var _ store.ConstituentLoader = (*ConstituentStore)(nil)

// NewConstituentStore creates a new CSV-based constituent store.
func NewConstituentStore(dataDir string) *ConstituentStore {
	return &ConstituentStore{
		dataDir: dataDir,
	}
}

func (s *ConstituentStore) path(id string) (string, error) {
	id = strings.ToLower(id)
	if !stationID.MatchString(id) {
		return "", fmt.Errorf("invalid station id %q", id)
	}
	return filepath.Join(s.dataDir, id+fileSuffix), nil
}

// LoadForStation loads constituent parameters for a named station.
// Constituent names are upper-cased but not checked against the catalog.
func (s *ConstituentStore) LoadForStation(id string) ([]domain.ConstituentParam, error) {
	filename, err := s.path(id)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // G304: File path constructed from dataDir (config) and a validated station id.
	file, err := os.Open(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("station %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file for station %s: %w", id, err)
	}
	defer func() { _ = file.Close() }()

	params, err := read(file)
	if err != nil {
		return nil, fmt.Errorf("station %s: %w", id, err)
	}
	if len(params) == 0 {
		return nil, fmt.Errorf("no constituents found in CSV for station %s", id)
	}
	return params, nil
}

func read(r io.Reader) ([]domain.ConstituentParam, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	got, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(got) != len(header) {
		return nil, fmt.Errorf("invalid CSV header: expected %v, got %v", header, got)
	}
	for i, h := range got {
		if strings.TrimSpace(h) != header[i] {
			return nil, fmt.Errorf("invalid CSV header: expected column %d to be %s, got %s", i, header[i], h)
		}
	}

	var params []domain.ConstituentParam
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		name := strings.ToUpper(strings.TrimSpace(record[0]))
		amplitude, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amplitude for constituent %s: %w", name, err)
		}
		phase, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid phase for constituent %s: %w", name, err)
		}

		params = append(params, domain.ConstituentParam{
			Name:       name,
			AmplitudeM: amplitude,
			PhaseDeg:   phase,
		})
	}
	return params, nil
}

// SaveStation writes the constants of a station, replacing any earlier file.
func (s *ConstituentStore) SaveStation(id string, params []domain.ConstituentParam) error {
	filename, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dataDir, 0o750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp := filename + ".tmp"
	//nolint:gosec // G304: see path.
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	w := csv.NewWriter(file)
	_ = w.Write(header)
	for _, p := range params {
		_ = w.Write([]string{
			p.Name,
			strconv.FormatFloat(p.AmplitudeM, 'g', -1, 64),
			strconv.FormatFloat(p.PhaseDeg, 'g', -1, 64),
		})
	}
	w.Flush()
	if err := errors.Join(w.Error(), file.Close()); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	return os.Rename(tmp, filename)
}

// LoadForLocation is not supported: CSV stations have no coordinates.
func (s *ConstituentStore) LoadForLocation(_ /* lat */, _ /* lon */ float64) ([]domain.ConstituentParam, error) {
	return nil, errors.New("CSV store does not support lat/lon queries - use FES store or specify a station_id")
}

// ListStations returns available station IDs, sorted.
func (s *ConstituentStore) ListStations() ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	stations := make([]string, 0)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		stations = append(stations, strings.TrimSuffix(name, fileSuffix))
	}
	sort.Strings(stations)
	return stations, nil
}
