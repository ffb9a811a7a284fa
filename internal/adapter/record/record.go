// Package record reads tide gauge observation records.
package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Sample is one observed sea level.
type Sample struct {
	Time   time.Time
	Height float64 // meters
}

func sortSamples(s []Sample) {
	sort.Slice(s, func(i, j int) bool { return s[i].Time.Before(s[j].Time) })
}

// ReadCSV parses time,height rows (RFC3339, meters). A header row and '#'
// comments are skipped; empty or NaN heights are treated as gaps. Samples are
// returned in UTC, sorted by time.
func ReadCSV(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var samples []Sample
	for line := 1; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: expected time,height", line)
		}
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(rec[0]))
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		field := strings.TrimSpace(rec[1])
		if field == "" {
			continue
		}
		h, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if math.IsNaN(h) {
			continue
		}
		samples = append(samples, Sample{Time: ts.UTC(), Height: h})
	}
	sortSamples(samples)
	return samples, nil
}
