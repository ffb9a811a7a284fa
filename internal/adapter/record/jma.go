package record

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// JST is the fixed +09:00 zone of JMA hourly records.
var JST = time.FixedZone("JST", 9*60*60)

const (
	jmaLineLen = 80
	jmaMissing = "999"
)

// jmaDay is one line of a JMA hourly tide file: 24 heights in cm, then
// YYMMDD and a two-letter station code.
type jmaDay struct {
	station string
	day     time.Time
	hourly  [24]float64
	valid   [24]bool
}

func parseJMALine(line string) (jmaDay, error) {
	var d jmaDay
	if len(line) < jmaLineLen {
		return d, fmt.Errorf("line too short: %d", len(line))
	}
	for i := 0; i < 24; i++ {
		chunk := strings.ReplaceAll(line[3*i:3*i+3], " ", "")
		if chunk == "" || chunk == jmaMissing {
			continue
		}
		v, err := strconv.Atoi(chunk)
		if err != nil {
			return d, fmt.Errorf("hour %d: invalid value %q: %w", i, chunk, err)
		}
		d.hourly[i] = float64(v) / 100.0
		d.valid[i] = true
	}

	var ymd [3]int
	for k := range ymd {
		s := strings.TrimSpace(line[72+2*k : 74+2*k])
		v, err := strconv.Atoi(s)
		if err != nil {
			return d, fmt.Errorf("invalid date field %q: %w", s, err)
		}
		ymd[k] = v
	}
	year := 2000 + ymd[0]
	if ymd[0] >= 70 {
		year = 1900 + ymd[0]
	}
	d.station = strings.TrimSpace(line[78:80])
	d.day = time.Date(year, time.Month(ymd[1]), ymd[2], 0, 0, 0, 0, JST)
	return d, nil
}

// ReadJMA extracts the hourly heights of station from a JMA fixed-width
// file. Lines that do not parse or belong to other stations are skipped;
// 999 marks a missing hour.
func ReadJMA(r io.Reader, station string) ([]Sample, error) {
	station = strings.TrimSpace(station)
	scanner := bufio.NewScanner(r)

	var samples []Sample
	days := 0
	for scanner.Scan() {
		d, err := parseJMALine(scanner.Text())
		if err != nil || d.station != station {
			continue
		}
		days++
		for h := 0; h < 24; h++ {
			if d.valid[h] {
				samples = append(samples, Sample{
					Time:   d.day.Add(time.Duration(h) * time.Hour).UTC(),
					Height: d.hourly[h],
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan JMA data: %w", err)
	}
	if days == 0 {
		return nil, fmt.Errorf("no records found for station %s", station)
	}
	sortSamples(samples)
	return samples, nil
}
