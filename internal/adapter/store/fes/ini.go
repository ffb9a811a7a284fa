package fes

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrSyntax is returned for configuration lines that are not TYPE_NAME_FIELD = value.
var ErrSyntax = errors.New("malformed configuration line")

// Field names of a TIDE section.
const (
	FieldFile      = "FILE"
	FieldLatitude  = "LATITUDE"
	FieldLongitude = "LONGITUDE"
	FieldAmplitude = "AMPLITUDE"
	FieldPhase     = "PHASE"
)

var placeholder = regexp.MustCompile(`\$\{[^}]*\}`)

// Section groups the fields of one TYPE_NAME prefix, e.g. TIDE_M2.
type Section struct {
	Type   string
	Name   string
	Fields map[string]string
}

// Get returns a field value, or def when the field is absent.
func (s Section) Get(field, def string) string {
	if v, ok := s.Fields[field]; ok {
		return v
	}
	return def
}

// Config is a parsed FES handler configuration.
type Config struct {
	sections []*Section
	index    map[[2]string]*Section
}

func newConfig() *Config {
	return &Config{index: make(map[[2]string]*Section)}
}

func (c *Config) set(typ, name, field, value string) {
	key := [2]string{typ, name}
	s, ok := c.index[key]
	if !ok {
		s = &Section{Type: typ, Name: name, Fields: make(map[string]string)}
		c.index[key] = s
		c.sections = append(c.sections, s)
	}
	s.Fields[field] = value
}

// ParseConfig reads TYPE_NAME_FIELD = value lines. TYPE is the first and
// FIELD the last underscore-separated token; NAME is everything between.
// ${VAR} placeholders in FILE values are replaced by dataPath.
func ParseConfig(r io.Reader, dataPath string) (*Config, error) {
	c := newConfig()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, ";") {
			continue
		}

		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: %w: missing '=' in %q", line, ErrSyntax, text)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		tokens := strings.Split(key, "_")
		if len(tokens) < 3 || tokens[0] == "" || tokens[len(tokens)-1] == "" {
			return nil, fmt.Errorf("line %d: %w: key %q is not TYPE_NAME_FIELD", line, ErrSyntax, key)
		}
		typ, field := tokens[0], tokens[len(tokens)-1]
		name := strings.Join(tokens[1:len(tokens)-1], "_")

		if field == FieldFile {
			value = filepath.Clean(placeholder.ReplaceAllLiteralString(value, dataPath))
		}
		c.set(typ, name, field, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return c, nil
}

// Section returns the section for typ and name.
func (c *Config) Section(typ, name string) (Section, bool) {
	s, ok := c.index[[2]string{typ, name}]
	if !ok {
		return Section{}, false
	}
	return *s, true
}

// Names returns the names of all sections of typ, in file order.
func (c *Config) Names(typ string) []string {
	var names []string
	for _, s := range c.sections {
		if s.Type == typ {
			names = append(names, s.Name)
		}
	}
	return names
}

const tideTemplate = `TIDE_%[1]s_FILE         = %[2]s/%[3]s.nc
TIDE_%[1]s_LATITUDE     = lat
TIDE_%[1]s_LONGITUDE    = lon
TIDE_%[1]s_AMPLITUDE    = amplitude
TIDE_%[1]s_PHASE        = phase

`

// WriteConfig writes the standard configuration for one file per constituent
// under dataPath.
func WriteConfig(w io.Writer, names []string, dataPath string) error {
	for _, name := range names {
		if _, err := fmt.Fprintf(w, tideTemplate, name, dataPath, strings.ToLower(name)); err != nil {
			return err
		}
	}
	return nil
}
