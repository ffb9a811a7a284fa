// Package sqlite stores station harmonic constants in a SQLite database.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"go.ngs.io/tides/internal/adapter/store"
	"go.ngs.io/tides/internal/domain"
)

// Station describes a tide gauge whose constants were fitted or imported.
type Station struct {
	ID        string  `db:"id"`
	Name      string  `db:"name"`
	Latitude  float64 `db:"latitude"`
	Longitude float64 `db:"longitude"`
	// Source records where the constants came from, e.g. the analysed record.
	Source string `db:"source"`
}

type constituentRow struct {
	Name       string  `db:"name"`
	AmplitudeM float64 `db:"amplitude_m"`
	PhaseDeg   float64 `db:"phase_deg"`
}

// DB wraps a SQLite connection holding stations and their constants.
type DB struct {
	conn *sqlx.DB
}

var _ store.ConstituentLoader = (*DB)(nil)

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		source TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS constituents (
		station_id TEXT NOT NULL REFERENCES stations(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		amplitude_m REAL NOT NULL,
		phase_deg REAL NOT NULL,
		PRIMARY KEY (station_id, name)
	);

	CREATE INDEX IF NOT EXISTS idx_constituents_station ON constituents(station_id, position);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveStation writes a station and replaces its constants.
func (db *DB) SaveStation(st Station, params []domain.ConstituentParam) error {
	st.ID = strings.ToLower(st.ID)
	if st.ID == "" {
		return errors.New("station id is required")
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.NamedExec(`INSERT INTO stations (id, name, latitude, longitude, source)
		VALUES (:id, :name, :latitude, :longitude, :source)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, latitude = excluded.latitude,
			longitude = excluded.longitude, source = excluded.source`, st)
	if err != nil {
		return fmt.Errorf("save station %s: %w", st.ID, err)
	}

	if _, err := tx.Exec("DELETE FROM constituents WHERE station_id = ?", st.ID); err != nil {
		return err
	}
	stmt, err := tx.Preparex(`INSERT INTO constituents
		(station_id, position, name, amplitude_m, phase_deg) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for k, p := range params {
		if _, err := stmt.Exec(st.ID, k, strings.ToUpper(p.Name), p.AmplitudeM, p.PhaseDeg); err != nil {
			return fmt.Errorf("save constituent %s: %w", p.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Debug("saved station", "id", st.ID, "constituents", len(params))
	return nil
}

// Station returns one station.
func (db *DB) Station(id string) (Station, error) {
	var st Station
	err := db.conn.Get(&st, "SELECT id, name, latitude, longitude, source FROM stations WHERE id = ?", strings.ToLower(id))
	if errors.Is(err, sql.ErrNoRows) {
		return Station{}, fmt.Errorf("station %s: %w", id, store.ErrNotFound)
	}
	return st, err
}

// Stations returns every station ordered by id.
func (db *DB) Stations() ([]Station, error) {
	var stations []Station
	err := db.conn.Select(&stations, "SELECT id, name, latitude, longitude, source FROM stations ORDER BY id")
	return stations, err
}

// DeleteStation removes a station and its constants.
func (db *DB) DeleteStation(id string) error {
	res, err := db.conn.Exec("DELETE FROM stations WHERE id = ?", strings.ToLower(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("station %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// LoadForStation loads the constants of a station in the order they were saved.
func (db *DB) LoadForStation(id string) ([]domain.ConstituentParam, error) {
	if _, err := db.Station(id); err != nil {
		return nil, err
	}
	var rows []constituentRow
	err := db.conn.Select(&rows,
		"SELECT name, amplitude_m, phase_deg FROM constituents WHERE station_id = ? ORDER BY position",
		strings.ToLower(id))
	if err != nil {
		return nil, fmt.Errorf("load station %s: %w", id, err)
	}
	params := make([]domain.ConstituentParam, len(rows))
	for k, r := range rows {
		params[k] = domain.ConstituentParam{Name: r.Name, AmplitudeM: r.AmplitudeM, PhaseDeg: r.PhaseDeg}
	}
	return params, nil
}

// LoadForLocation is not supported: stations are addressed by id.
func (db *DB) LoadForLocation(_, _ float64) ([]domain.ConstituentParam, error) {
	return nil, errors.New("SQLite store does not support lat/lon queries - specify a station_id")
}
