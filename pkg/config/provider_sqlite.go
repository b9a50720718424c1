package config

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS server_config (
	id              INTEGER PRIMARY KEY CHECK (id = 1),
	listen_addr     TEXT,
	port            INTEGER,
	tls_cert        TEXT,
	tls_key         TEXT,
	request_timeout TEXT,
	enable_cors     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS scenarios (
	name          TEXT PRIMARY KEY,
	description   TEXT,
	year          INTEGER NOT NULL DEFAULT 0,
	start_date    TEXT,
	initial_cases INTEGER NOT NULL,
	r0            REAL NOT NULL,
	population    INTEGER NOT NULL,
	multipliers   TEXT
);
`

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens (or creates) a SQLite configuration database
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	server, err := s.GetServerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	config.Server = *server

	scenarios, err := s.GetScenarios()
	if err != nil {
		return nil, fmt.Errorf("failed to load scenarios: %w", err)
	}
	config.Scenarios = scenarios

	return config, nil
}

// GetServerConfig returns the REST server section, empty if none was saved
func (s *SQLiteProvider) GetServerConfig() (*ServerData, error) {
	var server ServerData
	var listenAddr, cert, key, timeout sql.NullString
	var port sql.NullInt64

	err := s.db.QueryRow(`
		SELECT listen_addr, port, tls_cert, tls_key, request_timeout, enable_cors
		FROM server_config WHERE id = 1
	`).Scan(&listenAddr, &port, &cert, &key, &timeout, &server.EnableCORS)
	if errors.Is(err, sql.ErrNoRows) {
		return &server, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query server config: %w", err)
	}

	server.ListenAddr = listenAddr.String
	server.Port = int(port.Int64)
	server.Cert = cert.String
	server.Key = key.String
	server.RequestTimeout = timeout.String

	return &server, nil
}

// GetScenarios returns every stored scenario ordered by name
func (s *SQLiteProvider) GetScenarios() ([]ScenarioData, error) {
	rows, err := s.db.Query(`
		SELECT name, description, year, start_date, initial_cases, r0, population, multipliers
		FROM scenarios
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenarios: %w", err)
	}
	defer rows.Close()

	var scenarios []ScenarioData
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, *sc)
	}
	return scenarios, rows.Err()
}

// GetScenario returns the scenario with the given name
func (s *SQLiteProvider) GetScenario(name string) (*ScenarioData, error) {
	row := s.db.QueryRow(`
		SELECT name, description, year, start_date, initial_cases, r0, population, multipliers
		FROM scenarios
		WHERE name = ?
	`, name)

	sc, err := scanScenario(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, name)
	}
	return sc, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanScenario(row scanner) (*ScenarioData, error) {
	var sc ScenarioData
	var description, startDate, multipliers sql.NullString

	err := row.Scan(&sc.Name, &description, &sc.Year, &startDate,
		&sc.InitialCases, &sc.R0, &sc.Population, &multipliers)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenario row: %w", err)
	}

	sc.Description = description.String
	sc.StartDate = startDate.String
	if multipliers.Valid && multipliers.String != "" {
		if err := json.Unmarshal([]byte(multipliers.String), &sc.Multipliers); err != nil {
			return nil, fmt.Errorf("scenario %s: bad multipliers column: %w", sc.Name, err)
		}
	}
	return &sc, nil
}

// IsReadOnly returns false since SQLite supports writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig replaces the stored configuration with configData in one transaction
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM scenarios`); err != nil {
		return fmt.Errorf("failed to clear scenarios: %w", err)
	}
	if err := saveServerConfig(tx, &configData.Server); err != nil {
		return err
	}
	for i := range configData.Scenarios {
		if err := saveScenario(tx, &configData.Scenarios[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveServerConfig stores the REST server section
func (s *SQLiteProvider) SaveServerConfig(server *ServerData) error {
	return saveServerConfig(s.db, server)
}

// SaveScenario inserts a scenario or replaces the one with the same name
func (s *SQLiteProvider) SaveScenario(scenario *ScenarioData) error {
	return saveScenario(s.db, scenario)
}

// DeleteScenario removes a scenario by name
func (s *SQLiteProvider) DeleteScenario(name string) error {
	result, err := s.db.Exec(`DELETE FROM scenarios WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrScenarioNotFound, name)
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func saveServerConfig(db execer, server *ServerData) error {
	_, err := db.Exec(`
		INSERT INTO server_config (id, listen_addr, port, tls_cert, tls_key, request_timeout, enable_cors)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			listen_addr = excluded.listen_addr,
			port = excluded.port,
			tls_cert = excluded.tls_cert,
			tls_key = excluded.tls_key,
			request_timeout = excluded.request_timeout,
			enable_cors = excluded.enable_cors
	`, nullString(server.ListenAddr), server.Port, nullString(server.Cert),
		nullString(server.Key), nullString(server.RequestTimeout), server.EnableCORS)
	if err != nil {
		return fmt.Errorf("failed to save server config: %w", err)
	}
	return nil
}

func saveScenario(db execer, sc *ScenarioData) error {
	if sc.Name == "" {
		return errors.New("scenario name is required")
	}

	var multipliers sql.NullString
	if len(sc.Multipliers) > 0 {
		b, err := json.Marshal(sc.Multipliers)
		if err != nil {
			return fmt.Errorf("failed to encode multipliers: %w", err)
		}
		multipliers = sql.NullString{String: string(b), Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO scenarios (name, description, year, start_date, initial_cases, r0, population, multipliers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			year = excluded.year,
			start_date = excluded.start_date,
			initial_cases = excluded.initial_cases,
			r0 = excluded.r0,
			population = excluded.population,
			multipliers = excluded.multipliers
	`, sc.Name, nullString(sc.Description), sc.Year, nullString(sc.StartDate),
		sc.InitialCases, sc.R0, sc.Population, multipliers)
	if err != nil {
		return fmt.Errorf("failed to save scenario %s: %w", sc.Name, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
