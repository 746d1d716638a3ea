// Package persistence provides the SQLite telemetry journal. It records
// log entries and daily statistics; simulation state is never restored
// from it.
package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/gridworld/internal/telemetry"
)

// DB wraps a SQLite connection for the journal.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a journal at the given path. ":memory:" opens a
// private in-memory journal.
func Open(path string) (*DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		dsn = "file::memory:"
	}
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Serialise writers; an in-memory database also lives per connection.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
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
	CREATE TABLE IF NOT EXISTS log_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		actor TEXT NOT NULL,
		severity INTEGER NOT NULL,
		message TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_stats (
		tick INTEGER PRIMARY KEY,
		date TEXT NOT NULL,
		inflation REAL NOT NULL,
		fuel_price REAL NOT NULL,
		active_demands INTEGER NOT NULL,
		plant_balance REAL NOT NULL,
		plant_stored INTEGER NOT NULL,
		plant_fuel INTEGER NOT NULL,
		factories_solvent INTEGER NOT NULL,
		factories_bankrupt INTEGER NOT NULL,
		factory_balance REAL NOT NULL,
		wind_speed REAL NOT NULL,
		clouds INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS journal_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_log_entries_tick ON log_entries(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RecordEntries appends a batch of log entries.
func (db *DB) RecordEntries(ctx context.Context, batch []telemetry.Entry) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx,
		"INSERT INTO log_entries (tick, actor, severity, message) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range batch {
		if _, err := stmt.ExecContext(ctx, e.Tick, e.Actor, e.Severity, e.Message); err != nil {
			return fmt.Errorf("insert log entry at tick %d: %w", e.Tick, err)
		}
	}

	return tx.Commit()
}

// RecentEntries returns the newest limit entries, newest first.
func (db *DB) RecentEntries(limit int) ([]telemetry.Entry, error) {
	var entries []telemetry.Entry
	err := db.conn.Select(&entries,
		"SELECT tick, actor, severity, message FROM log_entries ORDER BY id DESC LIMIT ?",
		limit,
	)
	return entries, err
}

// DailyStats is one row of the daily summary.
type DailyStats struct {
	Tick              uint64  `json:"tick" db:"tick"`
	Date              string  `json:"date" db:"date"`
	Inflation         float64 `json:"inflation" db:"inflation"`
	FuelPrice         float64 `json:"fuel_price" db:"fuel_price"`
	ActiveDemands     int     `json:"active_demands" db:"active_demands"`
	PlantBalance      float64 `json:"plant_balance" db:"plant_balance"`
	PlantStored       int64   `json:"plant_stored" db:"plant_stored"`
	PlantFuel         int64   `json:"plant_fuel" db:"plant_fuel"`
	FactoriesSolvent  int     `json:"factories_solvent" db:"factories_solvent"`
	FactoriesBankrupt int     `json:"factories_bankrupt" db:"factories_bankrupt"`
	FactoryBalance    float64 `json:"factory_balance" db:"factory_balance"`
	WindSpeed         float64 `json:"wind_speed" db:"wind_speed"`
	Clouds            int     `json:"clouds" db:"clouds"`
}

// SaveDailyStats writes the row for one day, replacing any earlier row
// for the same tick.
func (db *DB) SaveDailyStats(row DailyStats) error {
	_, err := db.conn.NamedExec(`INSERT OR REPLACE INTO daily_stats
		(tick, date, inflation, fuel_price, active_demands, plant_balance,
		 plant_stored, plant_fuel, factories_solvent, factories_bankrupt,
		 factory_balance, wind_speed, clouds)
		VALUES (:tick, :date, :inflation, :fuel_price, :active_demands, :plant_balance,
		 :plant_stored, :plant_fuel, :factories_solvent, :factories_bankrupt,
		 :factory_balance, :wind_speed, :clouds)`, row)
	if err != nil {
		return fmt.Errorf("save daily stats at tick %d: %w", row.Tick, err)
	}
	slog.Debug("daily stats saved", "date", row.Date)
	return nil
}

// StatsHistory returns up to limit daily rows, oldest first.
func (db *DB) StatsHistory(limit int) ([]DailyStats, error) {
	var rows []DailyStats
	err := db.conn.Select(&rows, `SELECT * FROM (
		SELECT * FROM daily_stats ORDER BY tick DESC LIMIT ?
	) ORDER BY tick ASC`, limit)
	return rows, err
}

// SaveMeta stores a key-value pair in journal metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO journal_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM journal_meta WHERE key = ?", key)
	return value, err
}
