package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database schema migration
type Migration struct {
	Version     int
	Description string
	Up          func(*sql.Tx) error
	Down        func(*sql.Tx) error
}

// migrations is the ordered list of all database migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Create schema_version table",
		Up:          migration001Up,
		Down:        migration001Down,
	},
	{
		Version:     2,
		Description: "Create cycle_runs table",
		Up:          migration002Up,
		Down:        migration002Down,
	},
	{
		Version:     3,
		Description: "Create account_outcomes table",
		Up:          migration003Up,
		Down:        migration003Down,
	},
	{
		Version:     4,
		Description: "Create account summary view",
		Up:          migration004Up,
		Down:        migration004Down,
	},
}

// LatestVersion is the schema version after all migrations have run
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// RunMigrations runs all pending database migrations
func (db *DB) RunMigrations() error {
	currentVersion, err := db.getCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	db.logger.Debugf("Current database version: %d", currentVersion)

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		db.logger.Infof("Running migration %d: %s", migration.Version, migration.Description)

		err := db.ExecTx(func(tx *sql.Tx) error {
			if err := migration.Up(tx); err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			_, err := tx.Exec(`
				INSERT INTO schema_version (version, description, applied_at)
				VALUES (?, ?, ?)
			`, migration.Version, migration.Description, time.Now())

			return err
		})

		if err != nil {
			return err
		}
	}

	return nil
}

// RollbackTo reverts migrations newer than version, newest first
func (db *DB) RollbackTo(version int) error {
	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if migration.Version <= version {
			break
		}

		current, err := db.getCurrentVersion()
		if err != nil {
			return err
		}
		if migration.Version > current {
			continue
		}

		db.logger.Infof("Reverting migration %d: %s", migration.Version, migration.Description)

		err = db.ExecTx(func(tx *sql.Tx) error {
			if migration.Version > 1 {
				if _, err := tx.Exec(`DELETE FROM schema_version WHERE version = ?`, migration.Version); err != nil {
					return err
				}
			}
			if err := migration.Down(tx); err != nil {
				return fmt.Errorf("rollback of migration %d failed: %w", migration.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// getCurrentVersion returns the current schema version
func (db *DB) getCurrentVersion() (int, error) {
	var tableExists bool
	err := db.conn.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableExists)

	if err != nil {
		return 0, err
	}

	if !tableExists {
		return 0, nil
	}

	return db.GetVersion()
}

// Migration 001: Schema version tracking table
func migration001Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version INTEGER NOT NULL UNIQUE,
			description TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	return err
}

func migration001Down(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS schema_version`)
	return err
}

// Migration 002: One row per pass over all accounts
func migration002Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE cycle_runs (
			id TEXT PRIMARY KEY,
			sequence INTEGER NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME,
			status TEXT NOT NULL DEFAULT 'running',

			accounts_total INTEGER DEFAULT 0,
			accounts_succeeded INTEGER DEFAULT 0,
			accounts_failed INTEGER DEFAULT 0,
			coins_collected INTEGER DEFAULT 0,
			tasks_completed INTEGER DEFAULT 0,
			tasks_failed INTEGER DEFAULT 0
		);

		CREATE INDEX idx_cycle_runs_started ON cycle_runs(started_at);
	`)
	return err
}

func migration002Down(tx *sql.Tx) error {
	_, err := tx.Exec(`
		DROP INDEX IF EXISTS idx_cycle_runs_started;
		DROP TABLE IF EXISTS cycle_runs;
	`)
	return err
}

// Migration 003: Per-account result within a cycle
func migration003Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE account_outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id TEXT NOT NULL,
			account_id INTEGER NOT NULL,
			display_name TEXT,
			proxy TEXT,

			stage TEXT NOT NULL,
			result TEXT NOT NULL,
			message TEXT,

			token_refreshed BOOLEAN DEFAULT 0,
			balance INTEGER,
			coins_collected INTEGER DEFAULT 0,
			tasks_completed INTEGER DEFAULT 0,
			tasks_failed INTEGER DEFAULT 0,

			recorded_at DATETIME NOT NULL,
			FOREIGN KEY (cycle_id) REFERENCES cycle_runs(id) ON DELETE CASCADE
		);

		CREATE INDEX idx_outcomes_cycle ON account_outcomes(cycle_id);
		CREATE INDEX idx_outcomes_account ON account_outcomes(account_id, recorded_at);
	`)
	return err
}

func migration003Down(tx *sql.Tx) error {
	_, err := tx.Exec(`
		DROP INDEX IF EXISTS idx_outcomes_account;
		DROP INDEX IF EXISTS idx_outcomes_cycle;
		DROP TABLE IF EXISTS account_outcomes;
	`)
	return err
}

// Migration 004: Lifetime totals per account
func migration004Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE VIEW v_account_summary AS
		SELECT
			account_id,
			MAX(display_name) AS display_name,
			COUNT(*) AS runs,
			SUM(CASE WHEN result = 'success' THEN 1 ELSE 0 END) AS successes,
			COALESCE(SUM(coins_collected), 0) AS coins_collected,
			COALESCE(SUM(tasks_completed), 0) AS tasks_completed,
			MAX(recorded_at) AS last_run_at
		FROM account_outcomes
		GROUP BY account_id;
	`)
	return err
}

func migration004Down(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP VIEW IF EXISTS v_account_summary`)
	return err
}
