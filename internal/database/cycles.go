package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrCycleNotFound is returned when a cycle id has no row
var ErrCycleNotFound = errors.New("cycle not found")

// StartCycle inserts a running cycle row and returns its sequence number
func (db *DB) StartCycle(id string, startedAt time.Time) (int, error) {
	var sequence int
	err := db.ExecTx(func(tx *sql.Tx) error {
		if err := tx.QueryRow(`SELECT COALESCE(MAX(sequence), 0) + 1 FROM cycle_runs`).Scan(&sequence); err != nil {
			return fmt.Errorf("failed to get next cycle sequence: %w", err)
		}

		_, err := tx.Exec(`
			INSERT INTO cycle_runs (id, sequence, started_at, status)
			VALUES (?, ?, ?, ?)
		`, id, sequence, startedAt, CycleRunning)
		if err != nil {
			return fmt.Errorf("failed to insert cycle: %w", err)
		}
		return nil
	})

	if err != nil {
		return 0, err
	}
	return sequence, nil
}

// FinishCycle stores the totals of a cycle and marks it completed or aborted
func (db *DB) FinishCycle(id string, totals CycleTotals) error {
	status := CycleCompleted
	if totals.Aborted {
		status = CycleAborted
	}

	return db.ExecTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE cycle_runs
			SET finished_at = ?,
				status = ?,
				accounts_total = ?,
				accounts_succeeded = ?,
				accounts_failed = ?,
				coins_collected = ?,
				tasks_completed = ?,
				tasks_failed = ?
			WHERE id = ?
		`, totals.FinishedAt, status, totals.AccountsTotal, totals.AccountsSucceeded,
			totals.AccountsFailed, totals.CoinsCollected, totals.TasksCompleted,
			totals.TasksFailed, id)
		if err != nil {
			return fmt.Errorf("failed to update cycle: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrCycleNotFound, id)
		}
		return nil
	})
}

// GetCycle retrieves a cycle by id
func (db *DB) GetCycle(id string) (*CycleRun, error) {
	rows, err := db.conn.Query(cycleSelect+` WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cycles, err := scanCycles(rows)
	if err != nil {
		return nil, err
	}
	if len(cycles) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCycleNotFound, id)
	}
	return cycles[0], nil
}

// RecentCycles returns the latest cycles, newest first
func (db *DB) RecentCycles(limit int) ([]*CycleRun, error) {
	rows, err := db.conn.Query(cycleSelect+` ORDER BY sequence DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCycles(rows)
}

// CycleCount returns how many cycles have been started
func (db *DB) CycleCount() (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM cycle_runs`).Scan(&count)
	return count, err
}

const cycleSelect = `
	SELECT id, sequence, started_at, finished_at, status,
		accounts_total, accounts_succeeded, accounts_failed,
		coins_collected, tasks_completed, tasks_failed
	FROM cycle_runs`

func scanCycles(rows *sql.Rows) ([]*CycleRun, error) {
	var cycles []*CycleRun
	for rows.Next() {
		c := &CycleRun{}
		var finishedAt sql.NullTime
		err := rows.Scan(
			&c.ID, &c.Sequence, &c.StartedAt, &finishedAt, &c.Status,
			&c.AccountsTotal, &c.AccountsSucceeded, &c.AccountsFailed,
			&c.CoinsCollected, &c.TasksCompleted, &c.TasksFailed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		if finishedAt.Valid {
			c.FinishedAt = &finishedAt.Time
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}
