package database

import (
	"database/sql"
	"fmt"
	"time"
)

// RecordAccount stores one account's outcome and returns its row id
func (db *DB) RecordAccount(o *AccountOutcome) (int64, error) {
	if o.RecordedAt.IsZero() {
		o.RecordedAt = time.Now()
	}

	var id int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			INSERT INTO account_outcomes (
				cycle_id, account_id, display_name, proxy,
				stage, result, message, token_refreshed, balance,
				coins_collected, tasks_completed, tasks_failed, recorded_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, o.CycleID, o.AccountID, o.DisplayName, o.Proxy,
			o.Stage, o.Result, o.Message, o.TokenRefreshed, o.Balance,
			o.CoinsCollected, o.TasksCompleted, o.TasksFailed, o.RecordedAt)
		if err != nil {
			return fmt.Errorf("failed to insert account outcome: %w", err)
		}

		id, err = result.LastInsertId()
		return err
	})

	if err != nil {
		return 0, err
	}
	o.ID = id
	return id, nil
}

// RecentOutcomes returns an account's latest outcomes, newest first
func (db *DB) RecentOutcomes(accountID int64, limit int) ([]*AccountOutcome, error) {
	rows, err := db.conn.Query(outcomeSelect+`
		WHERE account_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

// CycleOutcomes returns every outcome of a cycle in processing order
func (db *DB) CycleOutcomes(cycleID string) ([]*AccountOutcome, error) {
	rows, err := db.conn.Query(outcomeSelect+` WHERE cycle_id = ? ORDER BY id`, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

// AccountSummaries returns lifetime totals for every account seen
func (db *DB) AccountSummaries() ([]*AccountSummary, error) {
	rows, err := db.conn.Query(`
		SELECT account_id, COALESCE(display_name, ''), runs, successes,
			coins_collected, tasks_completed, COALESCE(last_run_at, '')
		FROM v_account_summary
		ORDER BY account_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*AccountSummary
	for rows.Next() {
		s := &AccountSummary{}
		if err := rows.Scan(&s.AccountID, &s.DisplayName, &s.Runs, &s.Successes,
			&s.CoinsCollected, &s.TasksCompleted, &s.LastRunAt); err != nil {
			return nil, fmt.Errorf("failed to scan account summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

const outcomeSelect = `
	SELECT id, cycle_id, account_id, COALESCE(display_name, ''), COALESCE(proxy, ''),
		stage, result, COALESCE(message, ''), token_refreshed, balance,
		coins_collected, tasks_completed, tasks_failed, recorded_at
	FROM account_outcomes`

func scanOutcomes(rows *sql.Rows) ([]*AccountOutcome, error) {
	var outcomes []*AccountOutcome
	for rows.Next() {
		o := &AccountOutcome{}
		var balance sql.NullInt64
		err := rows.Scan(
			&o.ID, &o.CycleID, &o.AccountID, &o.DisplayName, &o.Proxy,
			&o.Stage, &o.Result, &o.Message, &o.TokenRefreshed, &balance,
			&o.CoinsCollected, &o.TasksCompleted, &o.TasksFailed, &o.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account outcome: %w", err)
		}
		if balance.Valid {
			b := balance.Int64
			o.Balance = &b
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
