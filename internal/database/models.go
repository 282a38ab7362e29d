package database

import (
	"time"
)

// Cycle statuses
const (
	CycleRunning   = "running"
	CycleCompleted = "completed"
	CycleAborted   = "aborted"
)

// Account outcome results
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

// CycleRun is one pass over every loaded account
type CycleRun struct {
	ID         string     `db:"id"`
	Sequence   int        `db:"sequence"`
	StartedAt  time.Time  `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
	Status     string     `db:"status"`

	AccountsTotal     int   `db:"accounts_total"`
	AccountsSucceeded int   `db:"accounts_succeeded"`
	AccountsFailed    int   `db:"accounts_failed"`
	CoinsCollected    int64 `db:"coins_collected"`
	TasksCompleted    int   `db:"tasks_completed"`
	TasksFailed       int   `db:"tasks_failed"`
}

// CycleTotals is written when a cycle ends
type CycleTotals struct {
	FinishedAt        time.Time
	Aborted           bool
	AccountsTotal     int
	AccountsSucceeded int
	AccountsFailed    int
	CoinsCollected    int64
	TasksCompleted    int
	TasksFailed       int
}

// AccountOutcome is what happened to one account in one cycle.
// Stage names the last step reached: proxy, token, state, collect or tasks.
type AccountOutcome struct {
	ID             int64  `db:"id"`
	CycleID        string `db:"cycle_id"`
	AccountID      int64  `db:"account_id"`
	DisplayName    string `db:"display_name"`
	Proxy          string `db:"proxy"`
	Stage          string `db:"stage"`
	Result         string `db:"result"`
	Message        string `db:"message"`
	TokenRefreshed bool   `db:"token_refreshed"`
	Balance        *int64 `db:"balance"`
	CoinsCollected int64  `db:"coins_collected"`
	TasksCompleted int    `db:"tasks_completed"`
	TasksFailed    int    `db:"tasks_failed"`

	RecordedAt time.Time `db:"recorded_at"`
}

// AccountSummary is the lifetime view of one account
type AccountSummary struct {
	AccountID      int64  `db:"account_id"`
	DisplayName    string `db:"display_name"`
	Runs           int    `db:"runs"`
	Successes      int    `db:"successes"`
	CoinsCollected int64  `db:"coins_collected"`
	TasksCompleted int    `db:"tasks_completed"`
	LastRunAt      string `db:"last_run_at"`
}
