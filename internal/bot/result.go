package bot

import (
	"time"

	"jordanella.com/freedogs-go/internal/accounts"
	"jordanella.com/freedogs-go/internal/api"
	"jordanella.com/freedogs-go/internal/database"
	"jordanella.com/freedogs-go/internal/game"
	"jordanella.com/freedogs-go/internal/tasks"
)

// Stage is the last step an account reached in a cycle
type Stage string

const (
	StageProxy   Stage = "proxy"
	StageToken   Stage = "token"
	StageState   Stage = "state"
	StageCollect Stage = "collect"
	StageTasks   Stage = "tasks"
)

// AccountResult is one account's pass through a cycle
type AccountResult struct {
	Account accounts.Account
	Proxy   string
	Stage   Stage
	Err     error // set when the pass stopped early

	TokenRefreshed bool
	RefreshFailed  bool

	State      *game.State
	Collected  int64
	CollectErr error

	Tasks tasks.Summary
}

// Succeeded reports whether the account made it to the task step
func (r *AccountResult) Succeeded() bool {
	return r.Err == nil
}

func (r *AccountResult) outcome(cycleID string, at time.Time) *database.AccountOutcome {
	o := &database.AccountOutcome{
		CycleID:        cycleID,
		AccountID:      r.Account.ID,
		DisplayName:    r.Account.DisplayName,
		Proxy:          r.Proxy,
		Stage:          string(r.Stage),
		Result:         database.ResultSuccess,
		TokenRefreshed: r.TokenRefreshed,
		CoinsCollected: r.Collected,
		TasksCompleted: r.Tasks.Completed,
		TasksFailed:    r.Tasks.Failed,
		RecordedAt:     at,
	}

	switch {
	case r.Err != nil:
		o.Result = database.ResultFailed
		o.Message = api.Message(r.Err)
	case r.CollectErr != nil:
		o.Message = api.Message(r.CollectErr)
	case r.Tasks.ListErr != nil:
		o.Message = api.Message(r.Tasks.ListErr)
	}

	if r.State != nil {
		balance := r.State.Balance + r.Collected
		o.Balance = &balance
	}
	return o
}

// CycleStats summarizes one pass over all accounts
type CycleStats struct {
	ID         string
	Sequence   int // from the recorder, 0 when history is off
	StartedAt  time.Time
	FinishedAt time.Time
	Aborted    bool

	Accounts       int
	Succeeded      int
	Failed         int
	CoinsCollected int64
	TasksCompleted int
	TasksFailed    int

	Results []AccountResult
}

func (c *CycleStats) add(r *AccountResult) {
	if r.Succeeded() {
		c.Succeeded++
	} else {
		c.Failed++
	}
	c.CoinsCollected += r.Collected
	c.TasksCompleted += r.Tasks.Completed
	c.TasksFailed += r.Tasks.Failed
	c.Results = append(c.Results, *r)
}

func (c *CycleStats) totals() database.CycleTotals {
	return database.CycleTotals{
		FinishedAt:        c.FinishedAt,
		Aborted:           c.Aborted,
		AccountsTotal:     c.Accounts,
		AccountsSucceeded: c.Succeeded,
		AccountsFailed:    c.Failed,
		CoinsCollected:    c.CoinsCollected,
		TasksCompleted:    c.TasksCompleted,
		TasksFailed:       c.TasksFailed,
	}
}
