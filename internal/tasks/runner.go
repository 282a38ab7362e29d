package tasks

import (
	"context"
	"time"

	"jordanella.com/freedogs-go/internal/api"
	"jordanella.com/freedogs-go/internal/logging"
)

// Backend is the part of the API the runner needs
type Backend interface {
	ListTasks(ctx context.Context, token string) ([]api.Task, error)
	FinishTask(ctx context.Context, token string, taskID int64) error
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Outcome is the terminal state of one task attempt within a cycle
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// Attempt records one completion attempt
type Attempt struct {
	TaskID  int64
	Name    string
	Reward  string
	Outcome Outcome
	Reason  string
}

// Summary is what a run did; ListErr is set when the listing itself failed
type Summary struct {
	Listed    int
	Pending   int
	Completed int
	Failed    int
	Attempts  []Attempt
	ListErr   error
}

// Unfinished keeps the tasks the backend still reports as open, in listing order
func Unfinished(all []api.Task) []api.Task {
	var open []api.Task
	for _, t := range all {
		if !t.Finished() {
			open = append(open, t)
		}
	}
	return open
}

// Runner completes open tasks one at a time
type Runner struct {
	delay  time.Duration
	sleep  Sleeper
	logger *logging.Logger
}

// NewRunner creates a runner pausing delay between completions
func NewRunner(delay time.Duration, sleep Sleeper, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{delay: delay, sleep: sleep, logger: logger}
}

// Run lists and completes open tasks. Failures are logged and recorded, never returned.
func (r *Runner) Run(ctx context.Context, backend Backend, token string) Summary {
	var summary Summary

	all, err := backend.ListTasks(ctx, token)
	if err != nil {
		r.logger.Warnf("Cannot get task list: %s", api.Message(err))
		summary.ListErr = err
		return summary
	}

	open := Unfinished(all)
	summary.Listed = len(all)
	summary.Pending = len(open)
	r.logger.DebugWithContext("Task list loaded", map[string]interface{}{
		"listed":  summary.Listed,
		"pending": summary.Pending,
	})

	for i, task := range open {
		if i > 0 && r.delay > 0 && r.sleep != nil {
			if err := r.sleep(ctx, r.delay); err != nil {
				return summary
			}
		}

		attempt := Attempt{
			TaskID: task.ID.Int64(),
			Name:   task.Name,
			Reward: task.RewardParty.String(),
		}

		if err := backend.FinishTask(ctx, token, attempt.TaskID); err != nil {
			attempt.Outcome = OutcomeFailed
			attempt.Reason = api.Message(err)
			summary.Failed++
			r.logger.Warnf("Failed to complete task %s | Reason: %s", task.Name, attempt.Reason)
		} else {
			attempt.Outcome = OutcomeCompleted
			summary.Completed++
			r.logger.Infof("Completed task %s successfully | Reward: %s", task.Name, attempt.Reward)
		}
		summary.Attempts = append(summary.Attempts, attempt)
	}

	return summary
}
