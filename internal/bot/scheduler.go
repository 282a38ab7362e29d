package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"jordanella.com/freedogs-go/internal/accounts"
	"jordanella.com/freedogs-go/internal/api"
	"jordanella.com/freedogs-go/internal/database"
	"jordanella.com/freedogs-go/internal/game"
	"jordanella.com/freedogs-go/internal/logging"
	"jordanella.com/freedogs-go/internal/proxypool"
	"jordanella.com/freedogs-go/internal/tasks"
	"jordanella.com/freedogs-go/internal/tokens"
)

// Backend is everything one account's pass needs from the API
type Backend interface {
	tokens.Authenticator
	game.Backend
	tasks.Backend
}

// BackendFactory builds a backend bound to p; p is nil for a direct connection
type BackendFactory func(p *proxypool.Proxy) (Backend, error)

// Recorder persists run history; *database.DB satisfies it
type Recorder interface {
	StartCycle(id string, startedAt time.Time) (int, error)
	RecordAccount(o *database.AccountOutcome) (int64, error)
	FinishCycle(id string, totals database.CycleTotals) error
}

// Options wires a Scheduler. Accounts, Proxies, Tokens, NewBackend, Session and Tasks are required.
type Options struct {
	Accounts   []accounts.Account
	Proxies    *proxypool.Assigner
	Tokens     *tokens.Lifecycle
	NewBackend BackendFactory
	Session    *game.Session
	Tasks      *tasks.Runner

	Recorder Recorder // optional
	Metrics  *Metrics // optional
	Logger   *logging.Logger

	Sleep     Sleeper   // defaults to Sleep
	Countdown io.Writer // nil waits silently between cycles

	AccountDelay time.Duration
	CycleDelay   time.Duration
	MaxCycles    int // 0 runs until ctx is cancelled

	NewID func() string    // defaults to uuid.NewString
	Now   func() time.Time // defaults to time.Now
}

// Scheduler runs every account in order, forever, with fixed pacing
type Scheduler struct {
	opts     Options
	logger   *logging.Logger
	backends map[int64]Backend
	cycles   int
}

// NewScheduler validates opts and fills in defaults
func NewScheduler(opts Options) (*Scheduler, error) {
	switch {
	case opts.Proxies == nil:
		return nil, errors.New("scheduler requires a proxy assigner")
	case opts.Tokens == nil:
		return nil, errors.New("scheduler requires a token lifecycle")
	case opts.NewBackend == nil:
		return nil, errors.New("scheduler requires a backend factory")
	case opts.Session == nil:
		return nil, errors.New("scheduler requires a game session")
	case opts.Tasks == nil:
		return nil, errors.New("scheduler requires a task runner")
	}

	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Scheduler{
		opts:     opts,
		logger:   opts.Logger,
		backends: make(map[int64]Backend),
	}, nil
}

// Cycles returns how many cycles have run
func (s *Scheduler) Cycles() int {
	return s.cycles
}

// Run repeats cycles with a countdown between them until MaxCycles is reached or ctx is cancelled.
// Cancellation is a normal stop and returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.InfoWithContext("Scheduler started", map[string]interface{}{
		"accounts":    len(s.opts.Accounts),
		"proxies":     s.opts.Proxies.Size(),
		"cycle_delay": s.opts.CycleDelay.String(),
	})

	for {
		stats := s.RunCycle(ctx)
		if stats.Aborted || ctx.Err() != nil {
			s.logger.Info("Scheduler stopped")
			return nil
		}

		if s.opts.MaxCycles > 0 && s.cycles >= s.opts.MaxCycles {
			s.logger.Infof("Completed %d cycles", s.cycles)
			return nil
		}

		if err := Countdown(ctx, s.opts.Countdown, s.opts.CycleDelay, s.opts.Sleep); err != nil {
			s.logger.Info("Scheduler stopped")
			return nil
		}
	}
}

// RunCycle processes every account once, in input order
func (s *Scheduler) RunCycle(ctx context.Context) CycleStats {
	s.cycles++
	stats := CycleStats{
		ID:        s.opts.NewID(),
		StartedAt: s.opts.Now(),
		Accounts:  len(s.opts.Accounts),
	}

	recording := s.startRecording(&stats)
	if s.opts.Metrics != nil {
		s.opts.Metrics.Cycles.Inc()
	}

	s.logger.InfoWithContext("Starting cycle", map[string]interface{}{
		"cycle":    stats.ID,
		"number":   s.cycles,
		"accounts": stats.Accounts,
	})

	for i, account := range s.opts.Accounts {
		if ctx.Err() != nil {
			stats.Aborted = true
			break
		}

		s.logger.Infof("========== Account %d | %s ==========", i+1, account.DisplayName)

		result := s.runAccount(ctx, account)
		stats.add(&result)
		s.opts.Metrics.observeAccount(&result)
		if recording {
			s.record(stats.ID, &result)
		}

		if err := s.opts.Sleep(ctx, s.opts.AccountDelay); err != nil {
			stats.Aborted = true
			break
		}
	}

	stats.FinishedAt = s.opts.Now()
	if s.opts.Metrics != nil {
		s.opts.Metrics.LastCycleDuration.Set(stats.FinishedAt.Sub(stats.StartedAt).Seconds())
	}
	if recording {
		s.finishRecording(&stats)
	}

	s.logger.InfoWithContext("Cycle finished", map[string]interface{}{
		"cycle":     stats.ID,
		"succeeded": stats.Succeeded,
		"failed":    stats.Failed,
		"coins":     stats.CoinsCollected,
		"tasks":     stats.TasksCompleted,
		"aborted":   stats.Aborted,
	})

	return stats
}

// runAccount performs steps proxy, token, state, collect and tasks for one account.
// Errors end the account's pass but never the cycle.
func (s *Scheduler) runAccount(ctx context.Context, account accounts.Account) AccountResult {
	result := AccountResult{Account: account, Stage: StageProxy}
	log := s.logger.WithContext(map[string]interface{}{"account": account.ID})

	backend, proxyLabel, err := s.backendFor(account)
	result.Proxy = proxyLabel
	if err != nil {
		result.Err = err
		log.Error("Cannot create backend client", err)
		return result
	}

	result.Stage = StageToken
	tok, err := s.opts.Tokens.EnsureValid(ctx, account, backend)
	if err != nil {
		result.Err = err
		result.RefreshFailed = true
		log.Error(fmt.Sprintf("Cannot get token: %s", api.Message(errors.Unwrap(err))), err)
		return result
	}
	result.TokenRefreshed = tok.Refreshed

	result.Stage = StageState
	state, err := s.opts.Session.FetchState(ctx, backend, tok.Token)
	if err != nil {
		result.Err = err
		log.Error(fmt.Sprintf("Cannot get game info: %s", api.Message(err)), err)
		return result
	}
	result.State = &state

	result.Stage = StageCollect
	if state.HasPool() {
		collected, err := s.opts.Session.Collect(ctx, backend, tok.Token, state)
		if err != nil {
			result.CollectErr = err
			log.Warn(fmt.Sprintf("Failed to collect coins: %s", api.Message(err)))
		} else {
			result.Collected = collected.Amount
		}
	} else {
		log.Info("No coins to collect")
	}

	result.Stage = StageTasks
	result.Tasks = s.opts.Tasks.Run(ctx, backend, tok.Token)

	return result
}

// backendFor returns the account's cached backend, creating it on first use with its sticky proxy
func (s *Scheduler) backendFor(account accounts.Account) (Backend, string, error) {
	p, ok := s.opts.Proxies.Assign(account.ID)
	label := ""
	if ok {
		label = p.Redacted()
	}

	if b, cached := s.backends[account.ID]; cached {
		return b, label, nil
	}

	var proxy *proxypool.Proxy
	if ok {
		proxy = &p
		s.logger.Infof("Using proxy %s", label)
	} else {
		s.logger.Warn("No proxy available, connecting directly")
	}

	b, err := s.opts.NewBackend(proxy)
	if err != nil {
		return nil, label, err
	}
	s.backends[account.ID] = b
	return b, label, nil
}

func (s *Scheduler) startRecording(stats *CycleStats) bool {
	if s.opts.Recorder == nil {
		return false
	}

	seq, err := s.opts.Recorder.StartCycle(stats.ID, stats.StartedAt)
	if err != nil {
		s.logger.Error("Failed to record cycle start, history disabled for this cycle", err)
		return false
	}
	stats.Sequence = seq
	return true
}

func (s *Scheduler) record(cycleID string, r *AccountResult) {
	if _, err := s.opts.Recorder.RecordAccount(r.outcome(cycleID, s.opts.Now())); err != nil {
		s.logger.Error("Failed to record account outcome", err)
	}
}

func (s *Scheduler) finishRecording(stats *CycleStats) {
	if err := s.opts.Recorder.FinishCycle(stats.ID, stats.totals()); err != nil {
		s.logger.Error("Failed to record cycle end", err)
	}
}
