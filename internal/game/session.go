package game

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"jordanella.com/freedogs-go/internal/api"
	"jordanella.com/freedogs-go/internal/logging"
)

var (
	// ErrInvalidSequence is returned when collectSeqNo is not an integer
	ErrInvalidSequence = errors.New("collect sequence number is not numeric")

	// ErrDailyLimitReached is returned when the pool has coins but today's clicks are used up
	ErrDailyLimitReached = errors.New("daily click limit reached")

	// ErrEmptyPool is returned when Collect is called with nothing in the pool
	ErrEmptyPool = errors.New("coin pool is empty")
)

// Backend is the part of the API a game session needs
type Backend interface {
	GetGameInfo(ctx context.Context, token string) (*api.GameInfo, error)
	CollectCoin(ctx context.Context, token string, req api.CollectRequest) error
}

// State is a snapshot of an account's currency and click counters
type State struct {
	Balance     int64
	PoolLeft    int64
	PoolLimit   int64
	ClicksToday int64
	MaxClicks   int64
	SeqNo       string // as received; converted by Sequence
}

// HasPool reports whether there is anything to collect
func (s State) HasPool() bool {
	return s.PoolLeft > 0
}

// Sequence returns the numeric collect sequence number
func (s State) Sequence() (int64, error) {
	seq, err := strconv.ParseInt(strings.TrimSpace(s.SeqNo), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSequence, s.SeqNo)
	}
	return seq, nil
}

// CollectResult is an accepted collection
type CollectResult struct {
	Amount   int64
	SeqNo    int64
	Checksum string
}

// CollectAmount is the pool remainder capped by the clicks left today, never negative
func CollectAmount(poolLeft, clicksToday, maxClicks int64) int64 {
	amount := min(poolLeft, maxClicks-clicksToday)
	if amount < 0 {
		return 0
	}
	return amount
}

// Checksum is the lowercase hex MD5 of amount, sequence number and salt concatenated
func Checksum(amount, seqNo int64, salt string) string {
	sum := md5.Sum([]byte(strconv.FormatInt(amount, 10) + strconv.FormatInt(seqNo, 10) + salt))
	return hex.EncodeToString(sum[:])
}

// Session fetches game state and collects the coin pool
type Session struct {
	salt      string
	maxClicks int64
	logger    *logging.Logger
}

// NewSession creates a session signing collections with salt and capping them at maxClicks per day
func NewSession(salt string, maxClicks int64, logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Session{salt: salt, maxClicks: maxClicks, logger: logger}
}

// FetchState reads the current game state
func (s *Session) FetchState(ctx context.Context, backend Backend, token string) (State, error) {
	info, err := backend.GetGameInfo(ctx, token)
	if err != nil {
		return State{}, err
	}

	state := State{
		Balance:     info.CurrentAmount.Int64(),
		PoolLeft:    info.CoinPoolLeft.Int64(),
		PoolLimit:   info.CoinPoolLimit.Int64(),
		ClicksToday: info.ClicksToday.Int64(),
		MaxClicks:   info.MaxClicks.Int64(),
		SeqNo:       info.CollectSeqNo.String(),
	}

	s.logger.Infof("Balance: %d", state.Balance)
	s.logger.Infof("Coin pool: %d / %d", state.PoolLeft, state.PoolLimit)
	s.logger.Infof("Clicks today: %d / %d", state.ClicksToday, state.MaxClicks)

	return state, nil
}

// Collect submits the largest allowed collection for state
func (s *Session) Collect(ctx context.Context, backend Backend, token string, state State) (CollectResult, error) {
	if !state.HasPool() {
		return CollectResult{}, ErrEmptyPool
	}

	seq, err := state.Sequence()
	if err != nil {
		return CollectResult{}, err
	}

	amount := CollectAmount(state.PoolLeft, state.ClicksToday, s.maxClicks)
	if amount == 0 {
		return CollectResult{}, ErrDailyLimitReached
	}

	req := api.CollectRequest{
		Amount:   amount,
		Checksum: Checksum(amount, seq, s.salt),
		SeqNo:    seq,
	}

	s.logger.DebugWithContext("Submitting collection", map[string]interface{}{
		"amount":   req.Amount,
		"seq":      req.SeqNo,
		"checksum": req.Checksum,
	})

	if err := backend.CollectCoin(ctx, token, req); err != nil {
		return CollectResult{}, err
	}

	s.logger.Infof("Successfully collected %d coins", amount)
	return CollectResult{Amount: amount, SeqNo: seq, Checksum: req.Checksum}, nil
}
