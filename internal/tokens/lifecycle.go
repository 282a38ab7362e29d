package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jordanella.com/freedogs-go/internal/accounts"
	"jordanella.com/freedogs-go/internal/logging"
)

// Authenticator exchanges a raw credential for a fresh bearer token
type Authenticator interface {
	Authenticate(ctx context.Context, initData string) (string, error)
}

// RefreshError reports that a required token refresh failed; the account is skipped this cycle
type RefreshError struct {
	AccountID int64
	Err       error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed for account %d: %v", e.AccountID, e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// ErrEmptyToken is returned when the backend accepts a login but sends no token
var ErrEmptyToken = errors.New("auth response contained no token")

// Result describes what EnsureValid did
type Result struct {
	Token     string
	Refreshed bool
	Expiry    *time.Time
}

// Lifecycle decides whether a stored token is usable and refreshes it when not
type Lifecycle struct {
	store  *Store
	logger *logging.Logger
	now    func() time.Time
}

// NewLifecycle creates a lifecycle over store; now defaults to time.Now
func NewLifecycle(store *Store, logger *logging.Logger, now func() time.Time) *Lifecycle {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Lifecycle{store: store, logger: logger, now: now}
}

// EnsureValid returns a usable token for account, refreshing through auth when the stored
// one is missing or expired. A failed refresh returns *RefreshError.
func (l *Lifecycle) EnsureValid(ctx context.Context, account accounts.Account, auth Authenticator) (Result, error) {
	log := l.logger.WithContext(map[string]interface{}{"account": account.ID})

	if token, ok := l.store.Get(account.Key()); ok && !l.expired(log, token) {
		exp, _ := Expiry(token)
		return Result{Token: token, Expiry: exp}, nil
	}

	log.Info("Need to get new token")
	token, err := auth.Authenticate(ctx, account.InitData)
	if err == nil && token == "" {
		err = ErrEmptyToken
	}
	if err != nil {
		return Result{}, &RefreshError{AccountID: account.ID, Err: err}
	}
	log.Info("Successfully obtained token")

	// The token is usable even if the file write fails; it is retried on the next refresh
	if err := l.store.Set(account.Key(), token); err != nil {
		log.Error("Failed to persist new token", err)
	} else {
		log.Info("New token has been saved")
	}

	exp, _ := Expiry(token)
	return Result{Token: token, Refreshed: true, Expiry: exp}, nil
}

// expired logs what it finds about the stored token, then reports whether it needs replacing
func (l *Lifecycle) expired(log *logging.ContextLogger, token string) bool {
	exp, err := Expiry(token)
	switch {
	case err != nil:
		log.Error("Stored token is unreadable, forcing refresh", err)
		return true
	case exp == nil:
		log.Warn("Perpetual token, expiration time cannot be read")
		return false
	}

	log.Infof("Token expires on: %s", exp.Local().Format("2006-01-02 15:04:05"))
	if IsExpired(token, l.now()) {
		log.Info("Token has expired, a new one is required")
		return true
	}
	return false
}
