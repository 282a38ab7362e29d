package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var (
	// ErrEmptyInitData is returned for blank credential lines
	ErrEmptyInitData = errors.New("empty init data")

	// ErrMissingUser is returned when the credential has no user field
	ErrMissingUser = errors.New("init data has no user field")

	// ErrMissingUserID is returned when the embedded user has no numeric id
	ErrMissingUserID = errors.New("init data user has no id")
)

// Account is one automated identity built from a raw init-data line
type Account struct {
	ID          int64  // Backend-issued numeric user id, stable key for all per-account state
	DisplayName string // First name shown in logs
	Username    string
	InitData    string // Raw credential line, sent verbatim to the auth endpoint
}

// Key returns the id as used in the token file
func (a Account) Key() string {
	return strconv.FormatInt(a.ID, 10)
}

// Label is a short human-readable identifier for logs
func (a Account) Label() string {
	if a.DisplayName == "" {
		return a.Key()
	}
	return fmt.Sprintf("%s (%d)", a.DisplayName, a.ID)
}

type initDataUser struct {
	ID        json.Number `json:"id"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Username  string      `json:"username"`
}

// ParseInitData extracts the account identity from a query-string style credential line.
// The user field may be URL-encoded once or twice.
func ParseInitData(raw string) (Account, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Account{}, ErrEmptyInitData
	}

	// ParseQuery keeps every pair it could decode, so a malformed
	// unrelated field does not hide the user payload
	values, parseErr := url.ParseQuery(raw)
	userField := values.Get("user")
	if userField == "" {
		if parseErr != nil {
			return Account{}, fmt.Errorf("failed to parse init data: %w", parseErr)
		}
		return Account{}, ErrMissingUser
	}

	// Some exports encode the JSON payload a second time
	for i := 0; i < 2 && !strings.HasPrefix(userField, "{"); i++ {
		decoded, err := url.QueryUnescape(userField)
		if err != nil {
			return Account{}, fmt.Errorf("failed to decode user field: %w", err)
		}
		userField = decoded
	}

	var user initDataUser
	dec := json.NewDecoder(strings.NewReader(userField))
	dec.UseNumber()
	if err := dec.Decode(&user); err != nil {
		return Account{}, fmt.Errorf("failed to parse user field: %w", err)
	}

	if user.ID == "" {
		return Account{}, ErrMissingUserID
	}
	id, err := user.ID.Int64()
	if err != nil {
		return Account{}, fmt.Errorf("invalid user id %q: %w", user.ID, err)
	}

	return Account{
		ID:          id,
		DisplayName: user.FirstName,
		Username:    user.Username,
		InitData:    raw,
	}, nil
}
