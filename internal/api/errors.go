package api

import (
	"errors"
	"fmt"
)

// CodeTransport marks failures that never produced a response envelope
const CodeTransport = -1

// Error is the tagged failure of a backend operation
type Error struct {
	Op      string // Auth, GetGameInfo, CollectCoin, ListTasks, FinishTask
	Code    int64  // envelope code, HTTP status, or CodeTransport
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s (code %d)", e.Op, e.Message, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Rejected reports whether the backend answered with a non-success envelope
func (e *Error) Rejected() bool {
	return e.Err == nil && e.Code != CodeTransport
}

// Message extracts the backend's message from err, falling back to err.Error()
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
