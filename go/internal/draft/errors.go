package draft

import (
	"errors"
	"fmt"
)

// FailureCode identifies a pick rejection so callers can map it to the right
// user-facing response.
type FailureCode string

const (
	FailureLeagueNotFound      FailureCode = "LEAGUE_NOT_FOUND"
	FailureNotYourTurn         FailureCode = "NOT_YOUR_TURN"
	FailureCastawayUnavailable FailureCode = "CASTAWAY_UNAVAILABLE"
	FailureDraftComplete       FailureCode = "DRAFT_ALREADY_COMPLETE"
)

// PickError is a typed, recoverable pick violation. It is never retried by
// the core; the caller decides what to do with it.
type PickError struct {
	Code FailureCode
	Msg  string
}

func (e *PickError) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// NewPickError builds a PickError with a formatted message.
func NewPickError(code FailureCode, format string, args ...any) *PickError {
	return &PickError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// AsPickError unwraps err into a *PickError if one is in its chain.
func AsPickError(err error) (*PickError, bool) {
	var pe *PickError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
