package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRuleNotFound means no pricing rule covers the requested
	// (type, mode) pair. Callers must treat the feature as unavailable,
	// never as free.
	ErrRuleNotFound = errors.New("pricing rule not found")

	// ErrCallInProgress means the user already owns a live session.
	ErrCallInProgress = errors.New("call already in progress")

	// ErrSessionNotFound means no live session matches the given id.
	ErrSessionNotFound = errors.New("session not found")
)

// AdmissionDeniedError carries the balance check that rejected a call
// start. Recoverable: the user tops up and retries.
type AdmissionDeniedError struct {
	Result BalanceCheckResult
}

func (e *AdmissionDeniedError) Error() string {
	return fmt.Sprintf("insufficient balance: short %s of required reserve %s",
		e.Result.Shortfall, e.Result.RequiredReserve)
}
