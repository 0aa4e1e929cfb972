package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrTimeout means neither status backend settled within the attempt deadline.
	ErrTimeout = errors.New("status resolution timed out")
	// ErrInternal marks a broken contract with the client, such as an unknown response variant.
	ErrInternal             = errors.New("internal error")
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")
)
