package domain

import (
	"errors"
	"fmt"
)

var ErrPublishFailed = errors.New("failed to publish itinerary request")

// PublishError is returned for any broker interaction failure. Callers match
// it with errors.Is(err, ErrPublishFailed) and read the cause via Unwrap.
type PublishError struct {
	Op  string
	Err error
}

func NewPublishError(op string, err error) *PublishError {
	return &PublishError{Op: op, Err: err}
}

func (e *PublishError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%v: %v", ErrPublishFailed, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrPublishFailed, e.Op, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

func (e *PublishError) Is(target error) bool {
	return target == ErrPublishFailed
}
