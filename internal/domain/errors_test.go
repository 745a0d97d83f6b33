package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishError(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:5672: connect: connection refused")
	err := fmt.Errorf("session: %w", NewPublishError("connect", cause))

	assert.ErrorIs(t, err, ErrPublishFailed)
	assert.ErrorIs(t, err, cause)
	assert.EqualError(t, err, "session: failed to publish itinerary request: connect: dial tcp 127.0.0.1:5672: connect: connection refused")

	var pubErr *PublishError
	assert.ErrorAs(t, err, &pubErr)
	assert.Equal(t, "connect", pubErr.Op)
}

func TestPublishError_NotMatchedByOtherErrors(t *testing.T) {
	assert.NotErrorIs(t, errors.New("other"), ErrPublishFailed)
}
