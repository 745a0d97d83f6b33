package ws

import (
	"github.com/lifetravel/endpoint/internal/domain"
	"github.com/lifetravel/endpoint/internal/infrastructure/validate"
)

const (
	ErrInvalidJSON      = "Invalid JSON payload"
	ErrInvalidStructure = "Invalid request structure"
	ErrPublishFailed    = "Failed to publish itinerary request"

	StatusReceived = "received"
)

// ExpectedShape documents the inbound frame in error replies.
type ExpectedShape struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

var expectedItinerary = ExpectedShape{
	ID:      "optional itinerary_id",
	Content: "user_prompt",
}

type ErrorFrame struct {
	Error    string         `json:"error"`
	Details  any            `json:"details,omitempty"`
	Expected *ExpectedShape `json:"expected,omitempty"`
}

type ReceivedFrame struct {
	ID      *string `json:"id"`
	Content string  `json:"content"`
	Status  string  `json:"status"`
}

func NewInvalidJSON() ErrorFrame {
	expected := expectedItinerary
	return ErrorFrame{
		Error:    ErrInvalidJSON,
		Expected: &expected,
	}
}

func NewInvalidStructure(violations []validate.FieldViolation) ErrorFrame {
	expected := expectedItinerary
	return ErrorFrame{
		Error:    ErrInvalidStructure,
		Details:  violations,
		Expected: &expected,
	}
}

func NewPublishFailed(err error) ErrorFrame {
	return ErrorFrame{
		Error:   ErrPublishFailed,
		Details: err.Error(),
	}
}

func NewReceived(req domain.ItineraryRequest) ReceivedFrame {
	return ReceivedFrame{
		ID:      req.ID,
		Content: req.Content,
		Status:  StatusReceived,
	}
}
