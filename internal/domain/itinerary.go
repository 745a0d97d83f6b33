package domain

import "context"

// ItineraryRequest is one prompt received from a client. It lives only for
// the handling of the frame that carried it.
type ItineraryRequest struct {
	ID      *string `json:"id"`
	Content string  `json:"content" validate:"required"`
}

// HasID reports whether the caller supplied an itinerary id.
func (r ItineraryRequest) HasID() bool {
	return r.ID != nil
}

// ItineraryPublisher forwards a validated request to the broker. One call is
// one publish attempt.
type ItineraryPublisher interface {
	PublishItinerary(ctx context.Context, req ItineraryRequest) error
}
