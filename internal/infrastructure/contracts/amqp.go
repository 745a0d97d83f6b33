package contracts

import "github.com/lifetravel/endpoint/internal/domain"

// ItineraryEnvelope is the message body placed on the broker. The id is
// always present in the JSON, as null when the client sent none.
type ItineraryEnvelope struct {
	ID      *string `json:"id"`
	Content string  `json:"content"`
}

func NewItineraryEnvelope(req domain.ItineraryRequest) ItineraryEnvelope {
	return ItineraryEnvelope{
		ID:      req.ID,
		Content: req.Content,
	}
}

// Routing keys
const (
	CommandItineraryUserRequest = "itinerary:user_request"
)
