package ws

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/lifetravel/endpoint/internal/domain"
	"github.com/lifetravel/endpoint/internal/infrastructure/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func TestFrames(t *testing.T) {
	id := "trip-1"

	tests := []struct {
		name  string
		frame any
		want  string
	}{
		{
			name:  "invalid json",
			frame: NewInvalidJSON(),
			want:  `{"error":"Invalid JSON payload","expected":{"id":"optional itinerary_id","content":"user_prompt"}}`,
		},
		{
			name: "invalid structure",
			frame: NewInvalidStructure([]validate.FieldViolation{
				{Field: "content", Type: "required", Message: "content is required"},
			}),
			want: `{"error":"Invalid request structure","details":[{"field":"content","type":"required","message":"content is required"}],"expected":{"id":"optional itinerary_id","content":"user_prompt"}}`,
		},
		{
			name:  "publish failed",
			frame: NewPublishFailed(errors.New("connection refused")),
			want:  `{"error":"Failed to publish itinerary request","details":"connection refused"}`,
		},
		{
			name:  "received without id",
			frame: NewReceived(domain.ItineraryRequest{Content: "Plan a trip to Kyoto"}),
			want:  `{"id":null,"content":"Plan a trip to Kyoto","status":"received"}`,
		},
		{
			name:  "received with id",
			frame: NewReceived(domain.ItineraryRequest{ID: &id, Content: "Lisbon"}),
			want:  `{"id":"trip-1","content":"Lisbon","status":"received"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, encode(t, tt.frame))
		})
	}
}
