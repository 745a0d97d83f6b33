package itinerary

import (
	"errors"
	"testing"

	"github.com/lifetravel/endpoint/internal/infrastructure/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_Valid(t *testing.T) {
	d := NewDecoder(validate.New())

	req, err := d.Decode([]byte(`{"id":"trip-1","content":"Plan a trip to Kyoto"}`))
	require.NoError(t, err)
	require.NotNil(t, req.ID)
	assert.Equal(t, "trip-1", *req.ID)
	assert.Equal(t, "Plan a trip to Kyoto", req.Content)

	req, err = d.Decode([]byte(`{"content":"Plan a trip to Kyoto"}`))
	require.NoError(t, err)
	assert.Nil(t, req.ID)

	req, err = d.Decode([]byte(`{"id":null,"content":"x"}`))
	require.NoError(t, err)
	assert.Nil(t, req.ID)

	// Whitespace-only prompts are still content.
	for raw, want := range map[string]string{
		`{"content":" "}`:    " ",
		`{"content":"   "}`:  "   ",
		`{"content":"\t\n"}`: "\t\n",
	} {
		req, err = d.Decode([]byte(raw))
		require.NoError(t, err, "input %q", raw)
		assert.Equal(t, want, req.Content)
	}
}

func TestDecoder_Malformed(t *testing.T) {
	d := NewDecoder(validate.New())

	inputs := []string{
		``,
		`{`,
		`not json`,
		`{"content": "x",}`,
		`{'content': 'x'}`,
		"{\"content\":\"\xff\xfe\"}",
		"{\"id\":\"trip-\xc3\",\"content\":\"Kyoto\"}",
	}
	for _, raw := range inputs {
		_, err := d.Decode([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedPayload, "input %q", raw)
	}
}

func TestDecoder_InvalidStructure(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []validate.FieldViolation
	}{
		{
			name: "missing content",
			raw:  `{"id":"a"}`,
			want: []validate.FieldViolation{{Field: "content", Type: "required", Message: "content is required"}},
		},
		{
			name: "empty content",
			raw:  `{"content":""}`,
			want: []validate.FieldViolation{{Field: "content", Type: "required", Message: "content is required"}},
		},
		{
			name: "content not a string",
			raw:  `{"content":42}`,
			want: []validate.FieldViolation{{Field: "content", Type: "string_type", Message: "content must be a string"}},
		},
		{
			name: "content null",
			raw:  `{"content":null}`,
			want: []validate.FieldViolation{{Field: "content", Type: "string_type", Message: "content must be a string"}},
		},
		{
			name: "id not a string",
			raw:  `{"id":7,"content":"x"}`,
			want: []validate.FieldViolation{{Field: "id", Type: "string_type", Message: "id must be a string"}},
		},
		{
			name: "unknown fields",
			raw:  `{"content":"x","prompt":"y","extra":1}`,
			want: []validate.FieldViolation{
				{Field: "extra", Type: "extra_forbidden", Message: "extra is not a recognized field"},
				{Field: "prompt", Type: "extra_forbidden", Message: "prompt is not a recognized field"},
			},
		},
		{
			name: "array",
			raw:  `[{"content":"x"}]`,
			want: []validate.FieldViolation{{Type: "object_type", Message: "request must be a JSON object"}},
		},
		{
			name: "null",
			raw:  `null`,
			want: []validate.FieldViolation{{Type: "object_type", Message: "request must be a JSON object"}},
		},
		{
			name: "string",
			raw:  `"Plan a trip"`,
			want: []validate.FieldViolation{{Type: "object_type", Message: "request must be a JSON object"}},
		},
	}

	d := NewDecoder(validate.New())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.Decode([]byte(tc.raw))

			var invalid *InvalidRequestError
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Equal(t, tc.want, invalid.Violations)
		})
	}
}
