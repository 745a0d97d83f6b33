package itinerary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/lifetravel/endpoint/internal/domain"
	"github.com/lifetravel/endpoint/internal/infrastructure/validate"
)

var ErrMalformedPayload = errors.New("malformed payload")

// InvalidRequestError is returned for syntactically valid frames that do not
// describe an itinerary request.
type InvalidRequestError struct {
	Violations []validate.FieldViolation
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request structure: %d violation(s)", len(e.Violations))
}

var recognizedFields = map[string]struct{}{
	"id":      {},
	"content": {},
}

type Decoder struct {
	validator *validate.Validator
}

func NewDecoder(v *validate.Validator) *Decoder {
	return &Decoder{validator: v}
}

// Decode turns one text frame into a request. It returns ErrMalformedPayload
// when raw is not UTF-8 encoded JSON and *InvalidRequestError when the JSON
// has the wrong shape.
func (d *Decoder) Decode(raw []byte) (domain.ItineraryRequest, error) {
	var req domain.ItineraryRequest

	// encoding/json would silently replace invalid bytes with U+FFFD.
	if !utf8.Valid(raw) || !json.Valid(raw) {
		return req, ErrMalformedPayload
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return req, &InvalidRequestError{Violations: []validate.FieldViolation{{
			Type:    "object_type",
			Message: "request must be a JSON object",
		}}}
	}

	var violations []validate.FieldViolation

	if v, ok := fields["id"]; ok && !isNull(v) {
		var id string
		if err := json.Unmarshal(v, &id); err != nil {
			violations = append(violations, stringTypeViolation("id"))
		} else {
			req.ID = &id
		}
	}

	contentOK := true
	if v, ok := fields["content"]; ok {
		if err := json.Unmarshal(v, &req.Content); err != nil || isNull(v) {
			violations = append(violations, stringTypeViolation("content"))
			contentOK = false
		}
	}
	if contentOK {
		violations = append(violations, d.validator.Struct(req)...)
	}

	violations = append(violations, extraFieldViolations(fields)...)

	if len(violations) > 0 {
		return domain.ItineraryRequest{}, &InvalidRequestError{Violations: violations}
	}

	return req, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func stringTypeViolation(field string) validate.FieldViolation {
	return validate.FieldViolation{
		Field:   field,
		Type:    "string_type",
		Message: field + " must be a string",
	}
}

func extraFieldViolations(fields map[string]json.RawMessage) []validate.FieldViolation {
	var extra []string
	for k := range fields {
		if _, ok := recognizedFields[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)

	violations := make([]validate.FieldViolation, 0, len(extra))
	for _, k := range extra {
		violations = append(violations, validate.FieldViolation{
			Field:   k,
			Type:    "extra_forbidden",
			Message: k + " is not a recognized field",
		})
	}
	return violations
}
