package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Result is the structured outcome of a call. Empty strings are valid values.
type Result struct {
	CustomerName         string `json:"customerName" yaml:"customerName"`
	CustomerAvailability string `json:"customerAvailability" yaml:"customerAvailability"`
	SpecialNotes         string `json:"specialNotes" yaml:"specialNotes"`
}

// rawResult distinguishes a missing key from an empty value.
type rawResult struct {
	CustomerName         *string `json:"customerName" validate:"required"`
	CustomerAvailability *string `json:"customerAvailability" validate:"required"`
	SpecialNotes         *string `json:"specialNotes" validate:"required"`
}

// ParseResult decodes provider output into a Result. The output must be a
// single JSON object with all three keys present as strings.
func ParseResult(raw string) (Result, error) {
	trimmed := strings.TrimSpace(stripCodeFence(raw))
	if trimmed == "" {
		return Result{}, fmt.Errorf("%w: empty output", ErrMalformedResult)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	var parsed rawResult
	if err := dec.Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	if dec.More() {
		return Result{}, fmt.Errorf("%w: trailing data after object", ErrMalformedResult)
	}

	if err := validate.Struct(parsed); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}

	return Result{
		CustomerName:         *parsed.CustomerName,
		CustomerAvailability: *parsed.CustomerAvailability,
		SpecialNotes:         *parsed.SpecialNotes,
	}, nil
}

// stripCodeFence removes a ```json fence some models wrap around output.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}
