package extraction

//go:generate go run go.uber.org/mock/mockgen@latest -source=extraction.go -destination=mocks_test.go -package=extraction

import (
	"context"
	"errors"
)

var (
	ErrMalformedResult = errors.New("malformed extraction result")
	ErrSinkRejected    = errors.New("extraction sink rejected result")
)

// Instruction is the fixed system instruction sent with every transcript.
const Instruction = "You receive the transcript of a phone call between a caller and a voice agent. " +
	"Extract the customer's name, when the customer is available, and any special notes the customer gave. " +
	"Use an empty string for anything the call does not mention. Answer only with the JSON object."

// SchemaName names the structured output schema at the provider.
const SchemaName = "call_extraction"

// Field is one required string property of the structured result.
type Field struct {
	Name        string
	Description string
}

// ResultFields lists the properties every extraction result must carry.
var ResultFields = []Field{
	{Name: "customerName", Description: "The caller's name as stated on the call"},
	{Name: "customerAvailability", Description: "When the caller said they are available"},
	{Name: "specialNotes", Description: "Any other requests or remarks from the caller"},
}

// Request is one structured-extraction call.
type Request struct {
	Instruction string
	Transcript  string
	SchemaName  string
	Fields      []Field
}

// Extractor turns a transcript into the raw text of a structured result.
type Extractor interface {
	Extract(ctx context.Context, req Request) (string, error)
	Name() string
}

// Sink receives a validated result.
type Sink interface {
	Deliver(ctx context.Context, result Result) error
}
