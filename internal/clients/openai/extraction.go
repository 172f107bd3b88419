package openai

import (
	"context"
	"errors"
	"fmt"

	"call-bridge/internal/extraction"
	"call-bridge/internal/observability"

	"github.com/openai/openai-go"
	openaiOption "github.com/openai/openai-go/option"
)

// ExtractionClient runs structured extraction through chat completions with
// a strict JSON schema response format.
type ExtractionClient struct {
	client openai.Client
	model  string
	logger *observability.Logger
}

func NewExtractionClient(apiKey, model string, logger *observability.Logger, opts ...openaiOption.RequestOption) (*ExtractionClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key not set")
	}
	options := append([]openaiOption.RequestOption{openaiOption.WithAPIKey(apiKey)}, opts...)
	return &ExtractionClient{
		client: openai.NewClient(options...),
		model:  model,
		logger: logger,
	}, nil
}

func (c *ExtractionClient) Name() string {
	return "openai"
}

// Extract returns the raw JSON content of the first choice.
func (c *ExtractionClient) Extract(ctx context.Context, req extraction.Request) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.Instruction),
			openai.UserMessage(req.Transcript),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.SchemaName,
					Schema: jsonSchema(req.Fields),
					Strict: openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned from OpenAI")
	}

	if refusal := resp.Choices[0].Message.Refusal; refusal != "" {
		return "", fmt.Errorf("model refused extraction: %s", refusal)
	}

	c.logger.Debug(ctx, fmt.Sprintf("Extraction used %d tokens", resp.Usage.TotalTokens))
	return resp.Choices[0].Message.Content, nil
}

// jsonSchema builds an object schema where every field is a required string.
func jsonSchema(fields []extraction.Field) map[string]interface{} {
	properties := make(map[string]interface{}, len(fields))
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		properties[f.Name] = map[string]interface{}{
			"type":        "string",
			"description": f.Description,
		}
		required = append(required, f.Name)
	}
	return map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}
