package googleai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"call-bridge/internal/extraction"
	"call-bridge/internal/observability"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ExtractionClient runs structured extraction on Gemini with a JSON response
// schema.
type ExtractionClient struct {
	client *genai.Client
	model  string
	logger *observability.Logger
}

func NewExtractionClient(ctx context.Context, apiKey, model string, logger *observability.Logger, opts ...option.ClientOption) (*ExtractionClient, error) {
	if apiKey == "" {
		return nil, errors.New("Google AI API key not set")
	}
	c, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &ExtractionClient{
		client: c,
		model:  model,
		logger: logger,
	}, nil
}

func (c *ExtractionClient) Name() string {
	return "gemini"
}

func (c *ExtractionClient) Extract(ctx context.Context, req extraction.Request) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.Instruction)}}
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = responseSchema(req.Fields)

	resp, err := model.GenerateContent(ctx, genai.Text(req.Transcript))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if resp.UsageMetadata != nil {
		c.logger.Debug(ctx, fmt.Sprintf("Extraction used %d tokens", resp.UsageMetadata.TotalTokenCount))
	}
	return responseText(resp)
}

func (c *ExtractionClient) Close() error {
	return c.client.Close()
}

func responseSchema(fields []extraction.Field) *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(fields)),
		Required:   make([]string, 0, len(fields)),
	}
	for _, f := range fields {
		schema.Properties[f.Name] = &genai.Schema{
			Type:        genai.TypeString,
			Description: f.Description,
		}
		schema.Required = append(schema.Required, f.Name)
	}
	return schema
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no candidates returned from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("unexpected response format")
	}
	return sb.String(), nil
}
