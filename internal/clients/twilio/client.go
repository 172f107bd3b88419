package twilio

import (
	"context"
	"errors"
	"fmt"

	"call-bridge/internal/observability"

	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// callAPI is the slice of the Twilio REST API used for call control.
type callAPI interface {
	UpdateCall(sid string, params *openapi.UpdateCallParams) (*openapi.ApiV2010Call, error)
}

// CallControl ends calls through the Twilio REST API.
type CallControl struct {
	api    callAPI
	logger *observability.Logger
}

func NewCallControl(accountSID, authToken string, logger *observability.Logger) (*CallControl, error) {
	if accountSID == "" || authToken == "" {
		return nil, errors.New("twilio account sid and auth token are required")
	}
	restClient := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &CallControl{api: restClient.Api, logger: logger}, nil
}

// Hangup marks the call completed. The REST client has no context support,
// so ctx only carries log fields.
func (c *CallControl) Hangup(ctx context.Context, callSid string) error {
	if callSid == "" {
		return errors.New("call sid is required")
	}

	params := &openapi.UpdateCallParams{}
	params.SetStatus("completed")

	if _, err := c.api.UpdateCall(callSid, params); err != nil {
		return fmt.Errorf("failed to hang up call %s: %w", callSid, err)
	}

	c.logger.Info(observability.WithFields(ctx, observability.Field{Key: "call_sid", Value: callSid}),
		"Hung up call via Twilio REST API")
	return nil
}

// SignatureValidator checks the X-Twilio-Signature header of webhook requests.
type SignatureValidator struct {
	validator client.RequestValidator
}

func NewSignatureValidator(authToken string) *SignatureValidator {
	return &SignatureValidator{validator: client.NewRequestValidator(authToken)}
}

// Validate reports whether signature matches the full request URL and the
// posted form parameters.
func (v *SignatureValidator) Validate(url string, params map[string]string, signature string) bool {
	if signature == "" {
		return false
	}
	return v.validator.Validate(url, params, signature)
}
