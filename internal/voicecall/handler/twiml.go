package handler

import (
	"fmt"
	"net/http"
	"strings"

	"call-bridge/internal/apierrors"
	"call-bridge/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/twiml"
)

// HandleIncomingCall answers Twilio's voice webhook with TwiML that connects
// the call to its media stream.
func (h *Handler) HandleIncomingCall(c *gin.Context) {
	ctx := c.Request.Context()

	if err := c.Request.ParseForm(); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidInput, "Invalid form body")
		return
	}

	if h.verifier != nil {
		url := fmt.Sprintf("https://%s%s", h.cfg.Server.PublicHost, c.Request.URL.RequestURI())
		if !h.verifier.Validate(url, formParams(c), c.GetHeader("X-Twilio-Signature")) {
			apierrors.Forbidden(c, apierrors.CodeInvalidSignature, "Invalid Twilio signature")
			return
		}
	}

	callSid := c.PostForm("CallSid")
	if callSid == "" {
		apierrors.BadRequest(c, apierrors.CodeInvalidInput, "CallSid is required")
		return
	}
	ctx = observability.WithFields(ctx, observability.Field{Key: "call_sid", Value: callSid})

	var elements []twiml.Element
	if msg := strings.TrimSpace(h.cfg.PreConnectMessage); msg != "" {
		elements = append(elements, &twiml.VoiceSay{Message: msg})
	}
	stream := twiml.VoiceStream{
		Name: "media-stream",
		Url:  h.cfg.Server.MediaStreamURL(callSid),
	}
	connect := twiml.VoiceConnect{
		InnerElements: []twiml.Element{stream},
	}
	elements = append(elements, connect)

	twimlResult, err := twiml.Voice(elements)
	if err != nil {
		apierrors.InternalError(c, fmt.Errorf("failed to render TwiML: %w", err))
		return
	}

	h.logger.Info(ctx, "Answered incoming call")
	c.Header("Content-Type", "text/xml")
	c.String(http.StatusOK, twimlResult)
}

// formParams flattens the posted form the way Twilio signs it: one value
// per key.
func formParams(c *gin.Context) map[string]string {
	params := make(map[string]string, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}
