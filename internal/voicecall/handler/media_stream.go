package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"call-bridge/internal/apierrors"
	"call-bridge/internal/observability"
	"call-bridge/internal/voicecall/session"
	"call-bridge/internal/voicecall/twilio"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HandleMediaStream accepts Twilio's media-stream websocket for one call and
// runs its session until the call ends.
func (h *Handler) HandleMediaStream(c *gin.Context) {
	callSid := c.Param("callSid")
	ctx := observability.WithFields(c.Request.Context(), observability.Field{Key: "call_sid", Value: callSid})

	if _, exists := h.registry.Get(callSid); exists {
		apierrors.Conflict(c, apierrors.CodeDuplicateSession, "A session is already running for this call")
		return
	}

	if !h.track() {
		apierrors.ServiceUnavailable(c, apierrors.CodeShuttingDown, "Server is shutting down", errors.New("media stream after shutdown"))
		return
	}
	defer h.sessions.Done()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error(ctx, "WebSocket upgrade failed", err)
		return
	}
	defer conn.Close()

	telephony := twilio.NewWebSocketHandler(conn, h.logger)

	cfg := h.cfg.Session
	cfg.ID = callSid
	cfg.CallSid = callSid
	s := session.New(cfg, session.Dependencies{
		Telephony: telephony,
		Dialer:    h.dialer,
		Jobs:      h.jobs,
		Registry:  h.registry,
		Hangup:    h.hangup,
		Codec:     h.codec,
		Logger:    h.logger,
	})

	if err := h.registry.Add(s); err != nil {
		h.logger.Warn(ctx, fmt.Sprintf("Rejecting media stream: %v", err))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "duplicate session"))
		return
	}

	// The hijacked connection outlives the request context, so the session
	// is bound to the handler's lifetime instead.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	stop := context.AfterFunc(h.root, cancel)
	defer stop()

	h.logger.Info(ctx, "Twilio media stream connected")
	summary := s.Run(runCtx)

	h.logger.Metrics(ctx,
		observability.MetricField{Key: "end_reason", Value: string(summary.Reason)},
		observability.MetricField{Key: "greeted", Value: summary.Greeted},
		observability.MetricField{Key: "utterances", Value: summary.Utterances},
		observability.MetricField{Key: "duration_ms", Value: summary.Duration.Milliseconds()},
	)
}

type sessionView struct {
	ID        string `json:"id"`
	CallSid   string `json:"callSid"`
	StreamSid string `json:"streamSid,omitempty"`
	Phase     string `json:"phase"`
	Greeted   bool   `json:"greeted"`
}

func viewOf(s *session.Session) sessionView {
	return sessionView{
		ID:        s.ID(),
		CallSid:   s.CallSID(),
		StreamSid: s.StreamSID(),
		Phase:     string(s.Phase()),
		Greeted:   s.Greeted(),
	}
}

// HandleListSessions reports the calls currently being bridged.
func (h *Handler) HandleListSessions(c *gin.Context) {
	ids := h.registry.IDs()
	views := make([]sessionView, 0, len(ids))
	for _, id := range ids {
		if s, ok := h.registry.Get(id); ok {
			views = append(views, viewOf(s))
		}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(views), "sessions": views})
}

func (h *Handler) HandleGetSession(c *gin.Context) {
	s, ok := h.registry.Get(c.Param("id"))
	if !ok {
		apierrors.NotFound(c, "Session not found")
		return
	}
	c.JSON(http.StatusOK, viewOf(s))
}
