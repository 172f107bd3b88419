package handler

import (
	"context"
	"net/http"
	"sync"

	"call-bridge/internal/config"
	"call-bridge/internal/observability"
	"call-bridge/internal/voicecall/audio"
	"call-bridge/internal/voicecall/session"

	"github.com/gorilla/websocket"
)

// SignatureVerifier checks that a webhook request really came from Twilio.
type SignatureVerifier interface {
	Validate(url string, params map[string]string, signature string) bool
}

// Config is what the phone routes need beyond their collaborators. Session
// is the per-call template; ID and CallSid are filled in for each call.
type Config struct {
	Server            config.ServerConfig
	PreConnectMessage string
	Session           session.Config
}

// Dependencies for New. Verifier, Hangup and Codec are optional.
type Dependencies struct {
	Registry *session.Registry
	Dialer   session.SpeechDialer
	Jobs     session.JobSubmitter
	Hangup   session.CallHangup
	Codec    audio.Codec
	Verifier SignatureVerifier
	Logger   *observability.Logger
}

type Handler struct {
	cfg      Config
	registry *session.Registry
	dialer   session.SpeechDialer
	jobs     session.JobSubmitter
	hangup   session.CallHangup
	codec    audio.Codec
	verifier SignatureVerifier
	logger   *observability.Logger

	// root is cancelled on Shutdown and ends every running session.
	root     context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	closed   bool
	sessions sync.WaitGroup
}

func New(cfg Config, deps Dependencies) *Handler {
	root, cancel := context.WithCancel(context.Background())
	return &Handler{
		cfg:      cfg,
		registry: deps.Registry,
		dialer:   deps.Dialer,
		jobs:     deps.Jobs,
		hangup:   deps.Hangup,
		codec:    deps.Codec,
		verifier: deps.Verifier,
		logger:   deps.Logger,
		root:     root,
		cancel:   cancel,
	}
}

// Shutdown stops accepting calls, ends the running sessions and waits for
// them to hand off their transcripts or for ctx to expire.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// track registers a running session with Shutdown. It fails once shutdown
// has begun.
func (h *Handler) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions.Add(1)
	return true
}

// Twilio is not a browser, so there is no origin to check.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}
