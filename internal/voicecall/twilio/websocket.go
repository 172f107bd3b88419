package twilio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"call-bridge/internal/observability"

	"github.com/gorilla/websocket"
)

var (
	ErrStreamNotStarted = errors.New("twilio stream has not started")
	ErrHandlerStopped   = errors.New("twilio websocket handler stopped")
)

// EventKind is the kind of a media-stream frame the session cares about.
type EventKind string

const (
	EventStart EventKind = "start"
	EventMedia EventKind = "media"
	EventStop  EventKind = "stop"
)

// Event is one inbound media-stream frame, reduced to what the session needs.
type Event struct {
	Kind             EventKind
	StreamSid        string
	CallSid          string
	Payload          string // base64 audio frame, unmodified
	CustomParameters map[string]string
}

// MediaEvent is the wire shape of a Twilio media-stream frame.
type MediaEvent struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid,omitempty"`
	Start     *struct {
		StreamSid        string            `json:"streamSid"`
		CallSid          string            `json:"callSid"`
		CustomParameters map[string]string `json:"customParameters,omitempty"`
	} `json:"start,omitempty"`
	Media *struct {
		Payload string `json:"payload"`
	} `json:"media,omitempty"`
}

type outboundMedia struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid"`
	Media     struct {
		Payload string `json:"payload"`
	} `json:"media"`
}

type outboundStop struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid,omitempty"`
}

// WebSocketHandler owns one Twilio media-stream connection.
type WebSocketHandler struct {
	conn   *websocket.Conn
	logger *observability.Logger

	mu        sync.RWMutex
	streamSid string

	outbound   chan []byte
	ctx        context.Context
	cancel     context.CancelFunc
	stopWriter chan struct{}
	writerDone chan struct{}
	readerDone chan struct{}
	started    atomic.Bool
	stopOnce   sync.Once
}

// NewWebSocketHandler wraps an upgraded connection. The outbound queue keeps
// agent audio in arrival order; a full queue blocks the sender.
func NewWebSocketHandler(conn *websocket.Conn, logger *observability.Logger) *WebSocketHandler {
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketHandler{
		conn:       conn,
		logger:     logger,
		outbound:   make(chan []byte, 4096),
		ctx:        ctx,
		cancel:     cancel,
		stopWriter: make(chan struct{}),
		writerDone: make(chan struct{}),
		readerDone: make(chan struct{}),
	}
}

// Start launches the read and write loops. The returned channel is closed
// exactly once, when the socket closes, errors, or Twilio sends stop.
func (h *WebSocketHandler) Start(ctx context.Context) <-chan Event {
	events := make(chan Event, 256)
	h.started.Store(true)

	go h.receiveFromTwilio(ctx, events)
	go h.sendToTwilio(ctx)

	return events
}

func (h *WebSocketHandler) receiveFromTwilio(ctx context.Context, events chan<- Event) {
	defer close(h.readerDone)
	defer close(events)

	for {
		_, msg, err := h.conn.ReadMessage()
		if err != nil {
			switch {
			case h.ctx.Err() != nil:
				h.logger.Debug(ctx, "Twilio receive stopped: handler stopped")
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				h.logger.Info(ctx, "Twilio WebSocket closed normally")
			default:
				h.logger.Error(ctx, "Twilio WebSocket read error", err)
			}
			return
		}

		event, ok := h.parse(ctx, msg)
		if !ok {
			continue
		}

		select {
		case events <- event:
		case <-h.ctx.Done():
			return
		}

		if event.Kind == EventStop {
			return
		}
	}
}

func (h *WebSocketHandler) parse(ctx context.Context, msg []byte) (Event, bool) {
	var frame MediaEvent
	if err := json.Unmarshal(msg, &frame); err != nil {
		h.logger.Error(ctx, "Failed to parse Twilio event", err)
		return Event{}, false
	}

	switch frame.Event {
	case "start":
		if frame.Start == nil || frame.Start.StreamSid == "" {
			h.logger.Warn(ctx, "Twilio start event without streamSid")
			return Event{}, false
		}
		h.mu.Lock()
		if h.streamSid == "" {
			h.streamSid = frame.Start.StreamSid
		}
		h.mu.Unlock()
		return Event{
			Kind:             EventStart,
			StreamSid:        frame.Start.StreamSid,
			CallSid:          frame.Start.CallSid,
			CustomParameters: frame.Start.CustomParameters,
		}, true

	case "media":
		if frame.Media == nil || frame.Media.Payload == "" {
			h.logger.Debug(ctx, "Twilio media event without payload")
			return Event{}, false
		}
		return Event{Kind: EventMedia, StreamSid: frame.StreamSid, Payload: frame.Media.Payload}, true

	case "stop":
		return Event{Kind: EventStop, StreamSid: frame.StreamSid}, true

	default:
		h.logger.Debug(ctx, fmt.Sprintf("Unknown Twilio event: %s", frame.Event))
		return Event{}, false
	}
}

func (h *WebSocketHandler) sendToTwilio(ctx context.Context) {
	defer close(h.writerDone)

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.stopWriter:
			// Flush what is queued so a final stop frame still reaches Twilio.
			for {
				select {
				case msg := <-h.outbound:
					if err := h.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
				default:
					return
				}
			}
		case msg := <-h.outbound:
			if err := h.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Error(ctx, "Failed to send to Twilio", err)
				h.cancel()
				return
			}
		}
	}
}

// SendAudio queues one base64 audio frame for playback to the caller.
func (h *WebSocketHandler) SendAudio(payload string) error {
	streamSid := h.StreamSID()
	if streamSid == "" {
		return ErrStreamNotStarted
	}

	msg := outboundMedia{Event: "media", StreamSid: streamSid}
	msg.Media.Payload = payload
	return h.enqueue(msg)
}

// SendStop tells Twilio the stream is over.
func (h *WebSocketHandler) SendStop() error {
	return h.enqueue(outboundStop{Event: "stop", StreamSid: h.StreamSID()})
}

func (h *WebSocketHandler) enqueue(v interface{}) error {
	msgBytes, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal twilio message: %w", err)
	}

	select {
	case <-h.ctx.Done():
		return ErrHandlerStopped
	default:
	}

	select {
	case h.outbound <- msgBytes:
		return nil
	case <-h.ctx.Done():
		return ErrHandlerStopped
	}
}

// Stop flushes queued frames, closes the socket and waits for both loops.
// Only one goroutine may send while Stop runs: the session that owns it.
func (h *WebSocketHandler) Stop() {
	h.stopOnce.Do(func() {
		started := h.started.Load()
		if started {
			close(h.stopWriter)
			<-h.writerDone
		}
		h.cancel()

		_ = h.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = h.conn.Close()
		if started {
			<-h.readerDone
		}
	})
}

// StreamSID returns the stream handle, empty until Twilio sends start.
func (h *WebSocketHandler) StreamSID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.streamSid
}
