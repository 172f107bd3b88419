package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"call-bridge/internal/observability"

	"github.com/gorilla/websocket"
)

const defaultRealtimeURL = "wss://api.openai.com/v1/realtime"

const realtimeOutboundSize = 512

var (
	ErrRealtimeClosed  = errors.New("realtime session closed")
	ErrRealtimeBacklog = errors.New("realtime outbound queue full")
)

// RealtimeConfig holds connection settings for the realtime speech service.
type RealtimeConfig struct {
	URL              string
	APIKey           string
	Model            string
	HandshakeTimeout time.Duration
}

// Turn detection modes.
const (
	TurnDetectionServerVAD = "server_vad"
	TurnDetectionManual    = "manual"
)

// SessionConfig is the configuration event sent once the socket is open.
// Both audio formats must match the telephony codec.
type SessionConfig struct {
	Instructions       string
	Voice              string
	InputAudioFormat   string
	OutputAudioFormat  string
	TranscriptionModel string
	TurnDetection      string
}

// ResponseRequest asks the service to speak. Empty instructions fall back to
// the session instructions.
type ResponseRequest struct {
	Instructions string
	Voice        string
}

// RealtimeEventKind classifies inbound events the call session reacts to.
type RealtimeEventKind string

const (
	EventSessionReady         RealtimeEventKind = "session-ready"
	EventSpeechStarted        RealtimeEventKind = "caller-speech-started"
	EventSpeechStopped        RealtimeEventKind = "caller-speech-stopped"
	EventUtteranceTranscribed RealtimeEventKind = "caller-utterance-transcribed"
	EventResponseCompleted    RealtimeEventKind = "agent-response-completed"
	EventAudioDelta           RealtimeEventKind = "agent-audio-chunk"
)

// RealtimeEvent is an inbound event reduced to what the call session needs.
type RealtimeEvent struct {
	Kind  RealtimeEventKind
	Text  string // caller transcript or agent response transcript
	Audio string // base64 audio delta, unmodified
}

type serverEvent struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript"`
	Delta      string `json:"delta"`
	Response   *struct {
		Status string `json:"status"`
		Output []struct {
			Content []struct {
				Type       string `json:"type"`
				Transcript string `json:"transcript"`
				Text       string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	} `json:"response"`
	Error *struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// RealtimeClient dials realtime speech sessions.
type RealtimeClient struct {
	cfg    RealtimeConfig
	logger *observability.Logger
	dialer *websocket.Dialer
}

func NewRealtimeClient(cfg RealtimeConfig, logger *observability.Logger) (*RealtimeClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if cfg.URL == "" {
		cfg.URL = defaultRealtimeURL
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return &RealtimeClient{
		cfg:    cfg,
		logger: logger,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}, nil
}

func (c *RealtimeClient) endpoint() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid realtime url: %w", err)
	}
	if c.cfg.Model != "" {
		q := u.Query()
		q.Set("model", c.cfg.Model)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Dial opens a realtime session. The caller must Close it.
func (c *RealtimeClient) Dial(ctx context.Context) (*RealtimeSession, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.cfg.APIKey)
	headers.Set("OpenAI-Beta", "realtime=v1")

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	defer cancel()

	conn, resp, err := c.dialer.DialContext(dialCtx, endpoint, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect to realtime endpoint (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to connect to realtime endpoint: %w", err)
	}

	s := &RealtimeSession{
		conn:       conn,
		logger:     c.logger,
		logCtx:     context.WithoutCancel(ctx),
		events:     make(chan RealtimeEvent, 256),
		outbound:   make(chan []byte, realtimeOutboundSize),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
	go s.readLoop()
	go s.writeLoop()

	c.logger.Info(ctx, "Connected to realtime speech service")
	return s, nil
}

// RealtimeSession is one open socket to the realtime speech service.
type RealtimeSession struct {
	conn   *websocket.Conn
	logger *observability.Logger
	logCtx context.Context

	events     chan RealtimeEvent
	outbound   chan []byte
	done       chan struct{}
	writerDone chan struct{}
	closeOnce  sync.Once
}

// Events is closed when the socket closes for any reason.
func (s *RealtimeSession) Events() <-chan RealtimeEvent {
	return s.events
}

func (s *RealtimeSession) readLoop() {
	defer close(s.events)

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				s.logger.Debug(s.logCtx, "Realtime receive stopped: session closed")
			default:
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Info(s.logCtx, "Realtime WebSocket closed normally")
				} else {
					s.logger.Error(s.logCtx, "Realtime WebSocket read error", err)
				}
			}
			return
		}

		event, ok := s.parse(msg)
		if !ok {
			continue
		}

		select {
		case s.events <- event:
		case <-s.done:
			return
		}
	}
}

func (s *RealtimeSession) parse(msg []byte) (RealtimeEvent, bool) {
	var ev serverEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		s.logger.Error(s.logCtx, "Failed to parse realtime event", err)
		return RealtimeEvent{}, false
	}

	switch ev.Type {
	case "session.created", "session.updated":
		return RealtimeEvent{Kind: EventSessionReady}, true
	case "input_audio_buffer.speech_started":
		return RealtimeEvent{Kind: EventSpeechStarted}, true
	case "input_audio_buffer.speech_stopped":
		return RealtimeEvent{Kind: EventSpeechStopped}, true
	case "conversation.item.input_audio_transcription.completed":
		return RealtimeEvent{Kind: EventUtteranceTranscribed, Text: ev.Transcript}, true
	case "response.audio.delta":
		if ev.Delta == "" {
			return RealtimeEvent{}, false
		}
		return RealtimeEvent{Kind: EventAudioDelta, Audio: ev.Delta}, true
	case "response.done":
		return RealtimeEvent{Kind: EventResponseCompleted, Text: responseTranscript(ev)}, true
	case "error":
		if ev.Error != nil {
			s.logger.Error(s.logCtx, "Realtime service reported an error",
				fmt.Errorf("%s (%s): %s", ev.Error.Type, ev.Error.Code, ev.Error.Message))
		}
		return RealtimeEvent{}, false
	default:
		return RealtimeEvent{}, false
	}
}

// responseTranscript returns the one transcript a finished response carries.
func responseTranscript(ev serverEvent) string {
	if ev.Response == nil {
		return ""
	}
	for _, out := range ev.Response.Output {
		for _, content := range out.Content {
			if content.Transcript != "" {
				return content.Transcript
			}
			if content.Text != "" {
				return content.Text
			}
		}
	}
	return ""
}

// writeLoop is the only writer on the socket. After done it flushes what is
// queued so frames sent just before Close still go out.
func (s *RealtimeSession) writeLoop() {
	defer close(s.writerDone)

	for {
		select {
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(time.Second))
			for {
				select {
				case msg := <-s.outbound:
					if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
				default:
					return
				}
			}
		case msg := <-s.outbound:
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Error(s.logCtx, "Failed to write realtime event", err)
				// unblocks readLoop so the owner sees the events channel close
				_ = s.conn.Close()
				return
			}
		}
	}
}

// send queues one event without blocking the caller.
func (s *RealtimeSession) send(v interface{}) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal realtime event: %w", err)
	}

	select {
	case <-s.done:
		return ErrRealtimeClosed
	case <-s.writerDone:
		return ErrRealtimeClosed
	default:
	}

	select {
	case s.outbound <- msg:
		return nil
	default:
		return ErrRealtimeBacklog
	}
}

// UpdateSession sends the session.update configuration event.
func (s *RealtimeSession) UpdateSession(cfg SessionConfig) error {
	turnDetection := map[string]interface{}{
		"type":            "server_vad",
		"create_response": true,
	}
	if strings.EqualFold(cfg.TurnDetection, TurnDetectionManual) {
		// VAD still reports speech boundaries; the bridge decides when to respond.
		turnDetection["create_response"] = false
	}

	session := map[string]interface{}{
		"modalities":          []string{"text", "audio"},
		"instructions":        cfg.Instructions,
		"voice":               cfg.Voice,
		"input_audio_format":  cfg.InputAudioFormat,
		"output_audio_format": cfg.OutputAudioFormat,
		"turn_detection":      turnDetection,
	}
	if cfg.TranscriptionModel != "" {
		session["input_audio_transcription"] = map[string]string{"model": cfg.TranscriptionModel}
	}

	return s.send(map[string]interface{}{
		"type":    "session.update",
		"session": session,
	})
}

// AppendAudio forwards one base64 caller audio frame.
func (s *RealtimeSession) AppendAudio(payload string) error {
	return s.send(map[string]interface{}{
		"type":  "input_audio_buffer.append",
		"audio": payload,
	})
}

// CreateResponse asks the agent to take a turn.
func (s *RealtimeSession) CreateResponse(req ResponseRequest) error {
	response := map[string]interface{}{
		"modalities": []string{"audio", "text"},
	}
	if req.Instructions != "" {
		response["instructions"] = req.Instructions
	}
	if req.Voice != "" {
		response["voice"] = req.Voice
	}
	return s.send(map[string]interface{}{
		"type":     "response.create",
		"response": response,
	})
}

// Close flushes queued events, then shuts the socket down. Safe to call more
// than once.
func (s *RealtimeSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		<-s.writerDone
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	return err
}
