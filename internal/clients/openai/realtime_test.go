package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"call-bridge/internal/observability"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRealtimeServer struct {
	srv     *httptest.Server
	conns   chan *websocket.Conn
	headers chan http.Header
	query   chan string
}

func newFakeRealtimeServer(t *testing.T) *fakeRealtimeServer {
	t.Helper()

	f := &fakeRealtimeServer{
		conns:   make(chan *websocket.Conn, 1),
		headers: make(chan http.Header, 1),
		query:   make(chan string, 1),
	}
	upgrader := websocket.Upgrader{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.headers <- r.Header.Clone()
		f.query <- r.URL.Query().Get("model")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.conns <- conn
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeRealtimeServer) url() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http")
}

func (f *fakeRealtimeServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-f.conns:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("realtime server never accepted a connection")
		return nil
	}
}

func dialTestSession(t *testing.T, f *fakeRealtimeServer) (*RealtimeSession, *websocket.Conn) {
	t.Helper()

	client, err := NewRealtimeClient(RealtimeConfig{
		URL:    f.url(),
		APIKey: "sk-test",
		Model:  "gpt-4o-realtime-preview",
	}, observability.NewLogger())
	require.NoError(t, err)

	session, err := client.Dial(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	return session, f.accept(t)
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(msg, &out))
	return out
}

func nextRealtimeEvent(t *testing.T, events <-chan RealtimeEvent) RealtimeEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "events channel closed unexpectedly")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for realtime event")
		return RealtimeEvent{}
	}
}

func TestNewRealtimeClient_RequiresKey(t *testing.T) {
	_, err := NewRealtimeClient(RealtimeConfig{}, observability.NewLogger())
	assert.Error(t, err)
}

func TestDial_SendsAuthHeaders(t *testing.T) {
	f := newFakeRealtimeServer(t)
	dialTestSession(t, f)

	headers := <-f.headers
	assert.Equal(t, "Bearer sk-test", headers.Get("Authorization"))
	assert.Equal(t, "realtime=v1", headers.Get("OpenAI-Beta"))
	assert.Equal(t, "gpt-4o-realtime-preview", <-f.query)
}

func TestDial_Unreachable(t *testing.T) {
	client, err := NewRealtimeClient(RealtimeConfig{
		URL:              "ws://127.0.0.1:1/v1/realtime",
		APIKey:           "sk-test",
		HandshakeTimeout: 200 * time.Millisecond,
	}, observability.NewLogger())
	require.NoError(t, err)

	_, err = client.Dial(context.Background())
	assert.Error(t, err)
}

func TestUpdateSession_Payload(t *testing.T) {
	tests := []struct {
		name           string
		turnDetection  string
		createResponse bool
	}{
		{name: "server vad", turnDetection: TurnDetectionServerVAD, createResponse: true},
		{name: "manual", turnDetection: TurnDetectionManual, createResponse: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeRealtimeServer(t)
			session, server := dialTestSession(t, f)

			require.NoError(t, session.UpdateSession(SessionConfig{
				Instructions:       "be brief",
				Voice:              "alloy",
				InputAudioFormat:   "g711_ulaw",
				OutputAudioFormat:  "g711_ulaw",
				TranscriptionModel: "whisper-1",
				TurnDetection:      tt.turnDetection,
			}))

			msg := readJSON(t, server)
			assert.Equal(t, "session.update", msg["type"])

			body := msg["session"].(map[string]interface{})
			assert.Equal(t, "be brief", body["instructions"])
			assert.Equal(t, "alloy", body["voice"])
			assert.Equal(t, "g711_ulaw", body["input_audio_format"])
			assert.Equal(t, "g711_ulaw", body["output_audio_format"])
			assert.Equal(t, "whisper-1", body["input_audio_transcription"].(map[string]interface{})["model"])

			turn := body["turn_detection"].(map[string]interface{})
			assert.Equal(t, "server_vad", turn["type"])
			assert.Equal(t, tt.createResponse, turn["create_response"])
		})
	}
}

func TestAppendAudioAndCreateResponse(t *testing.T) {
	f := newFakeRealtimeServer(t)
	session, server := dialTestSession(t, f)

	require.NoError(t, session.AppendAudio("AAEC"))
	require.NoError(t, session.CreateResponse(ResponseRequest{Instructions: "greet"}))
	require.NoError(t, session.CreateResponse(ResponseRequest{}))

	appendMsg := readJSON(t, server)
	assert.Equal(t, "input_audio_buffer.append", appendMsg["type"])
	assert.Equal(t, "AAEC", appendMsg["audio"])

	greet := readJSON(t, server)
	assert.Equal(t, "response.create", greet["type"])
	assert.Equal(t, "greet", greet["response"].(map[string]interface{})["instructions"])

	plain := readJSON(t, server)
	_, hasInstructions := plain["response"].(map[string]interface{})["instructions"]
	assert.False(t, hasInstructions)
}

func TestEvents_Mapping(t *testing.T) {
	f := newFakeRealtimeServer(t)
	session, server := dialTestSession(t, f)

	frames := []string{
		`{"type":"session.created","session":{"id":"sess_1"}}`,
		`{"type":"rate_limits.updated"}`,
		`{"type":"input_audio_buffer.speech_started","audio_start_ms":10}`,
		`{"type":"input_audio_buffer.speech_stopped","audio_end_ms":900}`,
		`{"type":"conversation.item.input_audio_transcription.completed","transcript":"Hej, jeg hedder Anna"}`,
		`garbage`,
		`{"type":"response.audio.delta","delta":"UklGRg=="}`,
		`{"type":"error","error":{"type":"invalid_request_error","code":"x","message":"bad"}}`,
		`{"type":"response.done","response":{"status":"completed","output":[{"content":[{"type":"audio","transcript":""},{"type":"audio","transcript":"Farvel Anna"}]}]}}`,
		`{"type":"session.updated"}`,
	}
	for _, frame := range frames {
		require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(frame)))
	}

	events := session.Events()
	want := []RealtimeEvent{
		{Kind: EventSessionReady},
		{Kind: EventSpeechStarted},
		{Kind: EventSpeechStopped},
		{Kind: EventUtteranceTranscribed, Text: "Hej, jeg hedder Anna"},
		{Kind: EventAudioDelta, Audio: "UklGRg=="},
		{Kind: EventResponseCompleted, Text: "Farvel Anna"},
		{Kind: EventSessionReady},
	}
	for _, w := range want {
		assert.Equal(t, w, nextRealtimeEvent(t, events))
	}
}

func TestEvents_ClosedWhenServerHangsUp(t *testing.T) {
	f := newFakeRealtimeServer(t)
	session, server := dialTestSession(t, f)

	require.NoError(t, server.Close())

	select {
	case _, ok := <-session.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel was not closed")
	}
}

func TestClose_Idempotent(t *testing.T) {
	f := newFakeRealtimeServer(t)
	session, _ := dialTestSession(t, f)

	require.NoError(t, session.Close())
	assert.NotPanics(t, func() { _ = session.Close() })
	assert.ErrorIs(t, session.AppendAudio("AAEC"), ErrRealtimeClosed)
}

func TestClose_FlushesQueuedEvents(t *testing.T) {
	f := newFakeRealtimeServer(t)
	session, server := dialTestSession(t, f)

	for _, frame := range []string{"f1", "f2", "f3"} {
		require.NoError(t, session.AppendAudio(frame))
	}
	require.NoError(t, session.CreateResponse(ResponseRequest{Instructions: "farvel"}))
	require.NoError(t, session.Close())

	for _, frame := range []string{"f1", "f2", "f3"} {
		msg := readJSON(t, server)
		assert.Equal(t, "input_audio_buffer.append", msg["type"])
		assert.Equal(t, frame, msg["audio"])
	}
	assert.Equal(t, "response.create", readJSON(t, server)["type"])
}

func TestSend_FullQueueDoesNotBlock(t *testing.T) {
	session := &RealtimeSession{
		outbound:   make(chan []byte, 1),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}

	require.NoError(t, session.AppendAudio("AAEC"))

	returned := make(chan error, 1)
	go func() { returned <- session.AppendAudio("AAED") }()

	select {
	case err := <-returned:
		assert.ErrorIs(t, err, ErrRealtimeBacklog)
	case <-time.After(time.Second):
		t.Fatal("send blocked on a full queue")
	}
}

func TestSend_AfterWriterStopped(t *testing.T) {
	session := &RealtimeSession{
		outbound:   make(chan []byte, 1),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
	close(session.writerDone)

	assert.ErrorIs(t, session.CreateResponse(ResponseRequest{}), ErrRealtimeClosed)
}
