package session

//go:generate go run go.uber.org/mock/mockgen@latest -source=session.go -destination=mocks_test.go -package=session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"call-bridge/internal/clients/openai"
	"call-bridge/internal/config"
	"call-bridge/internal/observability"
	"call-bridge/internal/voicecall/audio"
	"call-bridge/internal/voicecall/twilio"
	"call-bridge/internal/workers"

	"github.com/google/uuid"
)

// TelephonyTransport is the phone side of a call.
type TelephonyTransport interface {
	Start(ctx context.Context) <-chan twilio.Event
	SendAudio(payload string) error
	SendStop() error
	Stop()
}

// SpeechTransport is the realtime speech service side of a call.
type SpeechTransport interface {
	Events() <-chan openai.RealtimeEvent
	UpdateSession(cfg openai.SessionConfig) error
	AppendAudio(payload string) error
	CreateResponse(req openai.ResponseRequest) error
	Close() error
}

// SpeechDialer opens speech transports.
type SpeechDialer interface {
	Dial(ctx context.Context) (SpeechTransport, error)
}

// CallHangup ends the phone call itself.
type CallHangup interface {
	Hangup(ctx context.Context, callSid string) error
}

// JobSubmitter accepts post-call work.
type JobSubmitter interface {
	Submit(ctx context.Context, job workers.Job) error
}

// SpeechDialerFunc adapts a function to SpeechDialer.
type SpeechDialerFunc func(ctx context.Context) (SpeechTransport, error)

func (f SpeechDialerFunc) Dial(ctx context.Context) (SpeechTransport, error) {
	return f(ctx)
}

// Config holds per-call settings.
type Config struct {
	ID                 string
	CallSid            string
	Profile            config.AgentProfile
	AudioFormat        string
	TranscriptionModel string
	InactivityTimeout  time.Duration
	ReadyTimeout       time.Duration
	FarewellGrace      time.Duration
	QuietGrace         time.Duration
	HandoffTimeout     time.Duration
}

// Dependencies are the collaborators a session drives. Hangup is optional
// and a nil Codec relays audio unmodified.
type Dependencies struct {
	Telephony TelephonyTransport
	Dialer    SpeechDialer
	Jobs      JobSubmitter
	Registry  *Registry
	Hangup    CallHangup
	Codec     audio.Codec
	Logger    *observability.Logger
}

// Summary describes a finished session.
type Summary struct {
	ID         string
	CallSid    string
	StreamSid  string
	Reason     EndReason
	Greeted    bool
	Utterances int
	Duration   time.Duration
}

type dialResult struct {
	speech SpeechTransport
	err    error
}

// Session bridges one phone call to one speech session. All state below the
// mutex is owned by the Run goroutine.
type Session struct {
	id              string
	cfg             Config
	telephony       TelephonyTransport
	dialer          SpeechDialer
	jobs            JobSubmitter
	registry        *Registry
	hangupCaller    CallHangup
	codec           audio.Codec
	logger          *observability.Logger
	farewellPhrases []string
	transcript      *Transcript

	mu           sync.RWMutex
	phase        Phase
	streamSid    string
	callSid      string
	greeted      bool
	lastActivity time.Time

	speech          SpeechTransport
	speechEvents    <-chan openai.RealtimeEvent
	outbox          *speechOutbox
	speechFailures  <-chan speechFailure
	telephonyOpen   bool
	readySeen       bool
	greetingPending bool
	hangupPending   bool
	pendingReason   EndReason
	endReason       EndReason
	audioOutFailed  bool
	audioInFailed   bool
	startedAt       time.Time

	ready    timer
	hangup   timer
	watchdog *watchdog
}

func New(cfg Config, deps Dependencies) *Session {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if cfg.InactivityTimeout <= 0 {
		cfg.InactivityTimeout = 20 * time.Second
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 10 * time.Second
	}
	if cfg.HandoffTimeout <= 0 {
		cfg.HandoffTimeout = 5 * time.Second
	}

	codec := deps.Codec
	if codec == nil {
		codec = audio.Passthrough{}
	}

	phrases := make([]string, 0, len(cfg.Profile.FarewellPhrases))
	for _, p := range cfg.Profile.FarewellPhrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			phrases = append(phrases, p)
		}
	}

	return &Session{
		id:              cfg.ID,
		cfg:             cfg,
		telephony:       deps.Telephony,
		dialer:          deps.Dialer,
		jobs:            deps.Jobs,
		registry:        deps.Registry,
		hangupCaller:    deps.Hangup,
		codec:           codec,
		logger:          deps.Logger,
		farewellPhrases: phrases,
		transcript:      NewTranscript(),
		phase:           PhaseConnecting,
		callSid:         cfg.CallSid,
		watchdog:        newWatchdog(cfg.InactivityTimeout),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *Session) Greeted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.greeted
}

func (s *Session) StreamSID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streamSid
}

func (s *Session) CallSID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.callSid
}

// LastActivity is the time of the latest caller audio or speech event.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// Transcript returns a copy of the utterances recorded so far.
func (s *Session) Transcript() []Utterance {
	return s.transcript.Records()
}

// Run drives the session until it is CLOSED and returns what happened. It
// consumes both transports, the speech dial and all timers from a single
// goroutine. Run must be called once.
func (s *Session) Run(ctx context.Context) (summary Summary) {
	ctx = observability.WithFields(ctx, observability.Field{Key: "session_id", Value: s.id})
	s.startedAt = time.Now()

	dialCtx, cancelDial := context.WithCancel(ctx)
	defer cancelDial()
	dialResults := make(chan dialResult, 1)
	dialPending := true

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "Call session panicked", fmt.Errorf("reason: %+v", r))
			s.abort(ctx)
		}
		if dialPending {
			go discardDial(dialResults)
		}
		summary = s.summary()
	}()

	telephonyEvents := s.telephony.Start(ctx)
	s.telephonyOpen = true
	s.logger.Info(ctx, "Call session started")

	go func() {
		speech, err := s.dialer.Dial(dialCtx)
		dialResults <- dialResult{speech: speech, err: err}
	}()

	for s.Phase() != PhaseClosed {
		select {
		case <-ctx.Done():
			s.close(ctx, ReasonCancelled)

		case res := <-dialResults:
			dialPending = false
			s.onSpeechDialed(ctx, res)

		case ev, ok := <-telephonyEvents:
			if !ok {
				telephonyEvents = nil
				s.telephonyOpen = false
				s.close(ctx, ReasonTelephonyClosed)
				continue
			}
			if ev.Kind == twilio.EventStart {
				ctx = observability.WithFields(ctx,
					observability.Field{Key: "stream_sid", Value: ev.StreamSid},
					observability.Field{Key: "call_sid", Value: ev.CallSid},
				)
			}
			s.onTelephonyEvent(ctx, ev)

		case ev, ok := <-s.speechEvents:
			if !ok {
				s.speechEvents = nil
				s.logger.Warn(ctx, "Speech session closed unexpectedly")
				s.close(ctx, ReasonSpeechClosed)
				continue
			}
			s.onSpeechEvent(ctx, ev)

		case f := <-s.speechFailures:
			s.onSpeechWriteFailed(ctx, f)

		case <-s.ready.C():
			s.ready.fired()
			if s.Phase() == PhaseGreeting {
				s.logger.Warn(ctx, fmt.Sprintf("No greeting from speech session after %s", s.cfg.ReadyTimeout))
			} else {
				s.logger.Warn(ctx, fmt.Sprintf("Speech session not ready after %s", s.cfg.ReadyTimeout))
			}
			s.close(ctx, ReasonReadyTimeout)

		case <-s.watchdog.C():
			s.watchdog.fired()
			s.onInactivity(ctx)

		case <-s.hangup.C():
			s.hangup.fired()
			s.close(ctx, s.pendingReason)
		}
	}

	return s.summary()
}

// discardDial closes a speech transport whose dial finished after the
// session was gone.
func discardDial(results <-chan dialResult) {
	if res := <-results; res.err == nil && res.speech != nil {
		_ = res.speech.Close()
	}
}

func (s *Session) onSpeechDialed(ctx context.Context, res dialResult) {
	if res.err != nil {
		s.logger.Error(ctx, "Failed to open speech session", res.err)
		s.close(ctx, ReasonSpeechDialFailed)
		return
	}

	s.speech = res.speech
	s.speechEvents = res.speech.Events()

	if err := s.speech.UpdateSession(s.speechConfig()); err != nil {
		s.logger.Error(ctx, "Failed to configure speech session", err)
		s.close(ctx, ReasonSpeechFailed)
		return
	}
	s.outbox = newSpeechOutbox(s.speech)
	s.speechFailures = s.outbox.failures

	s.setPhase(ctx, PhaseAwaitingReady)
	s.ready.Arm(s.cfg.ReadyTimeout)
}

func (s *Session) speechConfig() openai.SessionConfig {
	return openai.SessionConfig{
		Instructions:       s.cfg.Profile.Instructions,
		Voice:              s.cfg.Profile.Voice,
		InputAudioFormat:   s.cfg.AudioFormat,
		OutputAudioFormat:  s.cfg.AudioFormat,
		TranscriptionModel: s.cfg.TranscriptionModel,
		TurnDetection:      s.cfg.Profile.TurnDetection,
	}
}

func (s *Session) onTelephonyEvent(ctx context.Context, ev twilio.Event) {
	switch ev.Kind {
	case twilio.EventStart:
		s.mu.Lock()
		first := s.streamSid == ""
		if first {
			s.streamSid = ev.StreamSid
			if ev.CallSid != "" {
				s.callSid = ev.CallSid
			}
		}
		s.mu.Unlock()

		if !first {
			s.logger.Warn(ctx, "Ignoring repeated stream start")
			return
		}
		s.logger.Info(ctx, "Telephony stream started")
		s.tryGreet(ctx)

	case twilio.EventMedia:
		if !s.Phase().relaying() {
			return
		}
		payload, err := s.codec.ToSpeech(ev.Payload)
		if err == nil && !s.outbox.enqueue(speechCommand{audio: payload}) {
			err = errSpeechBacklog
		}
		if err != nil && !s.audioInFailed {
			s.audioInFailed = true
			s.logger.Error(ctx, "Failed to forward caller audio", err)
		}
		s.markCallerActivity()

	case twilio.EventStop:
		s.telephonyOpen = false
		s.logger.Info(ctx, "Telephony stream stopped by caller side")
		s.close(ctx, ReasonTelephonyClosed)
	}
}

func (s *Session) onSpeechEvent(ctx context.Context, ev openai.RealtimeEvent) {
	switch ev.Kind {
	case openai.EventSessionReady:
		if s.readySeen {
			s.logger.Debug(ctx, "Repeated session-ready")
		}
		s.readySeen = true
		s.tryGreet(ctx)

	case openai.EventSpeechStarted:
		s.markCallerActivity()

	case openai.EventSpeechStopped:
		s.markCallerActivity()
		if s.manualTurns() && s.Phase().relaying() && !s.hangupPending {
			s.sendResponse(ctx, openai.ResponseRequest{}, "Failed to request agent response", false)
		}

	case openai.EventUtteranceTranscribed:
		if u, ok := s.transcript.Append(SpeakerCaller, ev.Text); ok {
			s.logger.Debug(ctx, fmt.Sprintf("Caller utterance %d recorded", u.Order))
		}
		s.markCallerActivity()

	case openai.EventAudioDelta:
		phase := s.Phase()
		if !phase.relaying() {
			return
		}
		if phase == PhaseGreeting {
			s.enterActive(ctx)
		}
		payload, err := s.codec.ToTelephony(ev.Audio)
		if err == nil {
			err = s.telephony.SendAudio(payload)
		}
		if err != nil && !s.audioOutFailed {
			s.audioOutFailed = true
			s.logger.Error(ctx, "Failed to relay agent audio", err)
		}

	case openai.EventResponseCompleted:
		if u, ok := s.transcript.Append(SpeakerAgent, ev.Text); ok {
			s.logger.Debug(ctx, fmt.Sprintf("Agent utterance %d recorded", u.Order))
		}
		if s.Phase() == PhaseGreeting {
			// greeting finished without any audio
			s.enterActive(ctx)
		}
		if s.greetingPending {
			s.greetingPending = false
			return
		}
		if s.Phase() == PhaseActive && !s.hangupPending && s.isFarewell(ev.Text) {
			s.logger.Info(ctx, "Farewell phrase detected, ending call")
			s.scheduleHangup(ctx, ReasonFarewell, s.cfg.FarewellGrace, s.cfg.Profile.FarewellMessage)
		}
	}
}

// tryGreet leaves AWAITING_READY once the speech side is ready and the
// stream handle is known. The greeting goes out at most once.
func (s *Session) tryGreet(ctx context.Context) {
	if s.Phase() != PhaseAwaitingReady || !s.readySeen || s.StreamSID() == "" || s.Greeted() {
		return
	}

	greeting := strings.TrimSpace(s.cfg.Profile.Greeting)
	if greeting == "" {
		s.enterActive(ctx)
		return
	}

	req := openai.ResponseRequest{Instructions: greeting, Voice: s.cfg.Profile.Voice}
	if !s.sendResponse(ctx, req, "Failed to send greeting", true) {
		s.close(ctx, ReasonSpeechFailed)
		return
	}

	s.mu.Lock()
	s.greeted = true
	s.mu.Unlock()
	s.greetingPending = true
	s.setPhase(ctx, PhaseGreeting)
	// the greeting must start within the same bound as readiness
	s.ready.Arm(s.cfg.ReadyTimeout)
}

func (s *Session) enterActive(ctx context.Context) {
	s.ready.Stop()
	s.setPhase(ctx, PhaseActive)
	if !s.hangupPending {
		s.watchdog.Reset()
	}
}

func (s *Session) markCallerActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()

	if s.Phase() == PhaseActive && !s.hangupPending {
		s.watchdog.Reset()
	}
}

func (s *Session) onInactivity(ctx context.Context) {
	if s.Phase() != PhaseActive || s.hangupPending {
		return
	}
	s.logger.Info(ctx, fmt.Sprintf("No caller activity for %s, ending call", s.cfg.InactivityTimeout))
	s.scheduleHangup(ctx, ReasonInactivity, s.cfg.QuietGrace, s.cfg.Profile.QuietMessage)
}

// scheduleHangup sends the closing line and closes after grace. Later
// triggers are ignored while a hangup is pending.
func (s *Session) scheduleHangup(ctx context.Context, reason EndReason, grace time.Duration, message string) {
	s.hangupPending = true
	s.pendingReason = reason
	s.watchdog.Stop()

	if message = strings.TrimSpace(message); message != "" {
		req := openai.ResponseRequest{Instructions: message, Voice: s.cfg.Profile.Voice}
		s.sendResponse(ctx, req, "Failed to send closing message", false)
	}

	s.hangup.Arm(grace)
}

// sendResponse queues a response.create behind any pending caller audio.
func (s *Session) sendResponse(ctx context.Context, req openai.ResponseRequest, failure string, fatal bool) bool {
	if !s.outbox.enqueue(speechCommand{response: &req, failure: failure, fatal: fatal}) {
		s.logger.Error(ctx, failure, errSpeechBacklog)
		return false
	}
	return true
}

func (s *Session) onSpeechWriteFailed(ctx context.Context, f speechFailure) {
	switch {
	case f.panicked:
		s.logger.Error(ctx, "Call session panicked", f.err)
		s.close(ctx, ReasonPanic)
	case f.cmd.response == nil:
		if !s.audioInFailed {
			s.audioInFailed = true
			s.logger.Error(ctx, "Failed to forward caller audio", f.err)
		}
	default:
		s.logger.Error(ctx, f.cmd.failure, f.err)
		if f.cmd.fatal {
			s.close(ctx, ReasonSpeechFailed)
		}
	}
}

func (s *Session) manualTurns() bool {
	return s.cfg.Profile.TurnDetection == config.TurnDetectionManual
}

func (s *Session) isFarewell(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range s.farewellPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// close tears the session down. It runs once; every path out of the
// session ends here.
func (s *Session) close(ctx context.Context, reason EndReason) {
	if phase := s.Phase(); phase == PhaseClosing || phase == PhaseClosed {
		return
	}
	s.endReason = reason
	ctx = observability.WithFields(ctx, observability.Field{Key: "end_reason", Value: string(reason)})
	s.setPhase(ctx, PhaseClosing)

	s.watchdog.Stop()
	s.ready.Stop()
	s.hangup.Stop()

	if s.outbox != nil && !s.outbox.flush(speechFlushTimeout) {
		s.logger.Warn(ctx, "Speech writes still pending at close, dropping them")
	}
	if s.speech != nil {
		if err := s.speech.Close(); err != nil {
			s.logger.Debug(ctx, fmt.Sprintf("Speech session close: %v", err))
		}
	}

	if s.telephonyOpen {
		if err := s.telephony.SendStop(); err != nil && !errors.Is(err, twilio.ErrHandlerStopped) {
			s.logger.Warn(ctx, fmt.Sprintf("Failed to send stream stop: %v", err))
		}
		s.telephonyOpen = false
	}
	s.telephony.Stop()

	if callSid := s.CallSID(); s.hangupCaller != nil && callSid != "" && reason != ReasonTelephonyClosed {
		if err := s.hangupCaller.Hangup(ctx, callSid); err != nil {
			s.logger.Error(ctx, "Failed to hang up call", err)
		}
	}

	s.handoff(ctx)

	if s.registry != nil {
		s.registry.Remove(s)
	}
	s.setPhase(ctx, PhaseClosed)

	s.logger.Info(ctx, fmt.Sprintf("Call session closed after %s with %d utterances",
		time.Since(s.startedAt).Round(time.Millisecond), s.transcript.Len()))
}

// handoff queues a copy of the transcript for post-call extraction.
func (s *Session) handoff(ctx context.Context) {
	if s.jobs == nil {
		return
	}

	job := workers.Job{
		ID:         uuid.New().String(),
		SessionID:  s.id,
		CallSid:    s.CallSID(),
		Transcript: s.transcript.Snapshot(),
		Utterances: s.transcript.Len(),
		EndReason:  string(s.endReason),
		EndedAt:    time.Now(),
	}

	submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.HandoffTimeout)
	defer cancel()

	if err := s.jobs.Submit(submitCtx, job); err != nil {
		s.logger.Error(ctx, "Failed to hand off transcript for extraction", err)
	}
}

// abort releases whatever a panic left behind.
func (s *Session) abort(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "Call session cleanup panicked", fmt.Errorf("reason: %+v", r))
		}
		if s.registry != nil {
			s.registry.Remove(s)
		}
		s.mu.Lock()
		s.phase = PhaseClosed
		s.mu.Unlock()
	}()

	switch s.Phase() {
	case PhaseClosed:
		return
	case PhaseClosing:
		s.watchdog.Stop()
		s.ready.Stop()
		s.hangup.Stop()
		if s.outbox != nil {
			s.outbox.flush(0)
		}
		if s.speech != nil {
			_ = s.speech.Close()
		}
		s.telephony.Stop()
	default:
		s.close(ctx, ReasonPanic)
	}
}

func (s *Session) setPhase(ctx context.Context, phase Phase) {
	s.mu.Lock()
	prev := s.phase
	s.phase = phase
	s.mu.Unlock()

	if prev != phase {
		s.logger.Info(observability.WithFields(ctx,
			observability.Field{Key: "from_phase", Value: string(prev)},
			observability.Field{Key: "phase", Value: string(phase)},
		), "Session phase changed")
	}
}

func (s *Session) summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var duration time.Duration
	if !s.startedAt.IsZero() {
		duration = time.Since(s.startedAt)
	}
	return Summary{
		ID:         s.id,
		CallSid:    s.callSid,
		StreamSid:  s.streamSid,
		Reason:     s.endReason,
		Greeted:    s.greeted,
		Utterances: s.transcript.Len(),
		Duration:   duration,
	}
}
