package session

// Phase is the lifecycle state of a call session.
type Phase string

const (
	PhaseConnecting    Phase = "CONNECTING"
	PhaseAwaitingReady Phase = "AWAITING_READY"
	PhaseGreeting      Phase = "GREETING"
	PhaseActive        Phase = "ACTIVE"
	PhaseClosing       Phase = "CLOSING"
	PhaseClosed        Phase = "CLOSED"
)

// relaying reports whether audio flows in both directions in this phase.
func (p Phase) relaying() bool {
	return p == PhaseGreeting || p == PhaseActive
}

// EndReason records why a session closed.
type EndReason string

const (
	ReasonTelephonyClosed  EndReason = "telephony-closed"
	ReasonInactivity       EndReason = "inactivity"
	ReasonFarewell         EndReason = "farewell"
	ReasonReadyTimeout     EndReason = "ready-timeout"
	ReasonSpeechDialFailed EndReason = "speech-dial-failed"
	ReasonSpeechFailed     EndReason = "speech-failed"
	ReasonSpeechClosed     EndReason = "speech-closed"
	ReasonCancelled        EndReason = "cancelled"
	ReasonPanic            EndReason = "panic"
)

// Failure reports whether the session ended because something broke rather
// than because the call finished.
func (r EndReason) Failure() bool {
	switch r {
	case ReasonTelephonyClosed, ReasonInactivity, ReasonFarewell:
		return false
	default:
		return true
	}
}
