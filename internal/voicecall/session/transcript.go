package session

import (
	"strings"
	"sync"
)

type Speaker string

const (
	SpeakerCaller Speaker = "caller"
	SpeakerAgent  Speaker = "agent"
)

func (s Speaker) label() string {
	if s == SpeakerAgent {
		return "Agent"
	}
	return "Caller"
}

// Utterance is one completed turn of speech.
type Utterance struct {
	Speaker Speaker
	Text    string
	Order   int
}

// Transcript is an append-only log of utterances in completion order.
type Transcript struct {
	mu      sync.RWMutex
	records []Utterance
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append records text for speaker with the next order number. Blank text
// carries no utterance and is not recorded.
func (t *Transcript) Append(speaker Speaker, text string) (Utterance, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Utterance{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	u := Utterance{Speaker: speaker, Text: text, Order: len(t.records) + 1}
	t.records = append(t.records, u)
	return u, true
}

// Records returns a copy of all utterances.
func (t *Transcript) Records() []Utterance {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Utterance, len(t.records))
	copy(out, t.records)
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Snapshot renders the transcript as one "Speaker: text" line per utterance.
func (t *Transcript) Snapshot() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var sb strings.Builder
	for i, u := range t.records {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(u.Speaker.label())
		sb.WriteString(": ")
		sb.WriteString(u.Text)
	}
	return sb.String()
}
