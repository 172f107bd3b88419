package session

import (
	"errors"
	"fmt"
	"time"

	"call-bridge/internal/clients/openai"
)

const (
	speechQueueSize    = 256
	speechFlushTimeout = time.Second
)

var errSpeechBacklog = errors.New("speech write queue full")

// speechCommand is one queued write to the speech transport. A nil response
// means caller audio.
type speechCommand struct {
	audio    string
	response *openai.ResponseRequest
	failure  string
	fatal    bool
}

type speechFailure struct {
	cmd      speechCommand
	err      error
	panicked bool
}

// speechOutbox writes to the speech transport from its own goroutine so a
// slow socket never holds up the session loop. Commands keep their order.
type speechOutbox struct {
	speech   SpeechTransport
	commands chan speechCommand
	failures chan speechFailure
	abandon  chan struct{}
	done     chan struct{}
	closed   bool
}

func newSpeechOutbox(speech SpeechTransport) *speechOutbox {
	o := &speechOutbox{
		speech:   speech,
		commands: make(chan speechCommand, speechQueueSize),
		failures: make(chan speechFailure, 8),
		abandon:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go o.run()
	return o
}

func (o *speechOutbox) run() {
	defer close(o.done)
	defer func() {
		if r := recover(); r != nil {
			o.report(speechFailure{err: fmt.Errorf("reason: %+v", r), panicked: true})
		}
	}()

	audioFailed := false
	for cmd := range o.commands {
		var err error
		if cmd.response != nil {
			err = o.speech.CreateResponse(*cmd.response)
		} else {
			err = o.speech.AppendAudio(cmd.audio)
		}
		if err == nil {
			continue
		}
		if cmd.response == nil {
			// one report per call is enough for a broken audio path
			if audioFailed {
				continue
			}
			audioFailed = true
		}
		o.report(speechFailure{cmd: cmd, err: err})
	}
}

// report delivers fatal failures unless the session has stopped listening;
// the rest are dropped when nobody keeps up.
func (o *speechOutbox) report(f speechFailure) {
	if f.panicked || f.cmd.fatal {
		select {
		case o.failures <- f:
		case <-o.abandon:
		}
		return
	}
	select {
	case o.failures <- f:
	default:
	}
}

// enqueue never blocks. It reports false when the queue is full or flushed.
func (o *speechOutbox) enqueue(cmd speechCommand) bool {
	if o.closed {
		return false
	}
	select {
	case o.commands <- cmd:
		return true
	default:
		return false
	}
}

// flush stops intake and waits up to timeout for queued writes. It reports
// whether the writer finished.
func (o *speechOutbox) flush(timeout time.Duration) bool {
	if o.closed {
		select {
		case <-o.done:
			return true
		default:
			return false
		}
	}
	o.closed = true
	close(o.commands)
	defer close(o.abandon)

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-o.done:
		return true
	case <-t.C:
		return false
	}
}
