package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// State is the transcript's UI-facing phase.
type State string

const (
	StateIdle      State = "idle"
	StateSending   State = "sending"
	StateStreaming State = "streaming"
	StateError     State = "error"
)

var (
	// ErrEmptyInput rejects a submission with no text before any state
	// transition happens.
	ErrEmptyInput = errors.New("message is empty")
	// ErrBusy rejects a submission while another session is in flight.
	ErrBusy = errors.New("a message is already in flight")
)

// Transcript reconciles streamed increments into an ordered, append-only
// message list and tracks the idle/sending/streaming/error state machine.
// One Transcript allows at most one in-flight session; there is no shared
// state across transcripts.
type Transcript struct {
	mu       sync.Mutex
	state    State
	messages []Message
	cancel   context.CancelFunc
	lastErr  error
}

func NewTranscript() *Transcript {
	return &Transcript{state: StateIdle}
}

// Submit appends the user's message and moves to sending. It fails with
// ErrEmptyInput or ErrBusy before touching the transcript. cancel is the
// in-flight session's cancellation signal, invoked by Cancel.
func (t *Transcript) Submit(text string, cancel context.CancelFunc) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyInput
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateSending || t.state == StateStreaming {
		return Message{}, ErrBusy
	}

	msg := NewTextMessage(RoleUser, text)
	t.messages = append(t.messages, msg)
	t.state = StateSending
	t.cancel = cancel
	t.lastErr = nil
	return msg, nil
}

// ApplyIncrement folds one streamed fragment into the transcript. The
// first increment creates the assistant message and enters streaming;
// every later one appends to that same message's text part.
func (t *Transcript) ApplyIncrement(delta string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateSending {
		t.messages = append(t.messages, NewTextMessage(RoleAssistant, ""))
		t.state = StateStreaming
	}
	if t.state != StateStreaming {
		// Increment after a terminal status; drop it.
		return
	}
	last := &t.messages[len(t.messages)-1]
	last.AppendText(delta)
}

// Finish applies the session's terminal status. Completed and aborted
// both return to idle, keeping whatever text accumulated; failed moves to
// error with the partial assistant message left in place.
func (t *Transcript) Finish(res Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancel = nil
	switch res.Status {
	case StatusFailed:
		t.state = StateError
		t.lastErr = res.Err
	default:
		t.state = StateIdle
	}
}

// Cancel signals the in-flight session. The transcript leaves sending or
// streaming only when the session reports its terminal status, so no
// increment is applied out of order.
func (t *Transcript) Cancel() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Reset clears the error state so the user can retry. Prior turns,
// including any partial assistant text, are kept.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateError {
		t.state = StateIdle
		t.lastErr = nil
	}
}

func (t *Transcript) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the failure that put the transcript into the error state.
func (t *Transcript) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// Messages returns a copy of the transcript in insertion order.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	for i := range out {
		parts := make([]Part, len(t.messages[i].Parts))
		copy(parts, t.messages[i].Parts)
		out[i].Parts = parts
	}
	return out
}
