package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noor-latif/open-cv-gen/internal/gateway"
)

// sessionTimeout is the wall-clock ceiling for one streaming exchange.
// Exceeding it terminates the session as failed, never as a silent hang.
const sessionTimeout = 60 * time.Second

// Status is the terminal outcome of a conversation session.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
	StatusFailed    Status = "failed"
)

// Result describes how a session ended. Err is set only for StatusFailed;
// cancellation is not an error.
type Result struct {
	Status Status
	Err    error
}

// Streamer is the model capability: it delivers text deltas through fn and
// honors ctx cancellation. Implemented by gateway.Client.
type Streamer interface {
	Stream(ctx context.Context, req gateway.ChatRequest, fn func(delta string) error) error
}

// Session owns one streaming exchange with the model capability. It merges
// the behavioral policy, compiled profile context, and message history into
// the upstream payload and relays increments without buffering the full
// response.
type Session struct {
	streamer Streamer
	model    string
	timeout  time.Duration
}

func NewSession(streamer Streamer, model string) *Session {
	return &Session{streamer: streamer, model: model, timeout: sessionTimeout}
}

// NewSessionWithTimeout is used by tests to shrink the ceiling.
func NewSessionWithTimeout(streamer Streamer, model string, timeout time.Duration) *Session {
	return &Session{streamer: streamer, model: model, timeout: timeout}
}

// Run starts the exchange and returns a handle delivering increments as
// they arrive. Cancelling ctx aborts the session; increments already
// produced are still delivered before the channel closes.
func (s *Session) Run(ctx context.Context, history []Message, compiledContext string) *Handle {
	h := &Handle{
		ch:   make(chan string, 16),
		done: make(chan struct{}),
	}
	go s.run(ctx, history, compiledContext, h)
	return h
}

func (s *Session) run(ctx context.Context, history []Message, compiledContext string, h *Handle) {
	defer close(h.done)
	defer close(h.ch)

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := gateway.ChatRequest{
		Model:    s.model,
		Messages: buildPayload(history, compiledContext),
	}

	err := s.streamer.Stream(runCtx, req, func(delta string) error {
		select {
		case h.ch <- delta:
			return nil
		case <-runCtx.Done():
			return runCtx.Err()
		}
	})

	h.result = classify(ctx, runCtx, err)
}

// classify maps the streamer outcome onto a terminal status. Caller
// cancellation is aborted; hitting the session ceiling is a failure with a
// timeout cause.
func classify(parent, runCtx context.Context, err error) Result {
	if err == nil {
		return Result{Status: StatusCompleted}
	}
	if errors.Is(parent.Err(), context.Canceled) {
		return Result{Status: StatusAborted}
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return Result{Status: StatusFailed, Err: fmt.Errorf("session exceeded %s ceiling: %w", sessionTimeout, err)}
	}
	if errors.Is(err, context.Canceled) {
		return Result{Status: StatusAborted}
	}
	return Result{Status: StatusFailed, Err: err}
}

// buildPayload translates the transcript into the model-facing message
// format: one system message (policy + context) followed by the text
// content of each turn. Parts of unknown kind contribute nothing.
func buildPayload(history []Message, compiledContext string) []gateway.ChatMessage {
	msgs := make([]gateway.ChatMessage, 0, len(history)+1)
	msgs = append(msgs, gateway.ChatMessage{
		Role:    "system",
		Content: BuildSystemPrompt(compiledContext),
	})
	for _, m := range TrimHistory(history) {
		text := m.Text()
		if text == "" {
			continue
		}
		msgs = append(msgs, gateway.ChatMessage{Role: string(m.Role), Content: text})
	}
	return msgs
}

// Handle is the caller's view of a running session.
type Handle struct {
	ch     chan string
	done   chan struct{}
	result Result
}

// Increments returns the channel of text fragments. It is closed when the
// session reaches a terminal status.
func (h *Handle) Increments() <-chan string {
	return h.ch
}

// Result blocks until the session terminates and returns its outcome.
func (h *Handle) Result() Result {
	<-h.done
	return h.result
}
