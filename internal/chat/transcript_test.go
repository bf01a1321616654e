package chat

import (
	"context"
	"errors"
	"testing"
)

func TestSubmitEmptyRejected(t *testing.T) {
	tr := NewTranscript()

	_, err := tr.Submit("   ", nil)
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if len(tr.Messages()) != 0 {
		t.Error("rejected submission must have no side effects")
	}
	if tr.State() != StateIdle {
		t.Errorf("state = %s", tr.State())
	}
}

func TestSubmitAppendsUserMessage(t *testing.T) {
	tr := NewTranscript()

	msg, err := tr.Submit("Hello", nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if msg.Role != RoleUser || msg.Text() != "Hello" {
		t.Errorf("user message = %+v", msg)
	}
	if tr.State() != StateSending {
		t.Errorf("state = %s, want sending", tr.State())
	}

	msgs := tr.Messages()
	if len(msgs) != 1 || msgs[0].Text() != "Hello" {
		t.Errorf("transcript = %+v", msgs)
	}
}

func TestSubmitWhileInFlightRejected(t *testing.T) {
	tr := NewTranscript()
	if _, err := tr.Submit("first", nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := tr.Submit("second", nil); !errors.Is(err, ErrBusy) {
		t.Errorf("sending state: expected ErrBusy, got %v", err)
	}

	tr.ApplyIncrement("x")
	if tr.State() != StateStreaming {
		t.Fatalf("state = %s", tr.State())
	}
	if _, err := tr.Submit("third", nil); !errors.Is(err, ErrBusy) {
		t.Errorf("streaming state: expected ErrBusy, got %v", err)
	}
	if len(tr.Messages()) != 2 {
		t.Errorf("rejected submissions changed transcript: %d messages", len(tr.Messages()))
	}
}

func TestFirstIncrementCreatesAssistantMessage(t *testing.T) {
	tr := NewTranscript()
	tr.Submit("Hello", nil)

	tr.ApplyIncrement("Hi")
	if tr.State() != StateStreaming {
		t.Errorf("state = %s, want streaming", tr.State())
	}

	msgs := tr.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected user + assistant, got %d", len(msgs))
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Text() != "Hi" {
		t.Errorf("assistant message = %+v", msgs[1])
	}
}

func TestIncrementsAppendToSameMessage(t *testing.T) {
	tr := NewTranscript()
	tr.Submit("Hello", nil)

	for _, d := range []string{"a", "b", "c"} {
		tr.ApplyIncrement(d)
	}

	msgs := tr.Messages()
	if len(msgs) != 2 {
		t.Fatalf("mid-stream increments must not create messages, got %d", len(msgs))
	}
	if msgs[1].Text() != "abc" {
		t.Errorf("accumulated text = %q", msgs[1].Text())
	}
	if len(msgs[1].Parts) != 1 {
		t.Errorf("expected a single text part, got %d", len(msgs[1].Parts))
	}
}

func TestCompletedReturnsToIdle(t *testing.T) {
	tr := NewTranscript()
	tr.Submit("Hello", nil)
	tr.ApplyIncrement("done")

	tr.Finish(Result{Status: StatusCompleted})
	if tr.State() != StateIdle {
		t.Errorf("state = %s", tr.State())
	}
	if tr.Messages()[1].Text() != "done" {
		t.Error("completed text lost")
	}

	// A new submission is accepted again.
	if _, err := tr.Submit("next", nil); err != nil {
		t.Errorf("submit after completion: %v", err)
	}
}

func TestAbortKeepsExactPartialText(t *testing.T) {
	tr := NewTranscript()

	var cancelled bool
	_, err := tr.Submit("Hello", func() { cancelled = true })
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	increments := []string{"The ", "role ", "fits."}
	for _, d := range increments {
		tr.ApplyIncrement(d)
	}

	tr.Cancel()
	if !cancelled {
		t.Error("Cancel did not signal the session")
	}

	tr.Finish(Result{Status: StatusAborted})
	if tr.State() != StateIdle {
		t.Errorf("aborted should return to idle, state = %s", tr.State())
	}
	if got := tr.Messages()[1].Text(); got != "The role fits." {
		t.Errorf("partial text = %q, want exact concatenation", got)
	}
}

func TestFailedAfterIncrementsKeepsPartial(t *testing.T) {
	tr := NewTranscript()
	tr.Submit("Hello", nil)

	for _, d := range []string{"1", "2", "3"} {
		tr.ApplyIncrement(d)
	}
	tr.Finish(Result{Status: StatusFailed, Err: errors.New("upstream timeout")})

	if tr.State() != StateError {
		t.Fatalf("state = %s, want error", tr.State())
	}
	if tr.Err() == nil {
		t.Error("error state should surface the cause")
	}

	msgs := tr.Messages()
	if len(msgs) != 2 || msgs[1].Text() != "123" {
		t.Errorf("partial transcript = %+v", msgs)
	}

	// Retry affordance: reset clears the error, keeps turns.
	tr.Reset()
	if tr.State() != StateIdle {
		t.Errorf("state after Reset = %s", tr.State())
	}
	if len(tr.Messages()) != 2 {
		t.Error("Reset must not roll back the transcript")
	}
	if _, err := tr.Submit("retry", nil); err != nil {
		t.Errorf("submit after reset: %v", err)
	}
}

func TestFailedBeforeFirstIncrement(t *testing.T) {
	tr := NewTranscript()
	tr.Submit("Hello", nil)

	tr.Finish(Result{Status: StatusFailed, Err: errors.New("connect refused")})
	if tr.State() != StateError {
		t.Fatalf("state = %s", tr.State())
	}
	if len(tr.Messages()) != 1 {
		t.Errorf("no assistant message should exist, got %d messages", len(tr.Messages()))
	}
}

func TestUnknownPartKindsIgnoredOnRender(t *testing.T) {
	m := Message{
		ID:   "m1",
		Role: RoleAssistant,
		Parts: []Part{
			{Kind: "text", Text: "visible"},
			{Kind: "tool_call", Text: "hidden"},
		},
	}
	if got := m.Text(); got != "visible" {
		t.Errorf("Text() = %q", got)
	}
}

func TestCancelWhenIdleIsNoop(t *testing.T) {
	tr := NewTranscript()
	tr.Cancel() // must not panic
	if tr.State() != StateIdle {
		t.Errorf("state = %s", tr.State())
	}
}

func TestSessionDrivesTranscript(t *testing.T) {
	tr := NewTranscript()
	st := &scriptedStreamer{deltas: []string{"Looks ", "good"}}
	s := NewSession(st, "test-model")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := tr.Submit("Evaluate", cancel); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	h := s.Run(ctx, tr.Messages(), "ctx")
	for delta := range h.Increments() {
		tr.ApplyIncrement(delta)
	}
	tr.Finish(h.Result())

	if tr.State() != StateIdle {
		t.Errorf("state = %s", tr.State())
	}
	msgs := tr.Messages()
	if len(msgs) != 2 || msgs[1].Text() != "Looks good" {
		t.Errorf("transcript = %+v", msgs)
	}
}
