package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/noor-latif/open-cv-gen/internal/gateway"
)

// scriptedStreamer delivers fixed deltas, optionally failing afterwards or
// blocking until the context ends.
type scriptedStreamer struct {
	deltas []string
	err    error
	block  bool

	gotReq gateway.ChatRequest
}

func (s *scriptedStreamer) Stream(ctx context.Context, req gateway.ChatRequest, fn func(string) error) error {
	s.gotReq = req
	for _, d := range s.deltas {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
	}
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.err
}

func collect(h *Handle) (string, Result) {
	var sb strings.Builder
	for delta := range h.Increments() {
		sb.WriteString(delta)
	}
	return sb.String(), h.Result()
}

func TestSessionCompleted(t *testing.T) {
	st := &scriptedStreamer{deltas: []string{"Good ", "match."}}
	s := NewSession(st, "test-model")

	h := s.Run(context.Background(), []Message{NewTextMessage(RoleUser, "Evaluate this")}, "ctx")
	text, res := collect(h)

	if res.Status != StatusCompleted {
		t.Fatalf("status = %s, err = %v", res.Status, res.Err)
	}
	if text != "Good match." {
		t.Errorf("text = %q", text)
	}
}

func TestSessionAbortedKeepsPartialText(t *testing.T) {
	st := &scriptedStreamer{deltas: []string{"one", "two"}, block: true}
	s := NewSession(st, "test-model")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := s.Run(ctx, nil, "ctx")

	var got []string
	for delta := range h.Increments() {
		got = append(got, delta)
		if len(got) == 2 {
			cancel()
		}
	}
	res := h.Result()

	if res.Status != StatusAborted {
		t.Fatalf("status = %s, err = %v", res.Status, res.Err)
	}
	if res.Err != nil {
		t.Errorf("aborted must not carry an error, got %v", res.Err)
	}
	if strings.Join(got, "") != "onetwo" {
		t.Errorf("partial increments lost: %v", got)
	}
}

func TestSessionFailed(t *testing.T) {
	st := &scriptedStreamer{deltas: []string{"par"}, err: errors.New("upstream 502")}
	s := NewSession(st, "test-model")

	h := s.Run(context.Background(), nil, "ctx")
	text, res := collect(h)

	if res.Status != StatusFailed {
		t.Fatalf("status = %s", res.Status)
	}
	if res.Err == nil || !strings.Contains(res.Err.Error(), "upstream 502") {
		t.Errorf("err = %v", res.Err)
	}
	if text != "par" {
		t.Errorf("partial text before failure lost: %q", text)
	}
}

func TestSessionTimeoutIsFailure(t *testing.T) {
	st := &scriptedStreamer{block: true}
	s := NewSessionWithTimeout(st, "test-model", 20*time.Millisecond)

	h := s.Run(context.Background(), nil, "ctx")
	_, res := collect(h)

	if res.Status != StatusFailed {
		t.Fatalf("timeout should fail, got %s", res.Status)
	}
	if res.Err == nil || !strings.Contains(res.Err.Error(), "ceiling") {
		t.Errorf("err should name the ceiling: %v", res.Err)
	}
}

func TestSessionPayload(t *testing.T) {
	st := &scriptedStreamer{}
	s := NewSession(st, "test-model")

	history := []Message{
		NewTextMessage(RoleUser, "Here is a posting"),
		NewTextMessage(RoleAssistant, "Looks interesting"),
		{ID: "x", Role: RoleUser, Parts: []Part{{Kind: "image", Text: "ignored"}}},
	}
	h := s.Run(context.Background(), history, "COMPILED CONTEXT")
	collect(h)

	msgs := st.gotReq.Messages
	if len(msgs) != 3 {
		t.Fatalf("expected system + 2 turns, got %d", len(msgs))
	}
	if msgs[0].Role != "system" || !strings.Contains(msgs[0].Content, "COMPILED CONTEXT") {
		t.Errorf("system message missing context: %+v", msgs[0])
	}
	if !strings.Contains(msgs[0].Content, "career assistant") {
		t.Errorf("system message missing policy: %+v", msgs[0])
	}
	if msgs[1].Role != "user" || msgs[1].Content != "Here is a posting" {
		t.Errorf("first turn wrong: %+v", msgs[1])
	}
	if msgs[2].Role != "assistant" {
		t.Errorf("second turn wrong: %+v", msgs[2])
	}
	if st.gotReq.Model != "test-model" {
		t.Errorf("model = %q", st.gotReq.Model)
	}
}

func TestTrimHistory(t *testing.T) {
	long := make([]Message, HistoryLimit+5)
	for i := range long {
		long[i] = NewTextMessage(RoleUser, "m")
	}
	if got := len(TrimHistory(long)); got != HistoryLimit {
		t.Errorf("trimmed length = %d", got)
	}
	short := long[:3]
	if got := len(TrimHistory(short)); got != 3 {
		t.Errorf("short history trimmed to %d", got)
	}
}
