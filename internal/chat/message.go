package chat

import (
	"strings"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartKindText is the only content-part kind this version produces.
const PartKindText = "text"

// Part is one unit of message content, tagged by kind. Kinds other than
// text are carried through untouched and skipped when rendering, so newer
// producers don't break older transcripts.
type Part struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
}

// Message is one turn in a conversation transcript.
type Message struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// NewTextMessage creates a message with a single text part and a fresh ID.
func NewTextMessage(role Role, text string) Message {
	return Message{
		ID:    uuid.New().String(),
		Role:  role,
		Parts: []Part{{Kind: PartKindText, Text: text}},
	}
}

// AppendText appends delta to the message's last text part, creating one
// if the message has none. Streaming reconciliation appends to the same
// part for the whole stream.
func (m *Message) AppendText(delta string) {
	for i := len(m.Parts) - 1; i >= 0; i-- {
		if m.Parts[i].Kind == PartKindText {
			m.Parts[i].Text += delta
			return
		}
	}
	m.Parts = append(m.Parts, Part{Kind: PartKindText, Text: delta})
}

// Text renders the message's text parts in order. Unknown part kinds are
// skipped, not errors.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Kind == PartKindText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// HistoryLimit bounds how many trailing turns are sent upstream.
const HistoryLimit = 40

// TrimHistory returns the last HistoryLimit messages.
func TrimHistory(history []Message) []Message {
	if len(history) <= HistoryLimit {
		return history
	}
	return history[len(history)-HistoryLimit:]
}
