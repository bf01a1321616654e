package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/noor-latif/open-cv-gen/internal/chat"
	"github.com/noor-latif/open-cv-gen/internal/profile"
)

// ChatStreamRequest carries the client's transcript. The server recompiles
// the profile context on every exchange so edits made since the last turn
// are always reflected.
type ChatStreamRequest struct {
	Messages []chat.Message `json:"messages"`
}

// StreamEvent is one SSE data payload. Delta events carry a text
// fragment; the final event carries the terminal status instead.
type StreamEvent struct {
	Delta  string `json:"delta,omitempty"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

func handleChatStream(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req ChatStreamRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if len(req.Messages) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "messages is required and must not be empty")
			return
		}

		p, err := deps.Profiles.Load(UserID(r.Context()))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load profile: %v", err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			httpError(w, http.StatusInternalServerError, "api_error", "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		// Client disconnect cancels r.Context(), which aborts the session.
		h := deps.Session.Run(r.Context(), req.Messages, profile.Compile(p))

		for delta := range h.Increments() {
			writeEvent(w, flusher, StreamEvent{Delta: delta})
		}

		res := h.Result()
		final := StreamEvent{Status: string(res.Status)}
		if res.Err != nil {
			final.Error = res.Err.Error()
		}
		writeEvent(w, flusher, final)

		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, ev StreamEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}
