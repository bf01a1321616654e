package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noor-latif/open-cv-gen/internal/api"
	"github.com/noor-latif/open-cv-gen/internal/chat"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive conversation grounded in the profile",
	Long: `Start an interactive conversation with the career assistant. The
assistant answers strictly from the stored profile: ask it to evaluate a
posting, draft a cover letter, or tailor CV content.

Press Ctrl-C during a response to stop it; the partial text is kept.
Type "exit" to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func runChat() error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	transcript := chat.NewTranscript()
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	fmt.Println("Connected. Type a message, or \"exit\" to quit.")

	for {
		fmt.Print(colorize(colorBold, "> "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			return nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		if _, err := transcript.Submit(line, cancel); err != nil {
			cancel()
			if errors.Is(err, chat.ErrEmptyInput) {
				continue
			}
			printError("%v", err)
			continue
		}

		// Ctrl-C during the stream cancels the session, not the CLI.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt)
		go func() {
			select {
			case <-sigCh:
				transcript.Cancel()
			case <-ctx.Done():
			}
		}()

		res := streamExchange(ctx, client, transcript)
		signal.Stop(sigCh)
		cancel()

		transcript.Finish(res)
		fmt.Println()

		switch transcript.State() {
		case chat.StateError:
			printError("message failed: %v", transcript.Err())
			transcript.Reset()
		case chat.StateIdle:
			if res.Status == chat.StatusAborted {
				printWarning("response stopped; partial text kept")
			}
		}
	}
}

// streamExchange posts the transcript and folds the SSE stream back into
// it, echoing each fragment as it arrives.
func streamExchange(ctx context.Context, client *apiClient, transcript *chat.Transcript) chat.Result {
	body, err := json.Marshal(api.ChatStreamRequest{Messages: transcript.Messages()})
	if err != nil {
		return chat.Result{Status: chat.StatusFailed, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL+"/v1/chat/stream", strings.NewReader(string(body)))
	if err != nil {
		return chat.Result{Status: chat.StatusFailed, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+client.token)
	req.Header.Set("Content-Type", "application/json")

	// No client timeout: the server enforces the session ceiling.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return chat.Result{Status: chat.StatusAborted}
		}
		return chat.Result{Status: chat.StatusFailed, Err: fmt.Errorf("server not reachable — is opencv running? (%w)", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if decErr := json.NewDecoder(resp.Body).Decode(&envelope); decErr == nil && envelope.Error.Message != "" {
			return chat.Result{Status: chat.StatusFailed, Err: errors.New(envelope.Error.Message)}
		}
		return chat.Result{Status: chat.StatusFailed, Err: fmt.Errorf("server returned %d", resp.StatusCode)}
	}

	result := chat.Result{Status: chat.StatusCompleted}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		payload, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok || payload == "[DONE]" {
			continue
		}

		var ev api.StreamEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			continue
		}
		if ev.Delta != "" {
			transcript.ApplyIncrement(ev.Delta)
			fmt.Print(ev.Delta)
		}
		if ev.Status != "" {
			result.Status = chat.Status(ev.Status)
			if ev.Error != "" {
				result.Err = errors.New(ev.Error)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return chat.Result{Status: chat.StatusAborted}
		}
		return chat.Result{Status: chat.StatusFailed, Err: fmt.Errorf("reading stream: %w", err)}
	}
	return result
}
