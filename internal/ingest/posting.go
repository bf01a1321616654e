package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

const (
	maxFetchSize = 5 << 20 // 5MB
	fetchTimeout = 10 * time.Second
)

// Extractor turns job postings from the wild (URLs, uploaded PDFs, raw
// text) into plain text suitable for a prompt.
type Extractor struct {
	httpClient *http.Client
}

func New(httpClient *http.Client) *Extractor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: fetchTimeout}
	}
	return &Extractor{httpClient: httpClient}
}

// FromURL fetches a posting and returns its visible text. HTML responses
// are stripped to text; anything else is returned as-is. Reads are
// size-limited.
func (e *Extractor) FromURL(ctx context.Context, url string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching posting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("posting url returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return "", fmt.Errorf("reading posting: %w", err)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") || looksLikeHTML(body) {
		return HTMLToText(bytes.NewReader(body))
	}
	return NormalizeWhitespace(string(body)), nil
}

// FromPDF extracts the plain text of a PDF document.
func FromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	out := NormalizeWhitespace(sb.String())
	if out == "" {
		return "", fmt.Errorf("pdf contains no extractable text")
	}
	return out, nil
}

// HTMLToText strips markup and returns the document's visible text, one
// block element per line.
func HTMLToText(r io.Reader) (string, error) {
	tokenizer := html.NewTokenizer(r)

	var sb strings.Builder
	skipDepth := 0
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			if tokenizer.Err() == io.EOF {
				return NormalizeWhitespace(sb.String()), nil
			}
			return "", fmt.Errorf("parsing html: %w", tokenizer.Err())
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if skipTag(string(name)) {
				skipDepth++
			}
			// br is a void element, there is no end tag to break on.
			if string(name) == "br" {
				sb.WriteString("\n")
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if skipTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
			if blockTag(string(name)) {
				sb.WriteString("\n")
			}
		case html.SelfClosingTagToken:
			// <br/> and friends arrive as a single token, not a start/end pair.
			name, _ := tokenizer.TagName()
			if blockTag(string(name)) {
				sb.WriteString("\n")
			}
		case html.TextToken:
			if skipDepth == 0 {
				sb.WriteString(string(tokenizer.Text()))
				sb.WriteString(" ")
			}
		}
	}
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(string(body[:min(len(body), 512)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

func skipTag(name string) bool {
	switch name {
	case "script", "style", "noscript", "head":
		return true
	}
	return false
}

func blockTag(name string) bool {
	switch name {
	case "p", "div", "li", "ul", "ol", "br", "h1", "h2", "h3", "h4", "h5", "h6", "tr", "section", "article":
		return true
	}
	return false
}

// NormalizeWhitespace collapses runs of spaces and blank lines so the
// extracted text stays compact in a prompt.
func NormalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
