package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/noor-latif/open-cv-gen/internal/analyzer"
	"github.com/noor-latif/open-cv-gen/internal/ingest"
	"github.com/noor-latif/open-cv-gen/internal/profile"
)

const maxPostingBodySize = 10 << 20 // 10MB, PDFs arrive base64-encoded

// ExtractRequest names a job posting by URL or carries its content
// inline. Type selects how content is interpreted: "url", "pdf" (base64),
// "html", or "text" (the default).
type ExtractRequest struct {
	URL     string `json:"url"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

func handleExtractPosting(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxPostingBodySize)
		defer r.Body.Close()

		var req ExtractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		var text string
		var err error
		switch req.Type {
		case "url":
			if req.URL == "" {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "url is required for type url")
				return
			}
			text, err = deps.Extractor.FromURL(r.Context(), req.URL)
			if err != nil {
				httpError(w, http.StatusBadGateway, "api_error", "failed to fetch posting: %v", err)
				return
			}
		case "pdf":
			decoded, decErr := base64.StdEncoding.DecodeString(req.Content)
			if decErr != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid base64 content")
				return
			}
			text, err = ingest.FromPDF(decoded)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "failed to extract pdf: %v", err)
				return
			}
		case "html":
			text, err = ingest.HTMLToText(strings.NewReader(req.Content))
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "failed to parse html: %v", err)
				return
			}
			text = ingest.NormalizeWhitespace(text)
		default:
			text = ingest.NormalizeWhitespace(req.Content)
		}

		if strings.TrimSpace(text) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "posting contains no extractable text")
			return
		}
		writeJSON(w, map[string]string{"text": text})
	}
}

// AnalyzeRequest carries a job description to compare against the
// caller's compiled profile.
type AnalyzeRequest struct {
	JobDescription string `json:"job_description"`
}

type AnalyzeResponse struct {
	Alignment analyzer.Alignment `json:"alignment"`
	Skills    []string           `json:"skills"`
}

func handleAnalyzePosting(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if strings.TrimSpace(req.JobDescription) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "job_description is required")
			return
		}

		p, err := deps.Profiles.Load(UserID(r.Context()))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load profile: %v", err)
			return
		}

		alignment, err := deps.Analyzer.AnalyzeAlignment(r.Context(), profile.Compile(p), req.JobDescription)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "analysis failed: %v", err)
			return
		}

		skills := deps.Analyzer.ExtractSkills(r.Context(), req.JobDescription)
		if skills == nil {
			skills = []string{}
		}

		writeJSON(w, AnalyzeResponse{Alignment: alignment, Skills: skills})
	}
}
