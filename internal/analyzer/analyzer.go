package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const analysisTimeout = 30 * time.Second

// Completer is the non-streaming model capability the analyzer uses.
// Implemented by gateway.Client.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Alignment is the structured result of comparing a profile against a job
// description.
type Alignment struct {
	RequiredSkills    []string `json:"required_skills"`
	MatchedExperience []string `json:"matched_experience"`
	Gaps              []string `json:"gaps"`
	Suggestions       string   `json:"suggestions"`
}

// Analyzer runs structured model calls over job descriptions: skill
// extraction and profile alignment.
type Analyzer struct {
	client Completer
}

func New(client Completer) *Analyzer {
	return &Analyzer{client: client}
}

const extractSkillsSystem = `You are a job description analyzer. Extract all technical skills, tools, technologies, and competencies mentioned in the job description. Return only a JSON array of skill names, nothing else.`

// ExtractSkills pulls the skill names out of a job description. On any
// failure (model error, malformed JSON) it returns an empty slice rather
// than blocking the caller.
func (a *Analyzer) ExtractSkills(ctx context.Context, jobDescription string) []string {
	if strings.TrimSpace(jobDescription) == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	prompt := "Extract all skills, technologies, and tools from this job description.\n" +
		"Return only a JSON array of strings, no explanations.\n\nJob Description:\n" + jobDescription

	raw, err := a.client.Complete(ctx, extractSkillsSystem, prompt)
	if err != nil {
		slog.Warn("skill extraction failed", "error", err)
		return nil
	}

	var skills []string
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &skills); err != nil {
		slog.Warn("failed to parse extracted skills", "error", err, "response", raw)
		return nil
	}
	return skills
}

const alignmentSystem = `You are an expert CV analyst. Analyze how well a candidate profile matches a job description using semantic understanding, not keyword matching.

Consider synonyms and related terms, context and experience level, transferable skills, and experience mentioned in any section.

Return ONLY valid JSON with this exact structure:
{
  "required_skills": ["key skills/requirements from the job description"],
  "matched_experience": ["experience from the profile that matches, with brief context"],
  "gaps": ["true gaps where the profile genuinely lacks required experience"],
  "suggestions": "how to highlight existing experience or address gaps"
}

Do NOT include markdown code blocks. Return only the JSON object.`

// AnalyzeAlignment compares the compiled profile context against a job
// description. Unlike ExtractSkills, a failure here is surfaced: the
// caller shows it to the user instead of silently degrading.
func (a *Analyzer) AnalyzeAlignment(ctx context.Context, compiledContext, jobDescription string) (Alignment, error) {
	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	prompt := fmt.Sprintf(`Analyze this candidate profile against the job description using semantic understanding.

Job Description:
%s

Candidate Profile:
%s

Identify what relevant experience the profile demonstrates, the actual gaps (only experience that is truly missing, not keyword mismatches), and how the candidate can highlight existing relevant experience. Return valid JSON only with the structure specified in the system prompt.`, jobDescription, compiledContext)

	raw, err := a.client.Complete(ctx, alignmentSystem, prompt)
	if err != nil {
		return Alignment{}, fmt.Errorf("alignment analysis: %w", err)
	}

	var result Alignment
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &result); err != nil {
		return Alignment{}, fmt.Errorf("parsing alignment response: %w", err)
	}
	return result, nil
}

const draftSystem = `You are a CV and cover letter writer. Draft an application document tailored to the given job description using ONLY the candidate profile provided.

RULES:
1. Never invent experience, skills, employers, dates, or qualifications that are not in the profile.
2. Lead with the profile content most relevant to the job description.
3. Keep the candidate's facts exact; only the emphasis and wording are yours.
4. Return the document as plain markdown. No code fences, no commentary before or after.`

// DraftDocument writes a tailored application document from the compiled
// profile context and a job description. Like AnalyzeAlignment, failures
// are surfaced to the caller.
func (a *Analyzer) DraftDocument(ctx context.Context, compiledContext, jobDescription string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	prompt := fmt.Sprintf(`Draft a tailored application document for this job.

Job Description:
%s

Candidate Profile:
%s

Emphasize the candidate's relevant experience for this role. Use only facts from the profile.`, jobDescription, compiledContext)

	raw, err := a.client.Complete(ctx, draftSystem, prompt)
	if err != nil {
		return "", fmt.Errorf("drafting document: %w", err)
	}

	doc := StripCodeFences(raw)
	if strings.TrimSpace(doc) == "" {
		return "", fmt.Errorf("drafting document: model returned empty response")
	}
	return doc, nil
}

// StripCodeFences removes a surrounding markdown code block, with or
// without a language tag. Models wrap JSON in fences despite instructions
// not to.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 && !strings.ContainsAny(s[:idx], "{[") {
		// First line is a language tag like "json".
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
