package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeCompleter struct {
	response string
	err      error
	gotUser  string
}

func (f *fakeCompleter) Complete(_ context.Context, _, user string) (string, error) {
	f.gotUser = user
	return f.response, f.err
}

func TestExtractSkills(t *testing.T) {
	a := New(&fakeCompleter{response: `["Go", "SQL", "Kubernetes"]`})

	skills := a.ExtractSkills(context.Background(), "We need Go and SQL")
	if len(skills) != 3 || skills[0] != "Go" {
		t.Errorf("skills = %v", skills)
	}
}

func TestExtractSkillsStripsFences(t *testing.T) {
	a := New(&fakeCompleter{response: "```json\n[\"Go\"]\n```"})

	skills := a.ExtractSkills(context.Background(), "desc")
	if len(skills) != 1 || skills[0] != "Go" {
		t.Errorf("skills = %v", skills)
	}
}

func TestExtractSkillsFailuresDegrade(t *testing.T) {
	for name, c := range map[string]*fakeCompleter{
		"model error":    {err: errors.New("boom")},
		"malformed json": {response: "not json"},
	} {
		a := New(c)
		if skills := a.ExtractSkills(context.Background(), "desc"); skills != nil {
			t.Errorf("%s: expected nil, got %v", name, skills)
		}
	}
}

func TestExtractSkillsEmptyInput(t *testing.T) {
	c := &fakeCompleter{response: `["x"]`}
	a := New(c)
	if skills := a.ExtractSkills(context.Background(), "  "); skills != nil {
		t.Errorf("expected nil for empty input, got %v", skills)
	}
	if c.gotUser != "" {
		t.Error("empty input should not reach the model")
	}
}

func TestAnalyzeAlignment(t *testing.T) {
	c := &fakeCompleter{response: `{
		"required_skills": ["Go", "Kubernetes"],
		"matched_experience": ["8 years of Go at Acme"],
		"gaps": ["Kubernetes"],
		"suggestions": "Mention container work."
	}`}
	a := New(c)

	got, err := a.AnalyzeAlignment(context.Background(), "compiled profile", "job text")
	if err != nil {
		t.Fatalf("AnalyzeAlignment: %v", err)
	}
	if len(got.Gaps) != 1 || got.Gaps[0] != "Kubernetes" {
		t.Errorf("gaps = %v", got.Gaps)
	}
	if !strings.Contains(c.gotUser, "compiled profile") || !strings.Contains(c.gotUser, "job text") {
		t.Error("prompt missing inputs")
	}
}

func TestAnalyzeAlignmentSurfacesErrors(t *testing.T) {
	a := New(&fakeCompleter{err: errors.New("upstream")})
	if _, err := a.AnalyzeAlignment(context.Background(), "p", "j"); err == nil {
		t.Error("expected error")
	}

	a = New(&fakeCompleter{response: "{broken"})
	if _, err := a.AnalyzeAlignment(context.Background(), "p", "j"); err == nil {
		t.Error("expected parse error")
	}
}

func TestDraftDocument(t *testing.T) {
	c := &fakeCompleter{response: "```markdown\n# Jane Doe\n\nBackend engineer.\n```"}
	a := New(c)

	doc, err := a.DraftDocument(context.Background(), "compiled profile", "job text")
	if err != nil {
		t.Fatalf("DraftDocument: %v", err)
	}
	if doc != "# Jane Doe\n\nBackend engineer." {
		t.Errorf("doc = %q", doc)
	}
	if !strings.Contains(c.gotUser, "compiled profile") || !strings.Contains(c.gotUser, "job text") {
		t.Error("prompt missing inputs")
	}
}

func TestDraftDocumentSurfacesErrors(t *testing.T) {
	a := New(&fakeCompleter{err: errors.New("upstream")})
	if _, err := a.DraftDocument(context.Background(), "p", "j"); err == nil {
		t.Error("expected error")
	}

	a = New(&fakeCompleter{response: "   "})
	if _, err := a.DraftDocument(context.Background(), "p", "j"); err == nil {
		t.Error("expected error for empty response")
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"plain":                        "plain",
		"```json\n{\"a\":1}\n```":      `{"a":1}`,
		"```\n[1,2]\n```":              "[1,2]",
		"  ```json\n{}\n```  ":         "{}",
		"no fences {\"a\":1}":          `no fences {"a":1}`,
	}
	for in, want := range cases {
		if got := StripCodeFences(in); got != want {
			t.Errorf("StripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}
