package api

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/noor-latif/open-cv-gen/internal/analyzer"
	"github.com/noor-latif/open-cv-gen/internal/profile"
	"github.com/noor-latif/open-cv-gen/internal/storage"
)

type mockMCPAnalyzer struct {
	alignment analyzer.Alignment
	skills    []string
	err       error
}

func (m *mockMCPAnalyzer) AnalyzeAlignment(_ context.Context, _, _ string) (analyzer.Alignment, error) {
	return m.alignment, m.err
}

func (m *mockMCPAnalyzer) ExtractSkills(_ context.Context, _ string) []string {
	return m.skills
}

func newTestMCPDeps(t *testing.T) MCPDeps {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return MCPDeps{
		Profiles: profile.NewService(store),
		Analyzer: &mockMCPAnalyzer{},
		UserID:   "local",
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestMCPTool_UpdateProfile(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpUpdateProfile(deps)

	req := makeCallToolRequest("update_profile", map[string]interface{}{
		"full_name": "Ada Lovelace",
		"summary":   "Analytical engine programmer",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	p, err := deps.Profiles.Load("local")
	if err != nil {
		t.Fatalf("loading profile: %v", err)
	}
	if p.Record.FullName == nil || *p.Record.FullName != "Ada Lovelace" {
		t.Fatalf("full name = %v", p.Record.FullName)
	}
}

func TestMCPTool_AddSkill(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpAddSkill(deps)

	req := makeCallToolRequest("add_skill", map[string]interface{}{
		"name":        "Go",
		"proficiency": "expert",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	p, err := deps.Profiles.Load("local")
	if err != nil {
		t.Fatalf("loading profile: %v", err)
	}
	if len(p.Skills) != 1 || p.Skills[0].Name != "Go" {
		t.Fatalf("skills = %v", p.Skills)
	}
}

func TestMCPTool_AddSkill_BadProficiency(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpAddSkill(deps)

	req := makeCallToolRequest("add_skill", map[string]interface{}{
		"name":        "Go",
		"proficiency": "legendary",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result")
	}
}

func TestMCPTool_CompileContext(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpCompileContext(deps)

	req := makeCallToolRequest("compile_context", nil)

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text := toolText(t, result); text != profile.NoProfileInstruction {
		t.Fatalf("context = %q", text)
	}
}

func TestMCPTool_AnalyzeJob(t *testing.T) {
	deps := newTestMCPDeps(t)
	deps.Analyzer = &mockMCPAnalyzer{
		alignment: analyzer.Alignment{RequiredSkills: []string{"Go"}},
		skills:    []string{"Go", "SQL"},
	}
	handler := mcpAnalyzeJob(deps)

	req := makeCallToolRequest("analyze_job", map[string]interface{}{
		"job_description": "We need a Go engineer.",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal([]byte(toolText(t, result)), &resp); err != nil {
		t.Fatalf("parsing result: %v", err)
	}
	if len(resp.Alignment.RequiredSkills) != 1 {
		t.Fatalf("required skills = %v", resp.Alignment.RequiredSkills)
	}
	if len(resp.Skills) != 2 {
		t.Fatalf("skills = %v", resp.Skills)
	}
}

func TestMCPTool_AnalyzeJob_Error(t *testing.T) {
	deps := newTestMCPDeps(t)
	deps.Analyzer = &mockMCPAnalyzer{err: errors.New("gateway down")}
	handler := mcpAnalyzeJob(deps)

	req := makeCallToolRequest("analyze_job", map[string]interface{}{
		"job_description": "anything",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result")
	}
}

func TestMCPResource_Profile(t *testing.T) {
	deps := newTestMCPDeps(t)
	if _, err := deps.Profiles.GetOrCreate("local"); err != nil {
		t.Fatalf("creating profile: %v", err)
	}

	handler := mcpResourceProfile(deps)
	req := mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: "user://profile"},
	}

	contents, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}

	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}

	var p profile.Profile
	if err := json.Unmarshal([]byte(tc.Text), &p); err != nil {
		t.Fatalf("parsing profile JSON: %v", err)
	}
	if p.Record.UserID != "local" {
		t.Fatalf("user id = %q", p.Record.UserID)
	}
}
