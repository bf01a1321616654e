package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/noor-latif/open-cv-gen/internal/analyzer"
	"github.com/noor-latif/open-cv-gen/internal/profile"
	"github.com/noor-latif/open-cv-gen/internal/storage"
)

// MCPAnalyzer abstracts alignment analysis for the MCP layer.
type MCPAnalyzer interface {
	AnalyzeAlignment(ctx context.Context, compiledContext, jobDescription string) (analyzer.Alignment, error)
	ExtractSkills(ctx context.Context, jobDescription string) []string
}

// MCPDeps holds dependencies for the MCP server. The server runs over
// stdio for one local user, so the user id is fixed at startup.
type MCPDeps struct {
	Profiles *profile.Service
	Analyzer MCPAnalyzer // optional; if nil, analyze_job returns an error
	UserID   string
}

// NewMCPServer creates an MCP server exposing the profile and the job
// analysis tools to MCP-capable assistants.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"opencv",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("opencv: career profile store and job posting analysis for tailored applications."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("get_profile",
			mcp.WithDescription("Return the user's career profile: identity, work experience, education, and skills."),
		),
		mcpGetProfile(deps),
	)

	s.AddTool(
		mcp.NewTool("update_profile",
			mcp.WithDescription("Update the profile's identity fields. Omitted fields are left unchanged."),
			mcp.WithString("full_name", mcp.Description("Candidate's full name")),
			mcp.WithString("location", mcp.Description("Candidate's location")),
			mcp.WithString("summary", mcp.Description("Professional summary")),
		),
		mcpUpdateProfile(deps),
	)

	s.AddTool(
		mcp.NewTool("add_skill",
			mcp.WithDescription("Add a skill to the profile."),
			mcp.WithString("name", mcp.Description("Skill name"), mcp.Required()),
			mcp.WithString("proficiency", mcp.Description("One of beginner, intermediate, advanced, expert")),
		),
		mcpAddSkill(deps),
	)

	s.AddTool(
		mcp.NewTool("compile_context",
			mcp.WithDescription("Compile the profile into the grounding context used for drafting application documents."),
		),
		mcpCompileContext(deps),
	)

	s.AddTool(
		mcp.NewTool("analyze_job",
			mcp.WithDescription("Compare the profile against a job description and report matches, gaps, and suggestions."),
			mcp.WithString("job_description", mcp.Description("Full text of the job posting"), mcp.Required()),
		),
		mcpAnalyzeJob(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"user://profile",
			"Career Profile",
			mcp.WithResourceDescription("Current career profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	return s
}

func mcpGetProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := deps.Profiles.Load(deps.UserID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load profile: %v", err)), nil
		}
		if p == nil {
			return mcpText("{}"), nil
		}

		b, err := json.Marshal(p)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal profile: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpUpdateProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rec, err := deps.Profiles.GetOrCreate(deps.UserID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to get profile: %v", err)), nil
		}

		if v := req.GetString("full_name", ""); v != "" {
			rec.FullName = &v
		}
		if v := req.GetString("location", ""); v != "" {
			rec.Location = &v
		}
		if v := req.GetString("summary", ""); v != "" {
			rec.Summary = &v
		}
		rec.UpdatedAt = time.Now().UTC()

		if err := deps.Profiles.Update(rec); err != nil {
			return mcpError(fmt.Sprintf("failed to update profile: %v", err)), nil
		}
		return mcpText("Profile updated"), nil
	}
}

func mcpAddSkill(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}

		rec, err := deps.Profiles.GetOrCreate(deps.UserID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to get profile: %v", err)), nil
		}

		sk := storage.Skill{ProfileID: rec.ID, Name: name}
		if prof := req.GetString("proficiency", ""); prof != "" {
			sk.Proficiency = &prof
		}
		saved, err := deps.Profiles.AddSkill(sk)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to add skill: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Added skill %s", saved.Name)), nil
	}
}

func mcpCompileContext(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := deps.Profiles.Load(deps.UserID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load profile: %v", err)), nil
		}
		return mcpText(profile.Compile(p)), nil
	}
}

func mcpAnalyzeJob(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if deps.Analyzer == nil {
			return mcpError("analysis not available: no model gateway configured"), nil
		}

		jobDescription, err := req.RequireString("job_description")
		if err != nil {
			return mcpError("job_description is required"), nil
		}

		p, err := deps.Profiles.Load(deps.UserID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load profile: %v", err)), nil
		}

		alignment, err := deps.Analyzer.AnalyzeAlignment(ctx, profile.Compile(p), jobDescription)
		if err != nil {
			return mcpError(fmt.Sprintf("analysis failed: %v", err)), nil
		}

		result := AnalyzeResponse{
			Alignment: alignment,
			Skills:    deps.Analyzer.ExtractSkills(ctx, jobDescription),
		}
		b, err := json.Marshal(result)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal analysis: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		p, err := deps.Profiles.Load(deps.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}

		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profile: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
