package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/H9919/ehsbot/internal/bot"
	"github.com/H9919/ehsbot/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Dispatcher *bot.Dispatcher
	Store      *storage.Store
}

// NewMCPServer creates an MCP server exposing the incident intake flow
// as tools, so agent hosts can file reports on a user's behalf.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"ehsbot",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("ehsbot — guided EHS incident intake. Drive the conversation one message at a time with report_incident."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("report_incident",
			mcp.WithDescription("Send one conversational turn to the incident intake engine. Start with a trigger phrase like 'report an incident', then answer each question it returns."),
			mcp.WithString("message", mcp.Description("The user's message for this turn"), mcp.Required()),
			mcp.WithString("user_id", mcp.Description("Session key; reuse the same value for every turn of one report")),
		),
		mcpReportIncident(deps),
	)

	s.AddTool(
		mcp.NewTool("reset_session",
			mcp.WithDescription("Discard the in-progress incident session for a user."),
			mcp.WithString("user_id", mcp.Description("Session key to reset")),
		),
		mcpResetSession(deps),
	)

	s.AddTool(
		mcp.NewTool("list_incidents",
			mcp.WithDescription("List recently filed incident records, newest first."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of records (default 10)")),
		),
		mcpListIncidents(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"ehs://incidents/recent",
			"Recent Incidents",
			mcp.WithResourceDescription("Last 10 filed incident records (summaries only)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecentIncidents(deps),
	)

	return s
}

func mcpReportIncident(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		userID := req.GetString("user_id", "mcp_user")

		resp := deps.Dispatcher.Handle(userID, message, bot.TurnContext{})
		b, err := json.Marshal(resp)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal response: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

func mcpResetSession(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID := req.GetString("user_id", "mcp_user")

		deps.Dispatcher.Reset(userID)
		return mcpText(fmt.Sprintf("Session %s reset", userID)), nil
	}
}

func mcpListIncidents(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}

		incidents, err := deps.Store.ListIncidents(limit, 0)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list incidents: %v", err)), nil
		}

		if len(incidents) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(incidents)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal incidents: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

func mcpResourceRecentIncidents(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		incidents, err := deps.Store.ListIncidents(10, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to list incidents: %w", err)
		}

		type incidentSummary struct {
			ID          string `json:"id"`
			Category    string `json:"category"`
			Severe      bool   `json:"severe"`
			CreatedAt   string `json:"created_at"`
			Description string `json:"description"`
		}

		summaries := make([]incidentSummary, len(incidents))
		for i, inc := range incidents {
			desc := inc.Description
			if utf8.RuneCountInString(desc) > 200 {
				runes := []rune(desc)
				desc = string(runes[:200]) + "..."
			}
			summaries[i] = incidentSummary{
				ID:          inc.ID,
				Category:    inc.Category,
				Severe:      inc.Severe,
				CreatedAt:   inc.CreatedAt.Format(time.RFC3339),
				Description: desc,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal incidents: %w", err)
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
