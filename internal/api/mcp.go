package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/profilechat/internal/session"
)

// NewMCPServer creates an MCP server exposing session init, chat turns and
// the latest profile.
func NewMCPServer(svc Service, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"profilechat",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("profilechat: personalized chat with a persistent user profile and conversation history."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("init_session",
			mcp.WithDescription("Rebuild the user profile from recent conversations and start a new chat session."),
		),
		mcpInitSession(svc),
	)

	s.AddTool(
		mcp.NewTool("chat",
			mcp.WithDescription("Send a message and get a reply personalized with the user profile."),
			mcp.WithString("message", mcp.Description("The user's message"), mcp.Required()),
			mcp.WithString("context", mcp.Description("Optional JSON object {messages, chat_file} returned by the previous turn")),
		),
		mcpChat(svc),
	)

	s.AddResource(
		mcp.NewResource(
			"user://profile",
			"User Profile",
			mcp.WithResourceDescription("Latest user profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(svc),
	)

	return s
}

func mcpInitSession(svc Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := svc.Init(ctx)
		return jsonToolResult(res, err != nil), nil
	}
}

func mcpChat(svc Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcp.NewToolResultError("message is required"), nil
		}

		var convo *session.Context
		if raw := req.GetString("context", ""); raw != "" {
			convo = &session.Context{}
			if err := json.Unmarshal([]byte(raw), convo); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("context must be a JSON object: %v", err)), nil
			}
		}

		res := svc.Chat(ctx, message, convo)
		return jsonToolResult(res, res.Error != nil), nil
	}
}

func mcpResourceProfile(svc Service) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(svc.Profile())
		if err != nil {
			return nil, fmt.Errorf("encoding profile: %w", err)
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

// jsonToolResult returns v as JSON text, flagged as a tool error when failed.
func jsonToolResult(v any, failed bool) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err))
	}
	if failed {
		return mcp.NewToolResultError(string(b))
	}
	return mcp.NewToolResultText(string(b))
}
