// nudge-mcp exposes the monitor's persisted state as MCP tools over
// stdio, so an agent can ask how the user's day is going.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vthunder/nudge/internal/archive"
	"github.com/vthunder/nudge/internal/memory"
)

var statePath string

func main() {
	// Log to stderr so stdout is clean for JSON-RPC
	log.SetOutput(os.Stderr)
	log.SetPrefix("[nudge-mcp] ")

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	statePath = os.Getenv("NUDGE_STATE_PATH")
	if statePath == "" {
		statePath = "state"
	}

	s := server.NewMCPServer(
		"nudge-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.AddTool(statusTool(), handleStatus)
	s.AddTool(insightsTool(), handleInsights)
	s.AddTool(interventionsTool(), handleInterventions)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func statusTool() mcp.Tool {
	return mcp.NewTool("monitor_status",
		mcp.WithDescription("Current productivity-monitor state: open session, lifetime session counts, intervention effectiveness."),
	)
}

func handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store := memory.NewStore(statePath)
	if err := store.Load(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load state: %v", err)), nil
	}

	out := map[string]any{
		"session": store.CurrentSession(),
		"profile": store.Profile(),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func insightsTool() mcp.Tool {
	return mcp.NewTool("productivity_insights",
		mcp.WithDescription("Deterministic summary of the user's productive and unproductive hours and nudge effectiveness."),
	)
}

func handleInsights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store := memory.NewStore(statePath)
	if err := store.Load(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load state: %v", err)), nil
	}
	return mcp.NewToolResultText(store.Insights()), nil
}

func interventionsTool() mcp.Tool {
	return mcp.NewTool("recent_interventions",
		mcp.WithDescription("Recent nudges issued by the monitor, with outcomes where known."),
		mcp.WithNumber("limit",
			mcp.Description("Max interventions to return. Default: 10"),
		),
	)
}

func handleInterventions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	limit := 10
	if n, ok := args["limit"].(float64); ok && n > 0 {
		limit = int(n)
	}

	arch, err := archive.Open(statePath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("archive unavailable: %v", err)), nil
	}
	defer arch.Close()

	rows, err := arch.Interventions(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to query: %v", err)), nil
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
