package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

/*
Connect opens an initialized MCP client against the SSE server at baseURL.
The caller owns the client and must Close it.
*/
func Connect(ctx context.Context, baseURL string) (*client.Client, error) {
	url := strings.TrimRight(baseURL, "/") + "/sse"

	sseTransport, err := transport.NewSSE(url)

	if err != nil {
		return nil, fmt.Errorf("failed to create SSE transport: %w", err)
	}

	if err := sseTransport.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start SSE transport: %w", err)
	}

	c := client.NewClient(sseTransport)

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "airflow-mcp",
		Version: "1.0.0",
	}
	initRequest.Params.Capabilities = mcp.ClientCapabilities{}

	serverInfo, err := c.Initialize(ctx, initRequest)

	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}

	log.Debug(
		"connected to server",
		"serverName", serverInfo.ServerInfo.Name,
		"serverVersion", serverInfo.ServerInfo.Version,
	)

	return c, nil
}

/*
Call invokes one tool on the MCP server at baseURL and returns its first
content item as text. A tool error result is returned as an error.
*/
func Call(ctx context.Context, baseURL, name string, args map[string]any) (string, error) {
	c, err := Connect(ctx, baseURL)

	if err != nil {
		return "", err
	}

	defer c.Close()

	callToolRequest := mcp.CallToolRequest{}
	callToolRequest.Params.Name = name
	callToolRequest.Params.Arguments = args

	log.Debug("calling tool", "tool", name, "args", args)

	result, err := c.CallTool(ctx, callToolRequest)

	if err != nil {
		return "", fmt.Errorf("failed to call tool %s: %w", name, err)
	}

	text := firstText(result)

	if result.IsError {
		return "", fmt.Errorf("tool %s failed: %s", name, text)
	}

	return text, nil
}

func firstText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}

	if textContent, ok := result.Content[0].(mcp.TextContent); ok {
		return textContent.Text
	}

	raw, err := json.Marshal(result.Content[0])

	if err != nil {
		log.Warn("failed to marshal tool result content", "error", err)
		return ""
	}

	return string(raw)
}
