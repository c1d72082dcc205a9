package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	errs "github.com/theapemachine/airflow-mcp/pkg/errors"
	"github.com/theapemachine/airflow-mcp/pkg/metrics"
	"github.com/theapemachine/airflow-mcp/pkg/registry"
)

const (
	schemaURIPrefix = "airflow://schemas/"
	mimeJSON        = "application/json"
)

/*
MCPBroker exposes every registry tool, and its output schema as a resource,
on an MCP server.
*/
type MCPBroker struct {
	srv   *server.MCPServer
	reg   *registry.Registry
	stats *metrics.ToolMetrics
}

/*
NewMCPBroker registers every tool in reg. Calls are recorded in stats, a nil
stats gets a private instance.
*/
func NewMCPBroker(
	name, version string, reg *registry.Registry, stats *metrics.ToolMetrics,
) *MCPBroker {
	if stats == nil {
		stats = metrics.NewToolMetrics()
	}

	broker := &MCPBroker{
		srv: server.NewMCPServer(
			name,
			version,
			server.WithLogging(),
			server.WithResourceCapabilities(false, true),
			server.WithToolCapabilities(true),
		),
		reg:   reg,
		stats: stats,
	}

	for _, def := range reg.List() {
		broker.srv.AddTool(def.Tool, broker.handle(def))
	}

	for name, doc := range reg.Schemas() {
		text := doc.String()

		broker.srv.AddResource(
			mcp.NewResource(
				schemaURIPrefix+name,
				name,
				mcp.WithResourceDescription("Resolved JSON schema of the "+name+" response"),
				mcp.WithMIMEType(mimeJSON),
			),
			func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
				return []mcp.ResourceContents{
					mcp.TextResourceContents{
						URI:      req.Params.URI,
						MIMEType: mimeJSON,
						Text:     text,
					},
				}, nil
			},
		)
	}

	return broker
}

func (broker *MCPBroker) Server() *server.MCPServer {
	return broker.srv
}

/*
Serve runs the broker on the given transport until ctx is done or the
transport fails. addr is only used by "sse".
*/
func (broker *MCPBroker) Serve(ctx context.Context, transport, addr string) error {
	switch transport {
	case "stdio":
		log.Info("serving MCP over stdio")
		return server.ServeStdio(broker.srv)
	case "sse":
		sse := server.NewSSEServer(broker.srv)

		go func() {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := sse.Shutdown(shutdownCtx); err != nil {
				log.Warn("failed to shut down SSE server", "error", err)
			}
		}()

		log.Info("serving MCP over SSE", "addr", addr, "tools", len(broker.reg.List()))

		if err := sse.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("sse server: %w", err)
		}

		return nil
	}

	return fmt.Errorf("unknown MCP transport %q", transport)
}

/*
handle adapts a registry tool to an MCP handler. Failures become tool error
results carrying the taxonomy message so the client sees why the call failed.
*/
func (broker *MCPBroker) handle(def registry.ToolDefinition) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := uuid.New().String()
		name := def.Definition.Name
		started := time.Now()

		log.Info("tool invoked", "id", id, "tool", name)

		result, err := def.Executor(ctx, req.GetArguments())
		broker.stats.Record(name, time.Since(started), err)

		if err != nil {
			log.Error(
				"tool failed",
				"id", id,
				"tool", name,
				"kind", errs.KindOf(err),
				"error", err,
			)

			return mcp.NewToolResultError(err.Error()), nil
		}

		log.Info("tool completed", "id", id, "tool", name, "duration", time.Since(started))
		return mcp.NewToolResultText(result.String()), nil
	}
}
