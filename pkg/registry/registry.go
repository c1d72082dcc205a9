package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/theapemachine/airflow-mcp/pkg/tools"
	"github.com/theapemachine/airflow-mcp/pkg/types"
)

// ToolExecutorFunc runs a tool with decoded arguments and returns its JSON result.
type ToolExecutorFunc func(ctx context.Context, args map[string]any) (types.Value, error)

// SchemaLoader resolves an output schema by name, e.g. "dag/dag".
type SchemaLoader interface {
	Load(name string) (types.Value, error)
}

// ToolDefinition links a tool to its MCP representation, its resolved
// output schema and the function that executes it.
type ToolDefinition struct {
	Definition   tools.Definition
	Tool         mcp.Tool
	OutputSchema types.Value
	Executor     ToolExecutorFunc
}

// Registry holds tool definitions keyed by tool name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]ToolDefinition
}

func New() *Registry {
	return &Registry{tools: make(map[string]ToolDefinition)}
}

/*
Build resolves the output schema of every definition and binds it to an
executor that calls requester. Any schema that fails to load fails the build,
so a running server never advertises a tool without its schema.
*/
func Build(
	defs []tools.Definition, loader SchemaLoader, requester tools.Requester,
) (*Registry, error) {
	reg := New()

	for _, def := range defs {
		out, err := loader.Load(def.OutputSchema)

		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", def.Name, err)
		}

		reg.RegisterTool(ToolDefinition{
			Definition:   def,
			Tool:         tools.NewTool(def),
			OutputSchema: out,
			Executor: func(ctx context.Context, args map[string]any) (types.Value, error) {
				return tools.Invoke(ctx, requester, def, args)
			},
		})
	}

	return reg, nil
}

// RegisterTool adds or replaces a tool definition.
func (reg *Registry) RegisterTool(def ToolDefinition) {
	reg.mu.Lock()
	reg.tools[def.Definition.Name] = def
	reg.mu.Unlock()
}

// GetToolDefinition retrieves a tool definition by its name.
func (reg *Registry) GetToolDefinition(name string) (ToolDefinition, bool) {
	reg.mu.RLock()
	def, found := reg.tools[name]
	reg.mu.RUnlock()
	return def, found
}

// List returns every tool definition ordered by name.
func (reg *Registry) List() []ToolDefinition {
	reg.mu.RLock()
	out := make([]ToolDefinition, 0, len(reg.tools))

	for _, def := range reg.tools {
		out = append(out, def)
	}

	reg.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Definition.Name < out[j].Definition.Name
	})

	return out
}

/*
Schemas returns the resolved output schemas keyed by schema name. Tools that
share a schema appear once.
*/
func (reg *Registry) Schemas() map[string]types.Value {
	out := map[string]types.Value{}

	for _, def := range reg.List() {
		out[def.Definition.OutputSchema] = def.OutputSchema
	}

	return out
}
