package tools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

/*
Acquire returns the MCP tool for the named Airflow tool.
*/
func Acquire(name string) (*mcp.Tool, error) {
	for _, def := range Airflow() {
		if def.Name == name {
			tool := NewTool(def)
			return &tool, nil
		}
	}

	return nil, fmt.Errorf("tool not found: %s", name)
}

/*
NewTool converts a Definition into an MCP tool with one input property per
parameter.
*/
func NewTool(def Definition) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(def.Description),
	}

	for _, param := range def.Params {
		opts = append(opts, property(param))
	}

	return mcp.NewTool(def.Name, opts...)
}

func property(param Param) mcp.ToolOption {
	props := []mcp.PropertyOption{
		mcp.Description(param.Description),
	}

	if param.Required || param.In == InPath {
		props = append(props, mcp.Required())
	}

	switch param.Kind {
	case Integer, Number:
		return mcp.WithNumber(param.Name, props...)
	case Boolean:
		return mcp.WithBoolean(param.Name, props...)
	case StringList:
		return mcp.WithArray(param.Name, props...)
	}

	return mcp.WithString(param.Name, props...)
}
