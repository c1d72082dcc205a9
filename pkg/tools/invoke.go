package tools

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/airflow-mcp/pkg/httpclient"
	"github.com/theapemachine/airflow-mcp/pkg/types"
)

/*
Requester is the part of the HTTP client a tool needs.
*/
type Requester interface {
	RequestJSON(ctx context.Context, endpoint string, opts ...httpclient.RequestOption) (types.Value, error)
}

/*
Invoke runs def with args against requester and returns the decoded JSON
response. Argument errors are returned before any request is made.
*/
func Invoke(
	ctx context.Context, requester Requester, def Definition, args map[string]any,
) (types.Value, error) {
	endpoint, query, err := def.Expand(args)

	if err != nil {
		return types.Value{}, err
	}

	started := time.Now()
	result, err := requester.RequestJSON(ctx, endpoint, httpclient.WithParams(query))

	if err != nil {
		log.Warn("tool failed", "tool", def.Name, "endpoint", endpoint, "error", err)
		return types.Value{}, err
	}

	log.Debug("tool executed", "tool", def.Name, "endpoint", endpoint, "duration", time.Since(started))
	return result, nil
}
