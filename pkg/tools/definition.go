package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	errs "github.com/theapemachine/airflow-mcp/pkg/errors"
)

// ParamKind is the argument type a tool accepts for a parameter.
type ParamKind uint8

const (
	String ParamKind = iota
	Integer
	Number
	Boolean
	StringList
)

func (kind ParamKind) String() string {
	switch kind {
	case Integer:
		return "integer"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	case StringList:
		return "array"
	}

	return "string"
}

// Location is where a parameter ends up in the request.
type Location uint8

const (
	InQuery Location = iota
	InPath
)

/*
Param describes one tool argument. Path params are always required. A
non-nil Default is sent when the caller leaves the argument out.
*/
type Param struct {
	Name        string
	Description string
	Kind        ParamKind
	In          Location
	Required    bool
	Default     any
}

/*
Definition is one Airflow tool: the endpoint template it calls relative to
the API base URL, the schema its response follows and its arguments.
Endpoint placeholders are written as {name} and must match a path Param.
*/
type Definition struct {
	Name         string
	Description  string
	Endpoint     string
	OutputSchema string
	Params       []Param
}

/*
Param looks up a parameter by name.
*/
func (def Definition) Param(name string) (Param, bool) {
	for _, param := range def.Params {
		if param.Name == name {
			return param, true
		}
	}

	return Param{}, false
}

/*
Expand validates args against the parameters and returns the endpoint with
every placeholder substituted plus the query parameters to send. Unknown
arguments are ignored. Optional arguments that are empty are omitted.
*/
func (def Definition) Expand(args map[string]any) (string, map[string]any, error) {
	endpoint := def.Endpoint
	query := map[string]any{}

	for _, param := range def.Params {
		raw, present := args[param.Name]

		if !present || raw == nil {
			if param.Required || param.In == InPath {
				return "", nil, errs.InvalidArgument(def.Name, param.Name, "required")
			}

			if param.Default == nil {
				continue
			}

			raw = param.Default
		}

		val, err := coerce(param, raw)

		if err != nil {
			return "", nil, errs.InvalidArgument(def.Name, param.Name, err.Error())
		}

		if param.In == InPath {
			text := fmt.Sprint(val)

			if text == "" {
				return "", nil, errs.InvalidArgument(def.Name, param.Name, "must not be empty")
			}

			endpoint = strings.ReplaceAll(endpoint, "{"+param.Name+"}", url.PathEscape(text))
			continue
		}

		if text, ok := val.(string); ok && text == "" && !param.Required {
			continue
		}

		query[param.Name] = val
	}

	return endpoint, query, nil
}

/*
coerce converts a decoded JSON argument into the Go value the query encoder
expects for param's kind. Lists become one comma-joined string, the form
the Airflow API accepts for multi-value filters.
*/
func coerce(param Param, raw any) (any, error) {
	switch param.Kind {
	case String:
		switch v := raw.(type) {
		case string:
			return v, nil
		case json.Number:
			return v.String(), nil
		case float64, int, int64, bool:
			return fmt.Sprint(v), nil
		}
	case Integer:
		return toInteger(raw)
	case Number:
		return toNumber(raw)
	case Boolean:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			return strconv.ParseBool(v)
		}
	case StringList:
		return toList(raw)
	}

	return nil, fmt.Errorf("expected %s, got %T", param.Kind, raw)
}

func toInteger(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("expected integer, got %v", v)
		}

		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, fmt.Errorf("integer %v out of range", v)
		}

		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	}

	return 0, fmt.Errorf("expected integer, got %T", raw)
}

func toNumber(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}

	return 0, fmt.Errorf("expected number, got %T", raw)
}

func toList(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []string:
		return strings.Join(v, ","), nil
	case []any:
		items := make([]string, 0, len(v))

		for _, item := range v {
			text, ok := item.(string)

			if !ok {
				return "", fmt.Errorf("expected list of strings, found %T", item)
			}

			items = append(items, text)
		}

		return strings.Join(items, ","), nil
	}

	return "", fmt.Errorf("expected list of strings, got %T", raw)
}
