package httpclient

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// RequestOption customises a single call.
type RequestOption func(*callOptions)

type callOptions struct {
	method  string
	body    any
	headers http.Header
	params  url.Values
	timeout time.Duration
	editors []func(*http.Request)
}

func newCall(client *Client, opts []RequestOption) *callOptions {
	call := &callOptions{
		method:  http.MethodGet,
		headers: client.headers.Clone(),
		params:  url.Values{},
		timeout: client.timeout,
	}

	for _, opt := range opts {
		opt(call)
	}

	return call
}

func WithMethod(method string) RequestOption {
	return func(call *callOptions) {
		call.method = strings.ToUpper(method)
	}
}

/*
WithBody sets the request body. Strings and byte slices are sent as they
are. Other values are JSON encoded while the effective Content-Type is
application/json, and form encoded otherwise.
*/
func WithBody(body any) RequestOption {
	return func(call *callOptions) {
		call.body = body
	}
}

/*
WithHeaders overrides default headers for this call only.
*/
func WithHeaders(headers map[string]string) RequestOption {
	return func(call *callOptions) {
		for k, v := range headers {
			call.headers.Set(k, v)
		}
	}
}

/*
WithParams adds query parameters. Slices become repeated keys, booleans
are lower-case, and nil values are skipped.
*/
func WithParams(params map[string]any) RequestOption {
	return func(call *callOptions) {
		for k, vs := range encodeParams(params) {
			for _, v := range vs {
				call.params.Add(k, v)
			}
		}
	}
}

// WithTimeout overrides the default timeout for this call. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) RequestOption {
	return func(call *callOptions) {
		if timeout > 0 {
			call.timeout = timeout
		}
	}
}

/*
WithRequestEditor gives the caller the built *http.Request right before it
is sent, for transport options this package does not model.
*/
func WithRequestEditor(edit func(*http.Request)) RequestOption {
	return func(call *callOptions) {
		call.editors = append(call.editors, edit)
	}
}

func encodeParams(params map[string]any) url.Values {
	values := url.Values{}
	keys := make([]string, 0, len(params))

	for k := range params {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		switch v := params[k].(type) {
		case nil:
		case []string:
			for _, item := range v {
				values.Add(k, item)
			}
		case []any:
			for _, item := range v {
				values.Add(k, formatParam(item))
			}
		default:
			values.Add(k, formatParam(v))
		}
	}

	return values
}

func formatParam(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	}

	return fmt.Sprint(v)
}
