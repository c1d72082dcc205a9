/*
Package httpclient issues one HTTP request per call against a configured
base URL with merged default headers, a default timeout, optional Basic
auth, and a uniform failure taxonomy.
*/
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	errs "github.com/theapemachine/airflow-mcp/pkg/errors"
	"github.com/theapemachine/airflow-mcp/pkg/types"
)

const (
	DefaultTimeout = 30 * time.Second
	contentJSON    = "application/json"
	unreadableBody = "Unable to read response body"
)

/*
BasicAuth is the username/password pair sent with every request.
*/
type BasicAuth struct {
	Username string
	Password string
}

/*
Config is read once by New. SkipTLSVerify defaults to false, so certificates
are verified unless explicitly disabled. A zero Timeout means DefaultTimeout.
*/
type Config struct {
	BaseURL       string
	SkipTLSVerify bool
	Timeout       time.Duration
	Headers       map[string]string
	Auth          *BasicAuth
}

/*
Client is safe for concurrent use. It keeps no state besides its
configuration, and every call gets its own transport.
*/
type Client struct {
	baseURL string
	verify  bool
	timeout time.Duration
	headers http.Header
	auth    *BasicAuth
}

/*
Response is a completed 1xx-3xx exchange with the body fully read.
*/
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	URL        string
}

/*
New builds a Client from cfg. The config is copied, later changes to the
caller's maps do not leak into the client.
*/
func New(cfg Config) *Client {
	client := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		verify:  !cfg.SkipTLSVerify,
		timeout: cfg.Timeout,
		headers: http.Header{},
	}

	if client.timeout <= 0 {
		client.timeout = DefaultTimeout
	}

	client.headers.Set("Content-Type", contentJSON)
	client.headers.Set("Accept", contentJSON)

	for k, v := range cfg.Headers {
		client.headers.Set(k, v)
	}

	if cfg.Auth != nil {
		auth := *cfg.Auth
		client.auth = &auth
	}

	return client
}

func (client *Client) BaseURL() string { return client.baseURL }

func (client *Client) Timeout() time.Duration { return client.timeout }

/*
Headers returns a copy of the default header set.
*/
func (client *Client) Headers() http.Header { return client.headers.Clone() }

/*
URL builds the target of endpoint: absolute http(s) URLs are used verbatim,
anything else is joined to the base URL with exactly one slash.
*/
func (client *Client) URL(endpoint string) string {
	if isAbsolute(endpoint) || client.baseURL == "" {
		return endpoint
	}

	return client.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

/*
Request performs a single HTTP exchange. Statuses of 400 and above are
returned as HTTPStatusFailure, never as a Response. A Timeout failure reports
the earlier of the call timeout and the deadline left on ctx.
*/
func (client *Client) Request(
	ctx context.Context, endpoint string, opts ...RequestOption,
) (*Response, error) {
	call := newCall(client, opts)
	target := client.URL(endpoint)

	req, err := client.build(ctx, target, call)

	if err != nil {
		return nil, errs.RequestFailure(target, err)
	}

	started := time.Now()
	limit := effectiveTimeout(ctx, call.timeout, started)
	resp, err := client.transport(call.timeout).Do(req)

	if err != nil {
		log.Debug("http request failed", "method", req.Method, "url", target, "error", err)
		return nil, classify(target, limit, err)
	}

	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	log.Debug(
		"http request",
		"method", req.Method,
		"url", target,
		"status", resp.StatusCode,
		"duration", time.Since(started),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		text := string(body)

		if readErr != nil {
			text = unreadableBody
		}

		return nil, errs.HTTPStatusFailure(target, resp.StatusCode, text)
	}

	if readErr != nil {
		return nil, classify(target, limit, readErr)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		URL:        resp.Request.URL.String(),
	}, nil
}

/*
RequestJSON performs Request and decodes the body. A body that is not JSON
fails with Malformed, carrying the URL and the decoder position.
*/
func (client *Client) RequestJSON(
	ctx context.Context, endpoint string, opts ...RequestOption,
) (types.Value, error) {
	resp, err := client.Request(ctx, endpoint, opts...)

	if err != nil {
		return types.Value{}, err
	}

	return types.Parse(resp.URL, resp.Body)
}

func (client *Client) build(ctx context.Context, target string, call *callOptions) (*http.Request, error) {
	u, err := url.Parse(target)

	if err != nil {
		return nil, err
	}

	if len(call.params) > 0 {
		query := u.Query()

		for k, vs := range call.params {
			for _, v := range vs {
				query.Add(k, v)
			}
		}

		u.RawQuery = query.Encode()
	}

	body, err := encodeBody(call.body, call.headers.Get("Content-Type"))

	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, call.method, u.String(), body)

	if err != nil {
		return nil, err
	}

	req.Header = call.headers

	if client.auth != nil {
		req.SetBasicAuth(client.auth.Username, client.auth.Password)
	}

	for _, edit := range call.editors {
		edit(req)
	}

	return req, nil
}

/*
transport returns a fresh client for one call. Keep-alives are off so no
connection outlives the request.
*/
func (client *Client) transport(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			DisableKeepAlives: true,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: !client.verify,
			},
		},
	}
}

func encodeBody(body any, contentType string) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		return strings.NewReader(b), nil
	case []byte:
		return bytes.NewReader(b), nil
	case io.Reader:
		return b, nil
	}

	if isJSON(contentType) {
		buf, err := json.Marshal(body)

		if err != nil {
			return nil, fmt.Errorf("failed to encode JSON body: %w", err)
		}

		return bytes.NewReader(buf), nil
	}

	form, err := formValues(body)

	if err != nil {
		return nil, err
	}

	return strings.NewReader(form.Encode()), nil
}

func isJSON(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), contentJSON)
}

func formValues(body any) (url.Values, error) {
	switch b := body.(type) {
	case url.Values:
		return b, nil
	case map[string]string:
		form := url.Values{}

		for k, v := range b {
			form.Set(k, v)
		}

		return form, nil
	case map[string]any:
		return encodeParams(b), nil
	}

	return nil, fmt.Errorf("cannot form-encode body of type %T", body)
}

func effectiveTimeout(ctx context.Context, timeout time.Duration, now time.Time) time.Duration {
	deadline, ok := ctx.Deadline()

	if !ok {
		return timeout
	}

	if left := deadline.Sub(now).Round(time.Millisecond); left < timeout {
		return max(left, 0)
	}

	return timeout
}

/*
classify maps a transport error onto the failure taxonomy. TLS handshake and
certificate failures count as connection failures.
*/
func classify(target string, timeout time.Duration, err error) error {
	var netErr net.Error

	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return errs.Timeout(target, timeout, err)
	}

	if isConnectionError(err) || isTLSError(err) {
		return errs.ConnectionFailure(target, err)
	}

	return errs.RequestFailure(target, err)
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError

	return errors.As(err, &opErr) ||
		errors.As(err, &dnsErr) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

func isTLSError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	var headerErr tls.RecordHeaderError
	var authorityErr x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError

	return errors.As(err, &verifyErr) ||
		errors.As(err, &headerErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostErr) ||
		errors.As(err, &invalidErr)
}

func isAbsolute(endpoint string) bool {
	return strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
}
