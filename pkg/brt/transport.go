package brt

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agservizi/carrierbridge/internal/telemetry"
)

// defaultTimeout applies when no usable timeout is configured.
const defaultTimeout = 30 * time.Second

// Request describes one carrier HTTP call. Body may be nil (no body), a
// string (sent verbatim), or any JSON-serializable value.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

// Result is the uniform outcome of a carrier round trip. Body holds the
// opportunistically JSON-decoded payload: an object, an array, the raw
// string when decoding failed, or nil on an empty body. The HTTP status is
// data here, not an error; callers interpret it.
type Result struct {
	StatusCode int
	Body       any
	RawBody    string
	Header     http.Header
}

// OK reports a 2xx status.
func (r *Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// BodyObject returns the decoded body as an object, when it is one.
func (r *Result) BodyObject() (map[string]any, bool) {
	obj, ok := r.Body.(map[string]any)
	return obj, ok
}

// BodyArray returns the decoded body as an array, when it is one.
func (r *Result) BodyArray() ([]any, bool) {
	arr, ok := r.Body.([]any)
	return arr, ok
}

// Transport executes carrier requests. Implementations must be safe for
// concurrent use; domain services share one instance across calls.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Result, error)
}

// HTTPTransportConfig configures an HTTPTransport.
type HTTPTransportConfig struct {
	// BaseURL is prepended to every request path.
	BaseURL string
	// API names the sub-API ("rest", "orm", "pudo", "tracking") for metrics.
	API string
	// Header holds default headers merged into every request. Per-request
	// headers win on conflict.
	Header http.Header
	// Timeout bounds each round trip. Values <= 0 fall back to 30s.
	Timeout time.Duration
	// CABundlePath optionally pins a custom CA bundle for TLS verification.
	CABundlePath string
	// Metrics, when set, records request counters and durations.
	Metrics *telemetry.Metrics
}

// HTTPTransport is the production Transport: it builds URLs, merges
// headers, serializes and deserializes JSON bodies, and returns the HTTP
// status as data. It carries no business knowledge and never retries.
type HTTPTransport struct {
	baseURL string
	api     string
	header  http.Header
	client  *http.Client
	metrics *telemetry.Metrics
}

// NewHTTPTransport creates a transport for one carrier sub-API.
func NewHTTPTransport(cfg HTTPTransportConfig) (*HTTPTransport, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &http.Client{Timeout: timeout}
	if cfg.CABundlePath != "" {
		pem, err := os.ReadFile(cfg.CABundlePath)
		if err != nil {
			return nil, fmt.Errorf("reading CA bundle %s: %w", cfg.CABundlePath, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("CA bundle %s contains no usable certificates", cfg.CABundlePath)
		}
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool},
		}
	}

	header := http.Header{}
	for k, vs := range cfg.Header {
		for _, v := range vs {
			header.Add(k, v)
		}
	}

	return &HTTPTransport{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		api:     cfg.API,
		header:  header,
		client:  client,
		metrics: cfg.Metrics,
	}, nil
}

// Send executes one request. It fails with TransportError only when the
// request cannot be built or executed; any HTTP status comes back in the
// Result for the caller to interpret.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Result, error) {
	op := req.Method + " " + req.Path

	target := t.baseURL + normalizePath(req.Path)
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	bodyReader, hasBody, err := encodeBody(req.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, &TransportError{Op: op, Cause: err}
	}

	for k, vs := range t.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if hasBody && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json, text/plain, */*")
	}

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		if t.metrics != nil {
			t.metrics.RecordError(t.api, "transport")
		}
		return nil, &TransportError{Op: op, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if t.metrics != nil {
			t.metrics.RecordError(t.api, "transport")
		}
		return nil, &TransportError{Op: op, Cause: err}
	}

	if t.metrics != nil {
		t.metrics.RecordRequest(t.api, req.Method, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Body:       decodeBody(raw),
		RawBody:    string(raw),
		Header:     resp.Header,
	}, nil
}

// encodeBody turns the request body into a reader. Strings pass through
// verbatim, everything else is JSON-serialized.
func encodeBody(body any) (io.Reader, bool, error) {
	switch b := body.(type) {
	case nil:
		return nil, false, nil
	case string:
		return strings.NewReader(b), true, nil
	case []byte:
		return bytes.NewReader(b), true, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, false, fmt.Errorf("serializing request body: %w", err)
		}
		return bytes.NewReader(data), true, nil
	}
}

// decodeBody attempts a JSON decode of the trimmed raw body. An empty body
// decodes to nil and a malformed one degrades to the raw string; this never
// fails.
func decodeBody(raw []byte) any {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil
	}
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return string(raw)
	}
	return normalizeNumbers(v)
}

// normalizeNumbers rewrites json.Number leaves to float64 so that callers
// can type-switch on a single numeric shape.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, item := range t {
			t[k] = normalizeNumbers(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = normalizeNumbers(item)
		}
		return t
	default:
		return v
	}
}

// normalizePath ensures the path starts with a single slash.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
