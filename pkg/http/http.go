// Package http is the outbound transport for the nexus backend API.
//
// It centralizes everything every call needs: URL construction from the
// configured base URL, the Authorization header, request ids, envelope
// unwrapping and error normalization.
//
//	c := http.New("http://127.0.0.1:8000", http.WithTokenSource(sess))
//
//	resp, err := c.Get("/api/orders").Query("status", "pending").Send(ctx)
//	if err != nil {
//	    var apiErr *http.APIError
//	    if errors.As(err, &apiErr) { … }
//	}
//
//	var orders []models.Order
//	err = resp.JSON(&orders) // {"results": [...]} is unwrapped
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	gohttp "net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shashiranjanraj/nexus/pkg/logger"
	"github.com/shashiranjanraj/nexus/pkg/metrics"
	"github.com/shashiranjanraj/nexus/pkg/reqid"
)

// defaultTransport is the connection-pooled transport used in production.
var defaultTransport = &gohttp.Transport{
	Proxy:               gohttp.ProxyFromEnvironment,
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
}

// DefaultClient is the *http.Client a Client uses unless WithHTTPClient is given.
var DefaultClient = &gohttp.Client{
	Transport: defaultTransport,
}

// TokenSource supplies the credential for the Authorization header.
// An empty token means the request goes out anonymous.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a plain function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// ------------------- Client -------------------

// Client builds requests against one backend base URL.
type Client struct {
	baseURL string
	scheme  string
	tokens  TokenSource
	timeout time.Duration
	doer    *gohttp.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAuthScheme sets the Authorization scheme ("Bearer" by default).
func WithAuthScheme(scheme string) Option {
	return func(c *Client) {
		if s := strings.TrimSpace(scheme); s != "" {
			c.scheme = s
		}
	}
}

// WithTokenSource sets where the bearer credential comes from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithTimeout sets a per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient swaps the underlying *http.Client (tests inject transports here).
func WithHTTPClient(hc *gohttp.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.doer = hc
		}
	}
}

// New returns a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		scheme:  "Bearer",
		doer:    DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource replaces the token source after construction. The session
// store and the client reference each other, so one side is wired late.
func (c *Client) SetTokenSource(ts TokenSource) { c.tokens = ts }

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Get starts a GET request.
func (c *Client) Get(path string) *Request { return c.newRequest(gohttp.MethodGet, path) }

// Post starts a POST request.
func (c *Client) Post(path string) *Request { return c.newRequest(gohttp.MethodPost, path) }

// Put starts a PUT request.
func (c *Client) Put(path string) *Request { return c.newRequest(gohttp.MethodPut, path) }

// Patch starts a PATCH request.
func (c *Client) Patch(path string) *Request { return c.newRequest(gohttp.MethodPatch, path) }

// Delete starts a DELETE request.
func (c *Client) Delete(path string) *Request { return c.newRequest(gohttp.MethodDelete, path) }

func (c *Client) newRequest(method, path string) *Request {
	return &Request{
		client:  c,
		method:  method,
		path:    path,
		query:   url.Values{},
		headers: map[string]string{"Content-Type": "application/json", "Accept": "application/json"},
		timeout: c.timeout,
	}
}

// ------------------- Request -------------------

// Request is a fluent HTTP request builder.
type Request struct {
	client    *Client
	method    string
	path      string
	query     url.Values
	headers   map[string]string
	body      interface{}
	timeout   time.Duration
	anonymous bool
}

// Header adds a single header to the request.
func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

// Query appends a query parameter. Nil values and empty strings are skipped.
func (r *Request) Query(key string, value interface{}) *Request {
	if s, ok := queryValue(value); ok {
		r.query.Add(key, s)
	}
	return r
}

// Params appends every entry of params as query parameters.
func (r *Request) Params(params map[string]interface{}) *Request {
	for k, v := range params {
		r.Query(k, v)
	}
	return r
}

// Body sets the request body. v is marshalled to JSON automatically.
// Pass a string or []byte to send raw bodies.
func (r *Request) Body(v interface{}) *Request {
	r.body = v
	return r
}

// File is one file part of a multipart body.
type File struct {
	Field   string
	Name    string
	Content io.Reader
}

type multipartBody struct {
	fields map[string]string
	files  []File
}

// Multipart sends fields and files as multipart/form-data instead of JSON.
func (r *Request) Multipart(fields map[string]string, files ...File) *Request {
	r.body = &multipartBody{fields: fields, files: files}
	return r
}

// Timeout overrides the client timeout for this request.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Anonymous suppresses the Authorization header (login, register).
func (r *Request) Anonymous() *Request {
	r.anonymous = true
	return r
}

// URL returns the absolute URL the request will be sent to.
func (r *Request) URL() string {
	return BuildURL(r.client.baseURL, r.path, r.query)
}

// ------------------- Send -------------------

// Send executes the request once. Non-2xx responses come back as *APIError,
// network failures as *TransportError.
func (r *Request) Send(ctx context.Context) (*Response, error) {
	ctx = reqid.Ensure(ctx)
	log := logger.WithCtx(ctx)
	endpoint := endpointLabel(r.path)
	start := time.Now()

	resp, err := r.do(ctx)
	if err != nil {
		metrics.ObserveRequest(r.method, endpoint, 0, start)
		log.Warn("http: request failed", "method", r.method, "endpoint", endpoint, "error", err)
		return nil, err
	}
	metrics.ObserveRequest(r.method, endpoint, resp.StatusCode, start)
	log.Debug("http: response", "method", r.method, "endpoint", endpoint,
		"status", resp.StatusCode, "duration", time.Since(start))

	if err := resp.Throw(); err != nil {
		return nil, err
	}
	return resp, nil
}

// Into sends the request and decodes the unwrapped payload into dest.
func (r *Request) Into(ctx context.Context, dest interface{}) error {
	resp, err := r.Send(ctx)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	return resp.JSON(dest)
}

func (r *Request) do(ctx context.Context) (*Response, error) {
	body, ct, err := r.buildBody()
	if err != nil {
		return nil, err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	target := r.URL()
	req, err := gohttp.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	req.Header.Set(reqid.Header, reqid.FromCtx(ctx))

	if !r.anonymous && r.client.tokens != nil {
		if token := r.client.tokens.Token(); token != "" {
			req.Header.Set("Authorization", r.client.scheme+" "+token)
		}
	}

	resp, err := r.client.doer.Do(req)
	if err != nil {
		return nil, &TransportError{Method: r.method, URL: target, Err: err}
	}

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, &TransportError{Method: r.method, URL: target, Err: fmt.Errorf("read body: %w", err)}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Raw:        raw,
	}, nil
}

func (r *Request) buildBody() (io.Reader, string, error) {
	if r.body == nil {
		return nil, "", nil
	}
	switch v := r.body.(type) {
	case *multipartBody:
		return v.encode()
	case string:
		return bytes.NewBufferString(v), "text/plain", nil
	case []byte:
		return bytes.NewReader(v), "application/octet-stream", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("http: marshal body: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	}
}

func (m *multipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(m.fields))
	for k := range m.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, m.fields[k]); err != nil {
			return nil, "", fmt.Errorf("http: multipart field %s: %w", k, err)
		}
	}
	for _, f := range m.files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return nil, "", fmt.Errorf("http: multipart file %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("http: multipart file %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("http: multipart close: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// ------------------- Response -------------------

// Response wraps the HTTP response with convenience methods.
type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsJSON reports whether the server declared a JSON content type.
func (r *Response) IsJSON() bool {
	mt, _, err := mime.ParseMediaType(r.Headers.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// Empty reports whether the response carries no JSON document: a 204, an
// empty body or a non-JSON content type.
func (r *Response) Empty() bool {
	return r.StatusCode == gohttp.StatusNoContent || len(bytes.TrimSpace(r.Raw)) == 0 || !r.IsJSON()
}

// Payload returns the body with any results/data envelope removed.
// An Empty response yields "{}".
func (r *Response) Payload() []byte {
	if r.Empty() {
		return []byte("{}")
	}
	return Unwrap(r.Raw)
}

// JSON unmarshals the unwrapped payload into dest.
func (r *Response) JSON(dest interface{}) error {
	if err := json.Unmarshal(r.Payload(), dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

// Text returns the response body as a string.
func (r *Response) Text() string {
	return string(r.Raw)
}

// Header returns a single response header value.
func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

// Throw returns an *APIError if the response status is not 2xx.
func (r *Response) Throw() error {
	if r.OK() {
		return nil
	}
	return newAPIError(r)
}

// ------------------- Helpers -------------------

// BuildURL joins base and path, forces a leading slash, appends a trailing
// slash when the path carries no query string, and encodes query.
func BuildURL(base, path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.Contains(path, "?") && !strings.HasSuffix(path, "/") {
		path += "/"
	}

	full := strings.TrimRight(base, "/") + path
	if len(query) == 0 {
		return full
	}
	sep := "?"
	if strings.Contains(full, "?") {
		sep = "&"
	}
	return full + sep + query.Encode()
}

// Unwrap strips a {"results": …} or {"data": …} envelope from raw JSON.
// Anything else is returned untouched.
func Unwrap(raw []byte) []byte {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return raw
	}
	for _, key := range []string{"results", "data"} {
		if inner, ok := envelope[key]; ok && !isNull(inner) {
			return inner
		}
	}
	return raw
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func queryValue(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case *string:
		if val == nil || *val == "" {
			return "", false
		}
		return *val, true
	case fmt.Stringer:
		s := val.String()
		return s, s != ""
	default:
		return fmt.Sprint(val), true
	}
}

// endpointLabel collapses numeric path segments so metric cardinality stays bounded.
func endpointLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if p != "" && strings.Trim(p, "0123456789") == "" {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/") + "/"
}
