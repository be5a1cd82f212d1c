// Package testkit holds the test doubles for the nexus backend: a scripted
// RoundTripper for unit tests of the transport, and a fake backend served
// over httptest for end-to-end tests of the stores and services.
package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// ─── MockTransport ────────────────────────────────────────────────────────────

// MockResponse is the canned answer for one route.
type MockResponse struct {
	Status      int
	Body        string
	ContentType string // defaults to application/json
	Err         error  // returned instead of a response: a transport failure
}

// RecordedRequest is what the transport saw.
type RecordedRequest struct {
	Method string
	URL    string
	Path   string
	Header http.Header
	Body   []byte
}

// MockTransport implements http.RoundTripper. It matches outgoing requests
// by method and path and returns canned responses instead of making real
// network calls.
//
//	mt := testkit.NewMockTransport().
//	    On("GET", "/api/orders/", testkit.JSON(200, `{"results": []}`))
//	c := http.New("http://api.test", http.WithHTTPClient(mt.Client()))
//	// ... run test ...
//	assert.Empty(t, mt.AssertAllCalled())
type MockTransport struct {
	mu       sync.Mutex
	routes   []mockRoute
	requests []RecordedRequest
}

type mockRoute struct {
	method    string
	path      string
	resp      MockResponse
	callCount int
}

// NewMockTransport returns a transport with no routes.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// JSON is shorthand for a JSON MockResponse.
func JSON(status int, body string) MockResponse {
	return MockResponse{Status: status, Body: body}
}

// On registers resp for method and path. A path ending in "*" matches by
// prefix. Later registrations for the same route win.
func (mt *MockTransport) On(method, path string, resp MockResponse) *MockTransport {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.routes = append([]mockRoute{{method: method, path: path, resp: resp}}, mt.routes...)
	return mt
}

// Client wraps the transport in an *http.Client.
func (mt *MockTransport) Client() *http.Client {
	return &http.Client{Transport: mt}
}

// RoundTrip intercepts the outgoing request and returns a synthetic response.
func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.requests = append(mt.requests, RecordedRequest{
		Method: req.Method,
		URL:    req.URL.String(),
		Path:   req.URL.Path,
		Header: req.Header.Clone(),
		Body:   body,
	})

	for i := range mt.routes {
		r := &mt.routes[i]
		if r.method != req.Method || !pathMatches(req.URL.Path, r.path) {
			continue
		}
		r.callCount++
		if r.resp.Err != nil {
			return nil, r.resp.Err
		}
		return buildHTTPResponse(req, r.resp), nil
	}

	return buildHTTPResponse(req, MockResponse{
		Status: http.StatusNotFound,
		Body:   `{"detail":"no mock configured"}`,
	}), nil
}

// Requests returns every request seen so far.
func (mt *MockTransport) Requests() []RecordedRequest {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]RecordedRequest(nil), mt.requests...)
}

// Last returns the most recent request.
func (mt *MockTransport) Last() (RecordedRequest, bool) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if len(mt.requests) == 0 {
		return RecordedRequest{}, false
	}
	return mt.requests[len(mt.requests)-1], true
}

// AssertAllCalled reports every route that was never hit.
func (mt *MockTransport) AssertAllCalled() []error {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	var errs []error
	for _, r := range mt.routes {
		if r.callCount == 0 {
			errs = append(errs, fmt.Errorf("testkit: mock %s %s was never called", r.method, r.path))
		}
	}
	return errs
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func pathMatches(candidate, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(candidate, prefix)
	}
	return candidate == pattern
}

func buildHTTPResponse(req *http.Request, r MockResponse) *http.Response {
	code := r.Status
	if code == 0 {
		code = http.StatusOK
	}
	ct := r.ContentType
	if ct == "" {
		ct = "application/json"
	}

	header := make(http.Header)
	header.Set("Content-Type", ct)

	return &http.Response{
		StatusCode:    code,
		Status:        fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader([]byte(r.Body))),
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
}
