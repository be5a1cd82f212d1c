package http_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nxhttp "github.com/shashiranjanraj/nexus/pkg/http"
	"github.com/shashiranjanraj/nexus/pkg/metrics"
	"github.com/shashiranjanraj/nexus/pkg/testkit"
)

const base = "http://api.test"

func newClient(mt *testkit.MockTransport, opts ...nxhttp.Option) *nxhttp.Client {
	opts = append(opts, nxhttp.WithHTTPClient(mt.Client()))
	return nxhttp.New(base, opts...)
}

func TestBuildURL(t *testing.T) {
	cases := []struct {
		name, base, path string
		query            url.Values
		want             string
	}{
		{"adds leading and trailing slash", "http://h", "api/orders", nil, "http://h/api/orders/"},
		{"keeps trailing slash", "http://h/", "/api/orders/", nil, "http://h/api/orders/"},
		{"encodes query", "http://h", "/api/products", url.Values{"search": {"red shoes"}}, "http://h/api/products/?search=red+shoes"},
		{"path carrying a query string", "http://h", "/api/reviews?product=3", nil, "http://h/api/reviews?product=3"},
		{"appends to existing query", "http://h", "/api/reviews?product=3", url.Values{"page": {"2"}}, "http://h/api/reviews?product=3&page=2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, nxhttp.BuildURL(tc.base, tc.path, tc.query))
		})
	}
}

func TestQuerySkipsEmptyValues(t *testing.T) {
	c := nxhttp.New(base)
	var nilStr *string
	got := c.Get("/api/products").
		Query("search", "").
		Query("category", nil).
		Query("tag", nilStr).
		Query("page", 2).
		URL()
	assert.Equal(t, base+"/api/products/?page=2", got)
}

func TestSendsHeaders(t *testing.T) {
	mt := testkit.NewMockTransport().On("GET", "/api/orders/", testkit.JSON(200, `[]`))
	c := newClient(mt, nxhttp.WithTokenSource(nxhttp.TokenFunc(func() string { return "abc" })))

	_, err := c.Get("/api/orders").Send(context.Background())
	require.NoError(t, err)

	req, ok := mt.Last()
	require.True(t, ok)
	assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.NotEmpty(t, req.Header.Get("X-Request-ID"))
}

func TestAuthSchemeIsConfigurable(t *testing.T) {
	mt := testkit.NewMockTransport().On("GET", "/api/orders/", testkit.JSON(200, `[]`))
	c := newClient(mt,
		nxhttp.WithAuthScheme("JWT"),
		nxhttp.WithTokenSource(nxhttp.TokenFunc(func() string { return "abc" })),
	)

	_, err := c.Get("/api/orders/").Send(context.Background())
	require.NoError(t, err)
	req, _ := mt.Last()
	assert.Equal(t, "JWT abc", req.Header.Get("Authorization"))
}

func TestNoAuthorizationWithoutToken(t *testing.T) {
	mt := testkit.NewMockTransport().On("GET", "/api/orders/", testkit.JSON(200, `[]`))
	c := newClient(mt, nxhttp.WithTokenSource(nxhttp.TokenFunc(func() string { return "" })))

	_, err := c.Get("/api/orders").Send(context.Background())
	require.NoError(t, err)
	req, _ := mt.Last()
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestAnonymousSuppressesToken(t *testing.T) {
	mt := testkit.NewMockTransport().On("POST", "/api/auth/token/", testkit.JSON(200, `{"access":"a"}`))
	c := newClient(mt, nxhttp.WithTokenSource(nxhttp.TokenFunc(func() string { return "stale" })))

	_, err := c.Post("/api/auth/token/").Anonymous().Body(map[string]string{"username": "u"}).Send(context.Background())
	require.NoError(t, err)
	req, _ := mt.Last()
	assert.Empty(t, req.Header.Get("Authorization"))
	assert.JSONEq(t, `{"username":"u"}`, string(req.Body))
}

func TestNoContentIsEmptyObject(t *testing.T) {
	mt := testkit.NewMockTransport().On("DELETE", "/api/addresses/4/", testkit.MockResponse{Status: 204})
	c := newClient(mt)

	resp, err := c.Delete("/api/addresses/4").Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "{}", string(resp.Payload()))
}

func TestNonJSONSuccessIsEmptyObject(t *testing.T) {
	mt := testkit.NewMockTransport().On("GET", "/api/ping/", testkit.MockResponse{
		Status: 200, Body: "pong", ContentType: "text/plain",
	})
	c := newClient(mt)

	resp, err := c.Get("/api/ping").Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "{}", string(resp.Payload()))
	assert.Equal(t, "pong", resp.Text())
}

func TestNonJSONFailure(t *testing.T) {
	mt := testkit.NewMockTransport().On("GET", "/api/orders/", testkit.MockResponse{
		Status: 502, Body: "<html>Bad Gateway</html>", ContentType: "text/html",
	})
	c := newClient(mt)

	_, err := c.Get("/api/orders").Send(context.Background())
	var apiErr *nxhttp.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 502, apiErr.Status)
	assert.Equal(t, "Server Error: 502", apiErr.Message)
}

func TestErrorShapes(t *testing.T) {
	cases := []struct {
		name, body, message, code string
	}{
		{"detail", `{"detail":"No active account found with the given credentials"}`, "No active account found with the given credentials", ""},
		{"detail with code", `{"detail":"Token is invalid or expired","code":"token_not_valid"}`, "Token is invalid or expired", "token_not_valid"},
		{"error object", `{"error":{"code":"out_of_stock","message":"Lamp is out of stock"}}`, "Lamp is out of stock", "out_of_stock"},
		{"field errors", `{"username":["A user with that username already exists."],"email":["Enter a valid email address."]}`, "email: Enter a valid email address.", ""},
		{"non field errors", `{"non_field_errors":["Passwords do not match."]}`, "Passwords do not match.", ""},
		{"unknown", `{"foo":1}`, "API request failed", ""},
		{"invalid json", `{`, "API request failed", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mt := testkit.NewMockTransport().On("POST", "/api/x/", testkit.JSON(400, tc.body))
			_, err := newClient(mt).Post("/api/x").Send(context.Background())

			var apiErr *nxhttp.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, 400, apiErr.Status)
			assert.Equal(t, tc.message, apiErr.Message)
			assert.Equal(t, tc.code, apiErr.Code)
			assert.Equal(t, tc.message, err.Error())
		})
	}
}

func TestStatusHelpers(t *testing.T) {
	mt := testkit.NewMockTransport().
		On("GET", "/api/auth/users/me/", testkit.JSON(401, `{"detail":"Authentication credentials were not provided."}`)).
		On("GET", "/api/products/nope/", testkit.JSON(404, `{"detail":"Not found."}`))
	c := newClient(mt)

	_, err := c.Get("/api/auth/users/me/").Send(context.Background())
	assert.True(t, nxhttp.IsUnauthorized(err))
	assert.Equal(t, 401, nxhttp.StatusOf(err))

	_, err = c.Get("/api/products/nope/").Send(context.Background())
	assert.True(t, nxhttp.IsNotFound(err))
	assert.Equal(t, 0, nxhttp.StatusOf(errors.New("plain")))
}

func TestTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	mt := testkit.NewMockTransport().On("GET", "/api/orders/", testkit.MockResponse{Err: boom})

	_, err := newClient(mt).Get("/api/orders").Send(context.Background())
	var terr *nxhttp.TransportError
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "GET", terr.Method)
	assert.Equal(t, 0, nxhttp.StatusOf(err))
}

func TestEnvelopeUnwrap(t *testing.T) {
	assert.JSONEq(t, `[1,2]`, string(nxhttp.Unwrap([]byte(`{"count":2,"results":[1,2]}`))))
	assert.JSONEq(t, `{"a":1}`, string(nxhttp.Unwrap([]byte(`{"data":{"a":1}}`))))
	assert.JSONEq(t, `{"results":null,"x":1}`, string(nxhttp.Unwrap([]byte(`{"results":null,"x":1}`))))
	assert.JSONEq(t, `[3]`, string(nxhttp.Unwrap([]byte(`[3]`))))
}

func TestInto(t *testing.T) {
	mt := testkit.NewMockTransport().On("GET", "/api/categories/", testkit.JSON(200, `{"results":[{"name":"Lamps"}]}`))

	var out []struct{ Name string }
	require.NoError(t, newClient(mt).Get("/api/categories").Into(context.Background(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Lamps", out[0].Name)
}

func TestMultipart(t *testing.T) {
	mt := testkit.NewMockTransport().On("POST", "/api/products/", testkit.JSON(201, `{}`))

	_, err := newClient(mt).Post("/api/products/").
		Multipart(map[string]string{"name": "Lamp", "price": "1500"},
			nxhttp.File{Field: "image", Name: "lamp.png", Content: strings.NewReader("PNG")}).
		Send(context.Background())
	require.NoError(t, err)

	req, _ := mt.Last()
	ct := req.Header.Get("Content-Type")
	assert.True(t, strings.HasPrefix(ct, "multipart/form-data; boundary="), ct)
	body := string(req.Body)
	assert.Contains(t, body, `name="name"`)
	assert.Contains(t, body, "Lamp")
	assert.Contains(t, body, `filename="lamp.png"`)
	assert.Contains(t, body, "PNG")
}

func TestRawBodies(t *testing.T) {
	mt := testkit.NewMockTransport().On("POST", "/api/raw/", testkit.JSON(200, `{}`))
	c := newClient(mt)

	_, err := c.Post("/api/raw").Body("hello").Send(context.Background())
	require.NoError(t, err)
	req, _ := mt.Last()
	assert.Equal(t, "text/plain", req.Header.Get("Content-Type"))
	assert.Equal(t, "hello", string(req.Body))
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mt := testkit.NewMockTransport().On("GET", "/api/orders/", testkit.MockResponse{Err: context.Canceled})
	_, err := newClient(mt).Get("/api/orders").Send(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecordsMetrics(t *testing.T) {
	mt := testkit.NewMockTransport().On("GET", "/api/orders/77/", testkit.JSON(200, `{}`))
	counter := metrics.RequestTotal.WithLabelValues("GET", "/api/orders/:id/", "200")
	before := testutil.ToFloat64(counter)

	_, err := newClient(mt).Get("/api/orders/77").Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestUnmatchedRouteIs404(t *testing.T) {
	mt := testkit.NewMockTransport()
	_, err := newClient(mt).Get("/api/anything").Send(context.Background())
	assert.True(t, nxhttp.IsNotFound(err))
	assert.Len(t, mt.AssertAllCalled(), 0)

	mt.On("GET", "/never/", testkit.JSON(200, `{}`))
	assert.Len(t, mt.AssertAllCalled(), 1)
}
