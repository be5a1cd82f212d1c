package testkit_test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/nexus/pkg/auth"
	"github.com/shashiranjanraj/nexus/pkg/testkit"
)

func do(t *testing.T, method, url, token, body string) (int, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestBackendIssuesInspectableTokens(t *testing.T) {
	be := testkit.NewBackend(t)
	be.AddUser("amina", "Secret123", false)

	pair := be.IssueTokens("amina")
	claims, err := auth.Inspect(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "access", claims.TokenType)
	assert.WithinDuration(t, time.Now().Add(be.AccessTTL), claims.ExpiresAt(), 5*time.Second)

	expired, err := auth.Expired(be.IssueExpired("amina"), time.Now())
	require.NoError(t, err)
	assert.True(t, expired)
}

func TestBackendAuthenticates(t *testing.T) {
	be := testkit.NewBackend(t)
	be.AddUser("amina", "Secret123", false)

	status, body := do(t, "GET", be.URL()+"/api/auth/users/me/", "", "")
	assert.Equal(t, 401, status)
	assert.Equal(t, "Authentication credentials were not provided.", body["detail"])

	status, _ = do(t, "GET", be.URL()+"/api/auth/users/me/", be.IssueExpired("amina"), "")
	assert.Equal(t, 401, status)

	status, body = do(t, "GET", be.URL()+"/api/auth/users/me/", be.IssueTokens("amina").Access, "")
	assert.Equal(t, 200, status)
	assert.Equal(t, "amina", body["username"])
}

func TestBackendFailureInjection(t *testing.T) {
	be := testkit.NewBackend(t)
	be.Fail("GET", "/api/categories/", testkit.JSON(503, `{"detail":"down"}`))

	status, body := do(t, "GET", be.URL()+"/api/categories/", "", "")
	assert.Equal(t, 503, status)
	assert.Equal(t, "down", body["detail"])

	be.Recover("GET", "/api/categories/")
	status, _ = do(t, "GET", be.URL()+"/api/categories/", "", "")
	assert.Equal(t, 200, status)

	reqs := be.Requests()
	assert.Len(t, reqs, 2)
}

func TestBackendListsUsePageEnvelope(t *testing.T) {
	be := testkit.NewBackend(t)
	status, body := do(t, "GET", be.URL()+"/api/products/", "", "")
	assert.Equal(t, 200, status)
	assert.Equal(t, float64(0), body["count"])
	assert.Equal(t, []interface{}{}, body["results"])
}
