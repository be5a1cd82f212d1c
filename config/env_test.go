package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFilesPrecedence(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeFile(t, dir, "app.json", `{"api_base_url": "http://json.local", "auth_scheme": "JWT", "nested": {"x": 1}}`)
	yamlPath := writeFile(t, dir, "config.yaml", "api_base_url: http://yaml.local/\nhttp_timeout: 5\n")
	envPath := writeFile(t, dir, ".env", "# comment\nSTATE_DRIVER=\"redis\"\nREDIS_ADDR=cache:6379\n")

	t.Setenv("REDIS_ADDR", "env:6380")
	t.Setenv("API_BASE_URL", "")
	t.Setenv("AUTH_SCHEME", "")
	t.Setenv("STATE_DRIVER", "")

	require.NoError(t, loadFromFiles(jsonPath, yamlPath, envPath))

	assert.Equal(t, "http://yaml.local/", get("API_BASE_URL", ""))
	assert.Equal(t, "5", get("HTTP_TIMEOUT", ""))
	assert.Equal(t, "JWT", get("AUTH_SCHEME", ""))
	assert.Equal(t, "redis", get("STATE_DRIVER", ""))
	assert.Equal(t, "env:6380", get("REDIS_ADDR", ""))
	assert.Equal(t, "", get("NESTED", ""))
}

func TestLoadFromFilesMissingFilesUseDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, loadFromFiles(
		filepath.Join(dir, "nope.json"),
		filepath.Join(dir, "nope.yaml"),
		filepath.Join(dir, "nope.env"),
	))

	assert.Equal(t, defaultAuthScheme, get("AUTH_SCHEME", ""))
	assert.Equal(t, defaultStateDriver, get("STATE_DRIVER", ""))
}

func TestLoadFromFilesRejectsBrokenJSON(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeFile(t, dir, "app.json", `{broken`)

	err := loadFromFiles(jsonPath, filepath.Join(dir, "x.yaml"), filepath.Join(dir, "x.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestSetOverridesSurviveReload(t *testing.T) {
	dir := t.TempDir()
	Set("API_BASE_URL", "http://flag.local")
	t.Cleanup(func() {
		mu.Lock()
		delete(overrides, "API_BASE_URL")
		mu.Unlock()
	})

	require.NoError(t, loadFromFiles(
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "c.env"),
	))
	assert.Equal(t, "http://flag.local", get("API_BASE_URL", ""))
}

func TestHTTPTimeoutParsing(t *testing.T) {
	cases := map[string]time.Duration{
		"":      0,
		"15":    15 * time.Second,
		"250ms": 250 * time.Millisecond,
		"-3":    0,
		"bogus": 0,
	}
	for raw, want := range cases {
		Set("HTTP_TIMEOUT", raw)
		assert.Equal(t, want, HTTPTimeout(), "raw=%q", raw)
	}
	mu.Lock()
	delete(overrides, "HTTP_TIMEOUT")
	values["HTTP_TIMEOUT"] = ""
	mu.Unlock()
}

func TestStateDriverFallsBackOnUnknown(t *testing.T) {
	Set("STATE_DRIVER", "floppy")
	t.Cleanup(func() {
		mu.Lock()
		delete(overrides, "STATE_DRIVER")
		values["STATE_DRIVER"] = defaultStateDriver
		mu.Unlock()
	})
	assert.Equal(t, defaultStateDriver, StateDriver())
}
