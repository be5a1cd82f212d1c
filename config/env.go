package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAPIBaseURL    = "http://127.0.0.1:8000"
	defaultAuthScheme    = "Bearer"
	defaultStateDriver   = "local"
	defaultStateDBDriver = "sqlite"
	defaultRedisAddr     = "localhost:6379"
	defaultMongoDatabase = "nexus"
	defaultAppEnv        = "local"
	defaultAppKey        = "change-me-in-production"
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load merges, in order of precedence (lowest first): built-in defaults,
// config/app.json, $NEXUS_HOME/config.yaml, .env and the process environment.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles(
			"config/app.json",
			filepath.Join(Home(), "config.yaml"),
			".env",
		)
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_ENV":         defaultAppEnv,
		"APP_KEY":         defaultAppKey,
		"LOG_LEVEL":       "",
		"API_BASE_URL":    defaultAPIBaseURL,
		"AUTH_SCHEME":     defaultAuthScheme,
		"HTTP_TIMEOUT":    "",
		"STATE_DRIVER":    defaultStateDriver,
		"STATE_DB_DRIVER": defaultStateDBDriver,
		"STATE_DSN":       "",
		"REDIS_ADDR":      defaultRedisAddr,
		"REDIS_PASSWORD":  "",
		"S3_BUCKET":       "",
		"S3_REGION":       "us-east-1",
		"S3_KEY":          "",
		"S3_SECRET":       "",
		"S3_ENDPOINT":     "",
		"S3_PREFIX":       "nexus/",
		"MONGO_URI":       "",
		"MONGO_DATABASE":  defaultMongoDatabase,
		"NOTIFY_WEBHOOK":  "",
	}
}

// Home is the per-user state directory. NEXUS_HOME wins over ~/.nexus.
func Home() string {
	if dir := strings.TrimSpace(os.Getenv("NEXUS_HOME")); dir != "" {
		return dir
	}
	if dir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(dir, ".nexus")
	}
	return ".nexus"
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

// IsProduction reports whether APP_ENV names a production deployment.
func IsProduction() bool {
	switch strings.ToLower(AppEnv()) {
	case "production", "prod":
		return true
	}
	return false
}

func LogLevel() string {
	_ = Load()
	if IsProduction() {
		return get("LOG_LEVEL", "info")
	}
	return get("LOG_LEVEL", "warn")
}

// AppKey is the secret the sealed state store derives its encryption key from.
func AppKey() string {
	_ = Load()
	return get("APP_KEY", defaultAppKey)
}

// ── Backend ──────────────────────────────────────────────────────────────────

func APIBaseURL() string {
	_ = Load()
	return strings.TrimRight(get("API_BASE_URL", defaultAPIBaseURL), "/")
}

func AuthScheme() string {
	_ = Load()
	return get("AUTH_SCHEME", defaultAuthScheme)
}

// HTTPTimeout returns the per-request timeout. Zero means none.
func HTTPTimeout() time.Duration {
	_ = Load()
	raw := get("HTTP_TIMEOUT", "")
	if raw == "" {
		return 0
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// ── State ────────────────────────────────────────────────────────────────────

func StateDriver() string {
	_ = Load()

	driver := strings.ToLower(get("STATE_DRIVER", defaultStateDriver))
	switch driver {
	case "memory", "local", "redis", "s3", "sql", "mongo":
		return driver
	default:
		return defaultStateDriver
	}
}

func StateDir() string {
	_ = Load()
	return get("STATE_DIR", filepath.Join(Home(), "state"))
}

func StateDBDriver() string {
	_ = Load()

	driver := strings.ToLower(get("STATE_DB_DRIVER", defaultStateDBDriver))
	switch driver {
	case "sqlite", "postgres", "mysql", "sqlserver":
		return driver
	default:
		return defaultStateDBDriver
	}
}

func StateDSN() string {
	_ = Load()
	if dsn := get("STATE_DSN", ""); dsn != "" {
		return dsn
	}
	return filepath.Join(Home(), "state.db")
}

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

func S3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func S3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func S3Key() string      { _ = Load(); return get("S3_KEY", "") }
func S3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func S3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }
func S3Prefix() string   { _ = Load(); return get("S3_PREFIX", "nexus/") }

func MongoURI() string      { _ = Load(); return get("MONGO_URI", "") }
func MongoDatabase() string { _ = Load(); return get("MONGO_DATABASE", defaultMongoDatabase) }

// NotifyWebhook is an optional URL every user notification is POSTed to.
func NotifyWebhook() string { _ = Load(); return get("NOTIFY_WEBHOOK", "") }

// ── Loading ──────────────────────────────────────────────────────────────────

func loadFromFiles(jsonPath, yamlPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(jsonPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeYAMLConfig(yamlPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mergeEnviron(loaded)

	mu.Lock()
	for k, v := range overrides {
		loaded[k] = v
	}
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	mergeRaw(raw, out)
	return nil
}

func mergeYAMLConfig(path string, out map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	mergeRaw(raw, out)
	return nil
}

// mergeRaw copies scalar values; nested maps and lists are ignored.
func mergeRaw(raw map[string]interface{}, out map[string]string) {
	for key, val := range raw {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		switch v := val.(type) {
		case string:
			out[k] = strings.TrimSpace(v)
		case bool, int, int64, float64:
			out[k] = fmt.Sprint(v)
		}
	}
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

// mergeEnviron lets process environment variables override every known key.
func mergeEnviron(out map[string]string) {
	keys := make([]string, 0, len(out)+1)
	for k := range out {
		keys = append(keys, k)
	}
	keys = append(keys, "STATE_DIR")

	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			out[k] = v
		}
	}
}

var overrides = map[string]string{}

// Set overrides a key for the rest of the process, e.g. from a CLI flag.
// Overrides survive a later Load.
func Set(key, value string) {
	k := strings.ToUpper(strings.TrimSpace(key))
	mu.Lock()
	defer mu.Unlock()
	overrides[k] = value
	values[k] = value
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// All returns a copy of the resolved configuration.
func All() map[string]string {
	_ = Load()
	mu.RLock()
	defer mu.RUnlock()

	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
