package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/nexus/pkg/crypt"
)

// exercise runs the behaviour every driver must share.
func exercise(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	_, err := st.Get(ctx, KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Put(ctx, KeyCart, []byte(`[{"id":"A","quantity":1}]`)))
	got, err := st.Get(ctx, KeyCart)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"A","quantity":1}]`, string(got))

	require.NoError(t, st.Put(ctx, KeyCart, []byte(`[]`)))
	got, err = st.Get(ctx, KeyCart)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	require.NoError(t, st.Delete(ctx, KeyCart))
	_, err = st.Get(ctx, KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, st.Delete(ctx, KeyCart), "deleting a missing key is not an error")
	assert.Error(t, st.Put(ctx, "../escape", []byte("x")))
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestLocal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	exercise(t, NewLocal(dir))
}

func TestLocalFilesArePrivate(t *testing.T) {
	dir := t.TempDir()
	st := NewLocal(dir)
	require.NoError(t, st.Put(context.Background(), KeyAccessToken, []byte("t")))

	info, err := filepathStat(filepath.Join(dir, KeyAccessToken+".json"))
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	st, err := NewRedis(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	defer st.Close()

	exercise(t, st)

	require.NoError(t, st.Put(context.Background(), KeyCart, []byte("[]")))
	assert.True(t, mr.Exists("nexus:cart"))
}

func TestRedisUnreachable(t *testing.T) {
	_, err := NewRedis(context.Background(), "127.0.0.1:1", "")
	assert.Error(t, err)
}

func TestSQLite(t *testing.T) {
	st, err := NewSQL("sqlite", filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer st.Close()
	exercise(t, st)
}

// fakeS3 answers the three object calls the driver makes, path-style.
func fakeS3(t *testing.T) *httptest.Server {
	var mu sync.Mutex
	objects := map[string][]byte{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		key := strings.TrimPrefix(r.URL.Path, "/")
		switch r.Method {
		case http.MethodPut:
			b, _ := io.ReadAll(r.Body)
			objects[key] = b
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			b, ok := objects[key]
			if !ok {
				w.Header().Set("Content-Type", "application/xml")
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
				return
			}
			_, _ = w.Write(b)
		case http.MethodDelete:
			delete(objects, key)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestS3(t *testing.T) {
	srv := fakeS3(t)
	st, err := NewS3(context.Background(), S3Options{
		Bucket:   "shop",
		Region:   "us-east-1",
		Key:      "test",
		Secret:   "test",
		Endpoint: srv.URL,
		Prefix:   "nexus/",
	})
	require.NoError(t, err)
	exercise(t, st)
}

func TestS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Options{})
	assert.Error(t, err)
}

func TestSealedEncryptsTokensOnly(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	box, err := crypt.NewBox("k", TokenPurpose)
	require.NoError(t, err)
	st := Seal(inner, box, KeyAccessToken, KeyRefreshToken)

	require.NoError(t, st.Put(ctx, KeyAccessToken, []byte("eyJ.access")))
	require.NoError(t, st.Put(ctx, KeyCart, []byte("[]")))

	raw, _ := inner.Get(ctx, KeyAccessToken)
	assert.NotContains(t, string(raw), "access")
	raw, _ = inner.Get(ctx, KeyCart)
	assert.Equal(t, "[]", string(raw))

	got, err := st.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "eyJ.access", string(got))
}

func TestSealedWrongKey(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	a, _ := crypt.NewBox("old", TokenPurpose)
	b, _ := crypt.NewBox("new", TokenPurpose)

	require.NoError(t, Seal(inner, a).Put(ctx, KeyRefreshToken, []byte("r")))
	_, err := Seal(inner, b).Get(ctx, KeyRefreshToken)
	assert.ErrorIs(t, err, crypt.ErrDecrypt)
}

func TestSealedPassesNotFound(t *testing.T) {
	box, _ := crypt.NewBox("k", TokenPurpose)
	_, err := Seal(NewMemory(), box).Get(context.Background(), KeyAccessToken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpenDriverUnknown(t *testing.T) {
	_, err := OpenDriver(context.Background(), "etcd")
	assert.Error(t, err)
}

func TestOpenDriverMemory(t *testing.T) {
	st, err := OpenDriver(context.Background(), "memory")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, st)
}
