// Package storage is the key/value state store nexus persists the cart and
// the session tokens in. It stands in for browser local storage: small
// values under a handful of fixed keys, read once at start-up and written
// on every change.
//
// Six drivers are available, picked by STATE_DRIVER:
//   - "local"  files under STATE_DIR (default)
//   - "memory" process memory, nothing survives exit
//   - "redis"  one key per value under a "nexus:" prefix
//   - "s3"     one object per value under S3_PREFIX
//   - "sql"    a nexus_state table (sqlite, postgres, mysql, sqlserver)
//   - "mongo"  a state collection
//
// Quick start:
//
//	st, err := storage.Open(ctx)
//	defer st.Close()
//
//	_ = st.Put(ctx, storage.KeyCart, raw)
//	raw, err := st.Get(ctx, storage.KeyCart) // storage.ErrNotFound when absent
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Fixed keys. There is no schema versioning behind them.
const (
	KeyCart         = "cart"
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Store is implemented by every driver. Delete of a missing key is not an
// error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

var keyRE = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// checkKey keeps keys usable as file names and object keys.
func checkKey(key string) error {
	if !keyRE.MatchString(key) {
		return fmt.Errorf("storage: invalid key %q", key)
	}
	return nil
}
