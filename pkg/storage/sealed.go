package storage

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/nexus/pkg/crypt"
)

// Sealed encrypts the values of selected keys before they reach the inner
// store. Other keys pass through untouched.
type Sealed struct {
	Store
	box  *crypt.Box
	keys map[string]bool
}

// Seal wraps s so that values under keys are encrypted with box. With no
// keys, every value is encrypted.
func Seal(s Store, box *crypt.Box, keys ...string) *Sealed {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return &Sealed{Store: s, box: box, keys: set}
}

func (s *Sealed) sealed(key string) bool {
	return len(s.keys) == 0 || s.keys[key]
}

// Get decrypts the stored value. A value that fails to decrypt, e.g. after
// APP_KEY changed, is reported with crypt.ErrDecrypt.
func (s *Sealed) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.Store.Get(ctx, key)
	if err != nil || !s.sealed(key) {
		return raw, err
	}
	plain, err := s.box.Open(raw)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", key, err)
	}
	return plain, nil
}

func (s *Sealed) Put(ctx context.Context, key string, value []byte) error {
	if !s.sealed(key) {
		return s.Store.Put(ctx, key, value)
	}
	enc, err := s.box.Seal(value)
	if err != nil {
		return fmt.Errorf("storage: seal %s: %w", key, err)
	}
	return s.Store.Put(ctx, key, enc)
}
