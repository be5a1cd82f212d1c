package crypt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	box, err := NewBox("base64:test-app-key", "nexus/tokens")
	require.NoError(t, err)

	sealed, err := box.Seal([]byte("eyJhbGciOi.access"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "access")

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOi.access", string(plain))
}

func TestSealIsRandomized(t *testing.T) {
	box, err := NewBox("k", "p")
	require.NoError(t, err)
	a, _ := box.Seal([]byte("same"))
	b, _ := box.Seal([]byte("same"))
	assert.NotEqual(t, a, b)
}

func TestPurposeSeparatesKeys(t *testing.T) {
	tokens, _ := NewBox("k", "nexus/tokens")
	cart, _ := NewBox("k", "nexus/cart")

	sealed, err := tokens.Seal([]byte("secret"))
	require.NoError(t, err)
	_, err = cart.Open(sealed)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestOpenRejectsGarbage(t *testing.T) {
	box, _ := NewBox("k", "p")
	for _, in := range []string{"", "!!not-base64", "c2hvcnQ="} {
		_, err := box.Open([]byte(in))
		assert.ErrorIs(t, err, ErrDecrypt, "input %q", in)
	}
}

func TestNewBoxRequiresKey(t *testing.T) {
	_, err := NewBox("", "p")
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestHash(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Hash(""))
}
