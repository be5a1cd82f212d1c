package notification

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalFormatsOneLine(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	term.Notify(Error("Login Failed", "No active account found with the given credentials"))
	term.Notify(Info("Item removed from cart", ""))

	assert.Equal(t,
		"✖ Login Failed: No active account found with the given credentials\n• Item removed from cart\n",
		buf.String())
}

func TestRecorder(t *testing.T) {
	var rec Recorder
	_, ok := rec.Last()
	assert.False(t, ok)

	Multi{&rec, Discard}.Notify(Success("Order placed", "#42"))

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, VariantSuccess, last.Variant)
	assert.NotEmpty(t, last.ID)
	assert.Equal(t, []string{"Order placed"}, rec.Titles())
}

func TestWebhookPostsJSON(t *testing.T) {
	got := make(chan Notification, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n Notification
		_ = json.NewDecoder(r.Body).Decode(&n)
		got <- n
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	NewWebhook(srv.URL).Notify(Warning("Low stock", "Kikoy Towel"))

	n := <-got
	assert.Equal(t, "Low stock", n.Title)
	assert.Equal(t, VariantWarning, n.Variant)
}

func TestWebhookFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL)
	assert.Error(t, w.send(Info("x", "")))
	assert.NotPanics(t, func() { w.Notify(Info("x", "")) })
}
