// Package notification delivers the one-shot messages nexus shows the user
// after an operation: "Login Failed", "Item removed from cart", "Order
// placed". Every failure is reported once and never retried.
//
//	n := notification.NewTerminal(os.Stderr)
//	n.Notify(notification.Error("Login Failed", err.Error()))
//
// A webhook notifier can be added to forward the same messages to chat:
//
//	notification.Multi{n, notification.NewWebhook(url)}
package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/nexus/pkg/logger"
	"github.com/shashiranjanraj/nexus/pkg/metrics"
)

// Variant is the severity of a notification.
type Variant string

const (
	VariantSuccess Variant = "success"
	VariantError   Variant = "error"
	VariantWarning Variant = "warning"
	VariantInfo    Variant = "info"
)

// Notification is one message for the user.
type Notification struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Message string    `json:"message,omitempty"`
	Variant Variant   `json:"variant"`
	At      time.Time `json:"at"`
}

func newNotification(v Variant, title, message string) Notification {
	return Notification{
		ID:      uuid.NewString(),
		Title:   title,
		Message: message,
		Variant: v,
		At:      time.Now(),
	}
}

// Success builds a success notification.
func Success(title, message string) Notification {
	return newNotification(VariantSuccess, title, message)
}

// Error builds an error notification.
func Error(title, message string) Notification {
	return newNotification(VariantError, title, message)
}

// Warning builds a warning notification.
func Warning(title, message string) Notification {
	return newNotification(VariantWarning, title, message)
}

// Info builds an info notification.
func Info(title, message string) Notification {
	return newNotification(VariantInfo, title, message)
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// Discard drops every notification.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Notification) {}

// ------------------- Terminal -------------------

// Terminal writes one line per notification.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminal returns a Terminal writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

var symbols = map[Variant]string{
	VariantSuccess: "✔",
	VariantError:   "✖",
	VariantWarning: "!",
	VariantInfo:    "•",
}

func (t *Terminal) Notify(n Notification) {
	metrics.Notifications.WithLabelValues(string(n.Variant)).Inc()

	t.mu.Lock()
	defer t.mu.Unlock()
	line := fmt.Sprintf("%s %s", symbols[n.Variant], n.Title)
	if n.Message != "" {
		line += ": " + n.Message
	}
	fmt.Fprintln(t.w, line)
}

// ------------------- Recorder -------------------

// Recorder keeps every notification in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.sent = append(r.sent, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Notification{}, false
	}
	return r.sent[len(r.sent)-1], true
}

// Titles returns the recorded titles in order.
func (r *Recorder) Titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sent))
	for i, n := range r.sent {
		out[i] = n.Title
	}
	return out
}

// ------------------- Multi -------------------

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, nt := range m {
		nt.Notify(n)
	}
}

// ------------------- Webhook -------------------

// Webhook POSTs each notification as JSON to a URL. Delivery failures are
// logged and dropped.
type Webhook struct {
	URL    string
	Client *http.Client
}

// NewWebhook returns a Webhook with a 5s timeout.
func NewWebhook(url string) *Webhook {
	return &Webhook{URL: url, Client: &http.Client{Timeout: 5 * time.Second}}
}

func (w *Webhook) Notify(n Notification) {
	if err := w.send(n); err != nil {
		logger.Warn("notification: webhook delivery failed", "id", n.ID, "error", err)
	}
}

func (w *Webhook) send(n Notification) error {
	if w.URL == "" {
		return fmt.Errorf("notification: webhook URL is empty")
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notification: webhook marshal: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, w.URL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("notification: webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("notification: webhook send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification: webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
