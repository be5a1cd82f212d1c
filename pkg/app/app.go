// Package app assembles a nexus process: configuration, the state store,
// the API client, the session and cart stores, the notifier and the
// services built on them.
//
//	a, err := app.New(ctx)
//	if err != nil { … }
//	defer a.Close()
//	a.Boot(ctx) // restores a stored login
//
//	order, err := a.Checkout.PlaceOrder(ctx, form)
//
// Nothing here is global; tests build as many independent App values as
// they need, each with its own state store and backend.
package app

import (
	"context"
	"fmt"
	gohttp "net/http"
	"os"

	"github.com/shashiranjanraj/nexus/app/services"
	"github.com/shashiranjanraj/nexus/config"
	"github.com/shashiranjanraj/nexus/pkg/api"
	"github.com/shashiranjanraj/nexus/pkg/cart"
	nxhttp "github.com/shashiranjanraj/nexus/pkg/http"
	"github.com/shashiranjanraj/nexus/pkg/logger"
	"github.com/shashiranjanraj/nexus/pkg/notification"
	"github.com/shashiranjanraj/nexus/pkg/session"
	"github.com/shashiranjanraj/nexus/pkg/storage"
)

// ─── Options ──────────────────────────────────────────────────────────────────

type options struct {
	baseURL    string
	scheme     string
	state      storage.Store
	notifier   notification.Notifier
	httpClient *gohttp.Client
}

// Option overrides a configured dependency.
type Option func(*options)

// WithBaseURL points the client at another backend.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithAuthScheme overrides AUTH_SCHEME.
func WithAuthScheme(scheme string) Option {
	return func(o *options) { o.scheme = scheme }
}

// WithState uses st instead of opening the configured driver. The App
// still closes it.
func WithState(st storage.Store) Option {
	return func(o *options) { o.state = st }
}

// WithNotifier replaces the terminal notifier.
func WithNotifier(n notification.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithHTTPClient swaps the underlying *http.Client.
func WithHTTPClient(hc *gohttp.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// ─── Application ──────────────────────────────────────────────────────────────

// App owns every long-lived object of one process.
type App struct {
	State    storage.Store
	HTTP     *nxhttp.Client
	API      *api.Client
	Session  *session.Store
	Cart     *cart.Store
	Notifier notification.Notifier

	Catalog  *services.CatalogService
	Checkout *services.CheckoutService
	Account  *services.AccountService
	Admin    *services.AdminService
}

// New builds the App. It opens the state store and loads the cart but
// makes no backend call; Boot does that.
func New(ctx context.Context, opts ...Option) (*App, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("app: load config: %w", err)
	}

	o := options{
		baseURL: config.APIBaseURL(),
		scheme:  config.AuthScheme(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.state == nil {
		st, err := storage.Open(ctx)
		if err != nil {
			return nil, fmt.Errorf("app: open state store: %w", err)
		}
		o.state = st
	}
	if o.notifier == nil {
		o.notifier = defaultNotifier()
	}

	return wire(ctx, o), nil
}

// Boot restores the stored session, if any.
func (a *App) Boot(ctx context.Context) {
	a.Session.Init(ctx)
	logger.WithCtx(ctx).Debug("app: booted", "session", a.Session.State().String(), "cart_lines", a.Cart.Len())
}

// Close releases the state store.
func (a *App) Close() error {
	if err := a.State.Close(); err != nil {
		return fmt.Errorf("app: close state store: %w", err)
	}
	return nil
}

func defaultNotifier() notification.Notifier {
	term := notification.NewTerminal(os.Stderr)
	if hook := config.NotifyWebhook(); hook != "" {
		return notification.Multi{term, notification.NewWebhook(hook)}
	}
	return term
}
