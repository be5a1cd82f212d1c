package app

import (
	"context"

	"github.com/shashiranjanraj/nexus/app/services"
	"github.com/shashiranjanraj/nexus/config"
	"github.com/shashiranjanraj/nexus/pkg/api"
	"github.com/shashiranjanraj/nexus/pkg/cart"
	nxhttp "github.com/shashiranjanraj/nexus/pkg/http"
	"github.com/shashiranjanraj/nexus/pkg/session"
)

// wire builds the object graph. The transport and the session reference
// each other: the session calls the API, and the API asks the session for
// the token. The transport is built first and handed the session after.
func wire(ctx context.Context, o options) *App {
	httpOpts := []nxhttp.Option{
		nxhttp.WithAuthScheme(o.scheme),
		nxhttp.WithTimeout(config.HTTPTimeout()),
	}
	if o.httpClient != nil {
		httpOpts = append(httpOpts, nxhttp.WithHTTPClient(o.httpClient))
	}
	transport := nxhttp.New(o.baseURL, httpOpts...)
	client := api.New(transport)

	sess := session.New(client, o.state, o.notifier)
	transport.SetTokenSource(sess)

	c := cart.Open(ctx, o.state, o.notifier)

	return &App{
		State:    o.state,
		HTTP:     transport,
		API:      client,
		Session:  sess,
		Cart:     c,
		Notifier: o.notifier,

		Catalog:  services.NewCatalogService(client),
		Checkout: services.NewCheckoutService(client, c, sess, o.notifier),
		Account:  services.NewAccountService(client, sess, o.notifier),
		Admin:    services.NewAdminService(client, sess, o.notifier),
	}
}
