// Package api is the typed surface of the storefront backend. Each method
// maps to one REST endpoint, goes through the shared transport in pkg/http
// and decodes the answer with models.Decode, so a response that does not
// match the expected shape fails with models.ErrInvalidPayload.
//
//	c := api.New(http.New(cfgBaseURL, http.WithTokenSource(sess)))
//	orders, err := c.Orders(ctx)
package api

import (
	"context"
	"net/url"

	"github.com/shashiranjanraj/nexus/app/models"
	nxhttp "github.com/shashiranjanraj/nexus/pkg/http"
)

// Backend paths. Collection paths end in a slash; detail paths append the
// identifier and a slash.
const (
	PathToken         = "/api/auth/token/"
	PathTokenRefresh  = "/api/auth/token/refresh/"
	PathRegister      = "/api/auth/register/"
	PathMe            = "/api/auth/users/me/"
	PathProducts      = "/api/products/"
	PathCategories    = "/api/categories/"
	PathOrders        = "/api/orders/"
	PathAddresses     = "/api/addresses/"
	PathSavedItems    = "/api/saved-items/"
	PathReviews       = "/api/reviews/"
	PathPurchased     = "/api/purchased-products/"
	PathAdminCustomer = "/api/admin/customers/"
	PathAdminOrders   = "/api/admin/orders/"
	PathAdminStats    = "/api/admin/analytics/"
)

// Client calls the backend endpoints.
type Client struct {
	http *nxhttp.Client
}

// New wraps a configured transport.
func New(c *nxhttp.Client) *Client {
	return &Client{http: c}
}

// Transport returns the underlying transport.
func (c *Client) Transport() *nxhttp.Client { return c.http }

// fetch sends req and decodes the unwrapped payload into a T.
func fetch[T any](ctx context.Context, req *nxhttp.Request) (T, error) {
	var out T
	resp, err := req.Send(ctx)
	if err != nil {
		return out, err
	}
	if err := models.Decode(resp.Payload(), &out); err != nil {
		return out, err
	}
	return out, nil
}

// list is fetch for collections. An empty response or a null payload
// becomes an empty slice.
func list[T any](ctx context.Context, req *nxhttp.Request) ([]T, error) {
	resp, err := req.Send(ctx)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if resp.Empty() {
		return out, nil
	}
	if err := models.Decode(resp.Payload(), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func detail(collection string, id string) string {
	return collection + url.PathEscape(id) + "/"
}
