package api

import (
	"context"

	"github.com/shashiranjanraj/nexus/app/models"
)

// Orders lists the caller's orders, newest first.
func (c *Client) Orders(ctx context.Context) ([]models.Order, error) {
	return list[models.Order](ctx, c.http.Get(PathOrders))
}

// Order fetches one of the caller's orders.
func (c *Client) Order(ctx context.Context, id models.ID) (models.Order, error) {
	return fetch[models.Order](ctx, c.http.Get(detail(PathOrders, id.String())))
}

// CreateOrder places an order.
func (c *Client) CreateOrder(ctx context.Context, p models.OrderPayload) (models.Order, error) {
	return fetch[models.Order](ctx, c.http.Post(PathOrders).Body(p))
}
