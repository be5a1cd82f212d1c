package api

import (
	"context"

	"github.com/shashiranjanraj/nexus/app/models"
)

// AdminCustomers lists every registered user. Staff only.
func (c *Client) AdminCustomers(ctx context.Context) ([]models.User, error) {
	return list[models.User](ctx, c.http.Get(PathAdminCustomer))
}

// AdminOrders lists orders across all customers. Staff only.
func (c *Client) AdminOrders(ctx context.Context) ([]models.Order, error) {
	return list[models.Order](ctx, c.http.Get(PathAdminOrders))
}

// Analytics fetches the dashboard totals. Staff only.
func (c *Client) Analytics(ctx context.Context) (models.Analytics, error) {
	return fetch[models.Analytics](ctx, c.http.Get(PathAdminStats))
}
