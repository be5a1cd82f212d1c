package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Analytics is the admin dashboard summary.
type Analytics struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalOrders    int             `json:"total_orders"`
	TotalCustomers int             `json:"total_customers"`
	RecentOrders   []Order         `json:"recent_orders"`
}

// Validate rejects negative counters.
func (a Analytics) Validate() error {
	if a.TotalOrders < 0 || a.TotalCustomers < 0 || a.TotalRevenue.IsNegative() {
		return errors.New("analytics: negative totals")
	}
	return nil
}
