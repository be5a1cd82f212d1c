package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the backend's order lifecycle.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// UnmarshalJSON rejects statuses outside the enum.
func (s *OrderStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st := OrderStatus(raw)
	if !st.Valid() {
		return fmt.Errorf("order status %q is not recognised", raw)
	}
	*s = st
	return nil
}

// Step is the 1-based position of s on the tracking timeline, 0 when
// cancelled.
func (s OrderStatus) Step() int {
	for i, known := range OrderStatuses[:4] {
		if s == known {
			return i + 1
		}
	}
	return 0
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentMpesa        PaymentMethod = "mpesa"
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// PaymentMethods lists the supported methods, default first.
var PaymentMethods = []PaymentMethod{PaymentMpesa, PaymentCard, PaymentBankTransfer}

// Valid reports whether m is supported.
func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// OrderItem is one line of a placed order.
type OrderItem struct {
	ID           ID              `json:"id"`
	Product      ID              `json:"product"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image,omitempty"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
}

// Subtotal is price x quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is the read-only projection of a backend order.
type Order struct {
	ID              ID              `json:"id"`
	Status          OrderStatus     `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	PhoneNumber     string          `json:"phone_number,omitempty"`
	PaymentMethod   PaymentMethod   `json:"payment_method,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []OrderItem     `json:"items"`
}

// Validate rejects orders without id, status or with negative totals.
func (o Order) Validate() error {
	switch {
	case o.ID.IsZero():
		return errors.New("order: id is required")
	case !o.Status.Valid():
		return fmt.Errorf("order %s: invalid status %q", o.ID, o.Status)
	case o.TotalAmount.IsNegative():
		return fmt.Errorf("order %s: negative total", o.ID)
	}
	for _, it := range o.Items {
		if it.Quantity < 1 {
			return fmt.Errorf("order %s: item %s has quantity %d", o.ID, it.ID, it.Quantity)
		}
	}
	return nil
}

// ItemCount sums item quantities.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// OrderLine is one entry of items_data in the creation payload.
type OrderLine struct {
	ProductID ID              `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderPayload is the POST /api/orders/ body.
type OrderPayload struct {
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	PhoneNumber     string          `json:"phone_number"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	Items           []OrderLine     `json:"items_data"`
}
