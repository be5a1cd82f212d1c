package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shashiranjanraj/nexus/app/models"
	"github.com/shashiranjanraj/nexus/pkg/cart"
	"github.com/shashiranjanraj/nexus/pkg/logger"
	"github.com/shashiranjanraj/nexus/pkg/notification"
	"github.com/shashiranjanraj/nexus/pkg/validate"
)

// OrderAPI is what checkout and order tracking need from the backend.
type OrderAPI interface {
	CreateOrder(ctx context.Context, p models.OrderPayload) (models.Order, error)
	Order(ctx context.Context, id models.ID) (models.Order, error)
	Orders(ctx context.Context) ([]models.Order, error)
}

// CheckoutForm is the delivery and payment details the shopper enters.
type CheckoutForm struct {
	FullName      string               `json:"full_name"      validate:"required,max=100"`
	Phone         string               `json:"phone"          validate:"required,phone"`
	City          string               `json:"city"           validate:"required,max=100"`
	Address       string               `json:"address"        validate:"required,max=255"`
	PaymentMethod models.PaymentMethod `json:"payment_method" validate:"required,in=mpesa,card,bank_transfer"`
}

// ShippingAddress is the single line the backend stores.
func (f CheckoutForm) ShippingAddress() string {
	return strings.TrimSpace(f.Address) + ", " + strings.TrimSpace(f.City)
}

// CheckoutService turns the cart into an order.
type CheckoutService struct {
	api      OrderAPI
	cart     *cart.Store
	identity Identity
	notifier notification.Notifier
}

func NewCheckoutService(api OrderAPI, c *cart.Store, id Identity, n notification.Notifier) *CheckoutService {
	if n == nil {
		n = notification.Discard
	}
	return &CheckoutService{api: api, cart: c, identity: id, notifier: n}
}

// Payload builds the order request from the cart lines and the form.
func Payload(lines []cart.Line, f CheckoutForm) models.OrderPayload {
	items := make([]models.OrderLine, len(lines))
	for i, l := range lines {
		items[i] = models.OrderLine{ProductID: l.ID, Quantity: l.Quantity, Price: l.Price}
	}
	return models.OrderPayload{
		TotalAmount:     cart.Total(lines),
		ShippingAddress: f.ShippingAddress(),
		PhoneNumber:     validate.NormalizePhone(f.Phone),
		PaymentMethod:   f.PaymentMethod,
		Items:           items,
	}
}

// PlaceOrder validates the form, submits the cart and clears it on success.
// On failure the cart is left as it was.
func (s *CheckoutService) PlaceOrder(ctx context.Context, f CheckoutForm) (models.Order, error) {
	if err := requireLogin(s.identity); err != nil {
		return models.Order{}, err
	}
	lines := s.cart.Lines()
	if len(lines) == 0 {
		return models.Order{}, ErrEmptyCart
	}
	if f.PaymentMethod == "" {
		f.PaymentMethod = models.PaymentMethods[0]
	}
	if err := validate.Check(f); err != nil {
		return models.Order{}, err
	}

	order, err := s.api.CreateOrder(ctx, Payload(lines, f))
	if err != nil {
		logger.WithCtx(ctx).Warn("checkout: create order failed", "error", err)
		s.notifier.Notify(notification.Error("Order Failed", failureMessage(err, "Something went wrong. Please try again.")))
		return models.Order{}, fmt.Errorf("checkout: %w", err)
	}

	s.cart.Clear(ctx)
	s.notifier.Notify(notification.Success("Order placed", fmt.Sprintf("Order #%s has been received.", order.ID)))
	return order, nil
}

// Orders lists the shopper's orders.
func (s *CheckoutService) Orders(ctx context.Context) ([]models.Order, error) {
	if err := requireLogin(s.identity); err != nil {
		return nil, err
	}
	return s.api.Orders(ctx)
}

// Track fetches one order for the tracking view.
func (s *CheckoutService) Track(ctx context.Context, id models.ID) (models.Order, error) {
	if err := requireLogin(s.identity); err != nil {
		return models.Order{}, err
	}
	return s.api.Order(ctx, id)
}
