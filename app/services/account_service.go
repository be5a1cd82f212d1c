package services

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/nexus/app/models"
	"github.com/shashiranjanraj/nexus/pkg/notification"
	"github.com/shashiranjanraj/nexus/pkg/validate"
)

// AccountAPI covers the logged-in customer pages.
type AccountAPI interface {
	Addresses(ctx context.Context) ([]models.Address, error)
	AddAddress(ctx context.Context, in models.AddressInput) (models.Address, error)
	DeleteAddress(ctx context.Context, id models.ID) error
	SavedItems(ctx context.Context) ([]models.SavedItem, error)
	SaveItem(ctx context.Context, product models.ID) (models.SavedItem, error)
	RemoveSaved(ctx context.Context, id models.ID) error
	CreateReview(ctx context.Context, in models.ReviewInput) (models.Review, error)
	PurchasedProducts(ctx context.Context) ([]models.Product, error)
}

// AccountService serves the address book, the wishlist and reviews.
type AccountService struct {
	api      AccountAPI
	identity Identity
	notifier notification.Notifier
}

func NewAccountService(api AccountAPI, id Identity, n notification.Notifier) *AccountService {
	if n == nil {
		n = notification.Discard
	}
	return &AccountService{api: api, identity: id, notifier: n}
}

// ------------------- Addresses -------------------

func (s *AccountService) Addresses(ctx context.Context) ([]models.Address, error) {
	if err := requireLogin(s.identity); err != nil {
		return nil, err
	}
	return s.api.Addresses(ctx)
}

// DefaultAddress returns the address flagged default, else the first one.
func (s *AccountService) DefaultAddress(ctx context.Context) (models.Address, bool, error) {
	list, err := s.Addresses(ctx)
	if err != nil || len(list) == 0 {
		return models.Address{}, false, err
	}
	for _, a := range list {
		if a.IsDefault {
			return a, true, nil
		}
	}
	return list[0], true, nil
}

func (s *AccountService) AddAddress(ctx context.Context, in models.AddressInput) (models.Address, error) {
	if err := requireLogin(s.identity); err != nil {
		return models.Address{}, err
	}
	in.Phone = validate.NormalizePhone(in.Phone)
	if err := validate.Check(in); err != nil {
		return models.Address{}, err
	}
	a, err := s.api.AddAddress(ctx, in)
	if err != nil {
		s.notifier.Notify(notification.Error("Could not save address", failureMessage(err, "Something went wrong")))
		return models.Address{}, fmt.Errorf("account: add address: %w", err)
	}
	s.notifier.Notify(notification.Success("Address saved", a.Line()))
	return a, nil
}

func (s *AccountService) DeleteAddress(ctx context.Context, id models.ID) error {
	if err := requireLogin(s.identity); err != nil {
		return err
	}
	if err := s.api.DeleteAddress(ctx, id); err != nil {
		return fmt.Errorf("account: delete address %s: %w", id, err)
	}
	s.notifier.Notify(notification.Info("Address removed", ""))
	return nil
}

// ------------------- Wishlist -------------------

func (s *AccountService) SavedItems(ctx context.Context) ([]models.SavedItem, error) {
	if err := requireLogin(s.identity); err != nil {
		return nil, err
	}
	return s.api.SavedItems(ctx)
}

// ToggleSaved saves the product, or removes it when already saved. It
// reports whether the product is saved afterwards.
func (s *AccountService) ToggleSaved(ctx context.Context, product models.ID) (bool, error) {
	items, err := s.SavedItems(ctx)
	if err != nil {
		return false, err
	}
	if existing, ok := models.FindSaved(items, product); ok {
		if err := s.api.RemoveSaved(ctx, existing.ID); err != nil {
			return true, fmt.Errorf("account: remove saved item: %w", err)
		}
		s.notifier.Notify(notification.Info("Removed from wishlist", ""))
		return false, nil
	}
	if _, err := s.api.SaveItem(ctx, product); err != nil {
		return false, fmt.Errorf("account: save item: %w", err)
	}
	s.notifier.Notify(notification.Success("Added to wishlist", ""))
	return true, nil
}

// Unsave removes product from the wishlist. Unknown products are a no-op.
func (s *AccountService) Unsave(ctx context.Context, product models.ID) error {
	items, err := s.SavedItems(ctx)
	if err != nil {
		return err
	}
	existing, ok := models.FindSaved(items, product)
	if !ok {
		return nil
	}
	if err := s.api.RemoveSaved(ctx, existing.ID); err != nil {
		return fmt.Errorf("account: remove saved item: %w", err)
	}
	s.notifier.Notify(notification.Info("Removed from wishlist", ""))
	return nil
}

// ------------------- Reviews -------------------

// Review posts a product review. The comment is stripped of markup first.
func (s *AccountService) Review(ctx context.Context, in models.ReviewInput) (models.Review, error) {
	if err := requireLogin(s.identity); err != nil {
		return models.Review{}, err
	}
	in.Comment = PlainText(in.Comment)
	if err := validate.Check(in); err != nil {
		return models.Review{}, err
	}
	r, err := s.api.CreateReview(ctx, in)
	if err != nil {
		s.notifier.Notify(notification.Error("Review failed", failureMessage(err, "Could not submit review")))
		return models.Review{}, fmt.Errorf("account: review: %w", err)
	}
	s.notifier.Notify(notification.Success("Review submitted", "Thank you for your feedback."))
	return r, nil
}

// Purchased lists products the customer can review.
func (s *AccountService) Purchased(ctx context.Context) ([]models.Product, error) {
	if err := requireLogin(s.identity); err != nil {
		return nil, err
	}
	return s.api.PurchasedProducts(ctx)
}
