package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shashiranjanraj/nexus/app/models"
	"github.com/shashiranjanraj/nexus/pkg/api"
	"github.com/shashiranjanraj/nexus/pkg/notification"
	"github.com/shashiranjanraj/nexus/pkg/validate"
)

// ErrImageRequired is returned when a product is created without a picture.
var ErrImageRequired = errors.New("services: product image required")

// AdminAPI is the back-office surface of the backend.
type AdminAPI interface {
	AdminCustomers(ctx context.Context) ([]models.User, error)
	AdminOrders(ctx context.Context) ([]models.Order, error)
	Analytics(ctx context.Context) (models.Analytics, error)
	AllReviews(ctx context.Context) ([]models.Review, error)
	CreateProduct(ctx context.Context, in models.ProductInput, img api.Image) (models.Product, error)
	DeleteProduct(ctx context.Context, slug string) error
}

// AdminService guards every back-office call behind the staff flag, so
// non-staff users are refused before any request goes out.
type AdminService struct {
	api      AdminAPI
	identity Identity
	notifier notification.Notifier
}

func NewAdminService(api AdminAPI, id Identity, n notification.Notifier) *AdminService {
	if n == nil {
		n = notification.Discard
	}
	return &AdminService{api: api, identity: id, notifier: n}
}

func (s *AdminService) Customers(ctx context.Context) ([]models.User, error) {
	if err := requireAdmin(s.identity); err != nil {
		return nil, err
	}
	return s.api.AdminCustomers(ctx)
}

func (s *AdminService) Orders(ctx context.Context) ([]models.Order, error) {
	if err := requireAdmin(s.identity); err != nil {
		return nil, err
	}
	return s.api.AdminOrders(ctx)
}

func (s *AdminService) Analytics(ctx context.Context) (models.Analytics, error) {
	if err := requireAdmin(s.identity); err != nil {
		return models.Analytics{}, err
	}
	return s.api.Analytics(ctx)
}

// Reviews lists every review with markup stripped.
func (s *AdminService) Reviews(ctx context.Context) ([]models.Review, error) {
	if err := requireAdmin(s.identity); err != nil {
		return nil, err
	}
	reviews, err := s.api.AllReviews(ctx)
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		reviews[i].Comment = PlainText(reviews[i].Comment)
	}
	return reviews, nil
}

// CreateProduct uploads a new product with the image at in.Image.
func (s *AdminService) CreateProduct(ctx context.Context, in models.ProductInput) (models.Product, error) {
	if err := requireAdmin(s.identity); err != nil {
		return models.Product{}, err
	}
	if in.Image == "" {
		s.notifier.Notify(notification.Error("Image required", "Please upload a product image."))
		return models.Product{}, ErrImageRequired
	}
	if err := validate.Check(in); err != nil {
		return models.Product{}, err
	}
	if err := in.Validate(); err != nil {
		return models.Product{}, err
	}

	f, err := os.Open(in.Image)
	if err != nil {
		s.notifier.Notify(notification.Error("Image required", err.Error()))
		return models.Product{}, fmt.Errorf("%w: %w", ErrImageRequired, err)
	}
	defer f.Close()

	p, err := s.api.CreateProduct(ctx, in, api.Image{Name: filepath.Base(in.Image), Content: f})
	if err != nil {
		s.notifier.Notify(notification.Error("Failed to create product", failureMessage(err, "Something went wrong")))
		return models.Product{}, fmt.Errorf("admin: create product: %w", err)
	}
	s.notifier.Notify(notification.Success("Product Created Successfully", p.Name))
	return p, nil
}

func (s *AdminService) DeleteProduct(ctx context.Context, slug string) error {
	if err := requireAdmin(s.identity); err != nil {
		return err
	}
	if err := s.api.DeleteProduct(ctx, slug); err != nil {
		s.notifier.Notify(notification.Error("Failed to delete product", failureMessage(err, "Something went wrong")))
		return fmt.Errorf("admin: delete product %s: %w", slug, err)
	}
	s.notifier.Notify(notification.Success("Product deleted", slug))
	return nil
}
