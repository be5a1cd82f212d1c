package api

import (
	"context"

	"github.com/shashiranjanraj/nexus/app/models"
)

// ------------------- Addresses -------------------

func (c *Client) Addresses(ctx context.Context) ([]models.Address, error) {
	return list[models.Address](ctx, c.http.Get(PathAddresses))
}

func (c *Client) AddAddress(ctx context.Context, in models.AddressInput) (models.Address, error) {
	return fetch[models.Address](ctx, c.http.Post(PathAddresses).Body(in))
}

func (c *Client) DeleteAddress(ctx context.Context, id models.ID) error {
	_, err := c.http.Delete(detail(PathAddresses, id.String())).Send(ctx)
	return err
}

// ------------------- Saved items -------------------

func (c *Client) SavedItems(ctx context.Context) ([]models.SavedItem, error) {
	return list[models.SavedItem](ctx, c.http.Get(PathSavedItems))
}

// SaveItem adds a product to the wishlist.
func (c *Client) SaveItem(ctx context.Context, product models.ID) (models.SavedItem, error) {
	body := map[string]models.ID{"product": product}
	return fetch[models.SavedItem](ctx, c.http.Post(PathSavedItems).Body(body))
}

// RemoveSaved deletes a wishlist entry by its own id, not the product id.
func (c *Client) RemoveSaved(ctx context.Context, id models.ID) error {
	_, err := c.http.Delete(detail(PathSavedItems, id.String())).Send(ctx)
	return err
}

// ------------------- Reviews -------------------

// Reviews lists the reviews of one product.
func (c *Client) Reviews(ctx context.Context, product models.ID) ([]models.Review, error) {
	return list[models.Review](ctx, c.http.Get(PathReviews).Query("product", product))
}

// AllReviews lists every review (admin moderation view).
func (c *Client) AllReviews(ctx context.Context) ([]models.Review, error) {
	return list[models.Review](ctx, c.http.Get(PathReviews))
}

func (c *Client) CreateReview(ctx context.Context, in models.ReviewInput) (models.Review, error) {
	return fetch[models.Review](ctx, c.http.Post(PathReviews).Body(in))
}

// PurchasedProducts lists products the caller has ordered, for reviewing.
func (c *Client) PurchasedProducts(ctx context.Context) ([]models.Product, error) {
	return list[models.Product](ctx, c.http.Get(PathPurchased))
}
