package api

import (
	"context"
	"io"
	"strconv"

	"github.com/shashiranjanraj/nexus/app/models"
	nxhttp "github.com/shashiranjanraj/nexus/pkg/http"
)

// ProductQuery narrows the product list. The backend exposes a single
// free-text search filter; the category is sent as a second search term.
type ProductQuery struct {
	Search   string
	Category string
}

// Products lists the catalog.
func (c *Client) Products(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	req := c.http.Get(PathProducts).
		Query("search", q.Search).
		Query("search", q.Category)
	return list[models.Product](ctx, req)
}

// Product fetches one product by slug.
func (c *Client) Product(ctx context.Context, slug string) (models.Product, error) {
	return fetch[models.Product](ctx, c.http.Get(detail(PathProducts, slug)))
}

// Categories lists every category.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	return list[models.Category](ctx, c.http.Get(PathCategories))
}

// Image is the picture uploaded with a new product.
type Image struct {
	Name    string
	Content io.Reader
}

// CreateProduct uploads a product as multipart form data.
func (c *Client) CreateProduct(ctx context.Context, in models.ProductInput, img Image) (models.Product, error) {
	fields := map[string]string{
		"name":        in.Name,
		"description": in.Description,
		"price":       in.Price.StringFixed(2),
		"category_id": in.CategoryID.String(),
		"stock":       strconv.Itoa(in.Stock),
		"is_featured": strconv.FormatBool(in.IsFeatured),
	}
	if in.Slug != "" {
		fields["slug"] = in.Slug
	}
	if in.DiscountPrice != nil {
		fields["discount_price"] = in.DiscountPrice.StringFixed(2)
	}

	var files []nxhttp.File
	if img.Content != nil {
		files = append(files, nxhttp.File{Field: "image", Name: img.Name, Content: img.Content})
	}
	return fetch[models.Product](ctx, c.http.Post(PathProducts).Multipart(fields, files...))
}

// DeleteProduct removes a product by slug.
func (c *Client) DeleteProduct(ctx context.Context, slug string) error {
	_, err := c.http.Delete(detail(PathProducts, slug)).Send(ctx)
	return err
}
