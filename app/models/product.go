package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products in the catalog.
type Category struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Image string `json:"image,omitempty"`
}

// UnmarshalJSON accepts the nested object or, on list endpoints that
// flatten it, the bare category name.
func (c *Category) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		*c = Category{Name: name}
		return nil
	}
	type plain Category
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = Category(p)
	return nil
}

// Validate requires a name.
func (c Category) Validate() error {
	if c.Name == "" {
		return errors.New("category: name is required")
	}
	return nil
}

// Product is a catalog entry. Prices arrive as decimal strings.
type Product struct {
	ID            ID                  `json:"id"`
	Name          string              `json:"name"`
	Slug          string              `json:"slug"`
	Description   string              `json:"description"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
	Category      *Category           `json:"category,omitempty"`
	Image         string              `json:"image,omitempty"`
	Stock         int                 `json:"stock"`
	IsFeatured    bool                `json:"is_featured"`
	CreatedAt     *time.Time          `json:"created_at,omitempty"`
	Rating        float64             `json:"rating"`
	ReviewCount   int                 `json:"reviewCount"`
	Reviews       []Review            `json:"reviews,omitempty"`
}

// Validate rejects products the storefront cannot show or sell.
func (p Product) Validate() error {
	switch {
	case p.ID.IsZero():
		return errors.New("product: id is required")
	case p.Name == "":
		return errors.New("product: name is required")
	case p.Price.IsNegative():
		return errors.New("product: price is negative")
	case p.Stock < 0:
		return errors.New("product: stock is negative")
	}
	return nil
}

// EffectivePrice is the discount price when one is set and lower than the
// list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice.Valid && p.DiscountPrice.Decimal.IsPositive() && p.DiscountPrice.Decimal.LessThan(p.Price) {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool { return p.Stock > 0 }

// CategoryName is the category name or "".
func (p Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

// ProductInput is the admin create body.
type ProductInput struct {
	Name          string           `json:"name"           validate:"required,max=255"`
	Slug          string           `json:"slug,omitempty" validate:"nullable,alpha_dash"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	CategoryID    ID               `json:"category_id"    validate:"required"`
	Stock         int              `json:"stock"          validate:"gte=0"`
	IsFeatured    bool             `json:"is_featured"`
	Image         string           `json:"-"`
}

// Validate checks the price fields, which the tag rules cannot express.
func (in ProductInput) Validate() error {
	if !in.Price.IsPositive() {
		return errors.New("price must be greater than zero")
	}
	if in.DiscountPrice != nil && (in.DiscountPrice.IsNegative() || in.DiscountPrice.GreaterThanOrEqual(in.Price)) {
		return errors.New("discount price must be below the price")
	}
	return nil
}
