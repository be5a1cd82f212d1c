package services

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/shashiranjanraj/nexus/app/models"
	"github.com/shashiranjanraj/nexus/pkg/api"
)

// CatalogAPI is the read side of the catalog.
type CatalogAPI interface {
	Products(ctx context.Context, q api.ProductQuery) ([]models.Product, error)
	Product(ctx context.Context, slug string) (models.Product, error)
	Categories(ctx context.Context) ([]models.Category, error)
	Reviews(ctx context.Context, product models.ID) ([]models.Review, error)
}

// Price bounds of the search page slider, in shillings.
var (
	MinPrice = decimal.Zero
	MaxPrice = decimal.NewFromInt(250000)
)

// Sort orders for search results.
const (
	SortNewest    = "newest"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
)

// Home is the landing page content.
type Home struct {
	Featured   []models.Product
	Latest     []models.Product
	Categories []models.Category
}

// SearchQuery describes one search page request. Search and Category go to
// the backend; the price range, the sort order and Where are applied here.
type SearchQuery struct {
	Search   string
	Category string
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
	Sort     string
	// Where is an optional boolean expression over the product, e.g.
	// `price < 2000 && in_stock`.
	Where string
}

// CatalogService serves the browsing pages.
type CatalogService struct {
	api CatalogAPI
}

func NewCatalogService(api CatalogAPI) *CatalogService {
	return &CatalogService{api: api}
}

// Home fetches products and categories concurrently.
func (s *CatalogService) Home(ctx context.Context) (Home, error) {
	var (
		products   []models.Product
		categories []models.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.api.Products(gctx, api.ProductQuery{})
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.api.Categories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Home{}, fmt.Errorf("catalog: home: %w", err)
	}

	h := Home{Categories: categories}
	for i, p := range products {
		p = cleanProduct(p)
		products[i] = p
		if p.IsFeatured {
			h.Featured = append(h.Featured, p)
		}
	}
	h.Latest = newestFirst(products)
	if len(h.Latest) > 8 {
		h.Latest = h.Latest[:8]
	}
	return h, nil
}

// Search runs a search page query.
func (s *CatalogService) Search(ctx context.Context, q SearchQuery) ([]models.Product, error) {
	var filter *vm.Program
	if strings.TrimSpace(q.Where) != "" {
		prog, err := CompileFilter(q.Where)
		if err != nil {
			return nil, err
		}
		filter = prog
	}

	products, err := s.api.Products(ctx, api.ProductQuery{Search: q.Search, Category: q.Category})
	if err != nil {
		return nil, err
	}

	lo, hi := q.MinPrice, q.MaxPrice
	if hi.IsZero() {
		hi = MaxPrice
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		price := p.EffectivePrice()
		if price.LessThan(lo) || price.GreaterThan(hi) {
			continue
		}
		if filter != nil {
			ok, err := Matches(filter, p)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, cleanProduct(p))
	}
	SortProducts(out, q.Sort)
	return out, nil
}

// Product fetches the detail page, with the reviews when the product
// payload does not embed them.
func (s *CatalogService) Product(ctx context.Context, slug string) (models.Product, error) {
	p, err := s.api.Product(ctx, slug)
	if err != nil {
		return models.Product{}, err
	}
	if len(p.Reviews) == 0 {
		reviews, err := s.api.Reviews(ctx, p.ID)
		if err != nil {
			return models.Product{}, err
		}
		p.Reviews = reviews
	}
	return cleanProduct(p), nil
}

// Categories lists the categories.
func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.api.Categories(ctx)
}

// SortProducts orders products in place. Unknown orders keep the backend
// order.
func SortProducts(products []models.Product, order string) {
	switch order {
	case SortPriceLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].EffectivePrice().LessThan(products[j].EffectivePrice())
		})
	case SortPriceHigh:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].EffectivePrice().GreaterThan(products[j].EffectivePrice())
		})
	case SortNewest:
		copy(products, newestFirst(products))
	}
}

func newestFirst(products []models.Product) []models.Product {
	out := append([]models.Product(nil), products...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
	return out
}

// ------------------- Filter expressions -------------------

// productEnv is what a filter expression can see.
type productEnv struct {
	Name      string  `expr:"name"`
	Slug      string  `expr:"slug"`
	Category  string  `expr:"category"`
	Price     float64 `expr:"price"`
	ListPrice float64 `expr:"list_price"`
	Stock     int     `expr:"stock"`
	InStock   bool    `expr:"in_stock"`
	Featured  bool    `expr:"featured"`
	OnSale    bool    `expr:"on_sale"`
	Rating    float64 `expr:"rating"`
	Reviews   int     `expr:"reviews"`
}

func envFor(p models.Product) productEnv {
	price := p.EffectivePrice()
	return productEnv{
		Name:      p.Name,
		Slug:      p.Slug,
		Category:  p.CategoryName(),
		Price:     price.InexactFloat64(),
		ListPrice: p.Price.InexactFloat64(),
		Stock:     p.Stock,
		InStock:   p.InStock(),
		Featured:  p.IsFeatured,
		OnSale:    price.LessThan(p.Price),
		Rating:    p.Rating,
		Reviews:   p.ReviewCount,
	}
}

var filterCache sync.Map // expression -> *vm.Program

// CompileFilter compiles a product filter expression. Expressions must
// evaluate to a boolean.
func CompileFilter(expression string) (*vm.Program, error) {
	if cached, ok := filterCache.Load(expression); ok {
		return cached.(*vm.Program), nil
	}
	prog, err := expr.Compile(expression, expr.Env(productEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("catalog: filter %q: %w", expression, err)
	}
	filterCache.Store(expression, prog)
	return prog, nil
}

// Matches runs a compiled filter against p.
func Matches(prog *vm.Program, p models.Product) (bool, error) {
	out, err := expr.Run(prog, envFor(p))
	if err != nil {
		return false, fmt.Errorf("catalog: filter: %w", err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// ------------------- Sanitizing -------------------

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// PlainText strips any markup from backend-supplied text before it is
// printed to a terminal.
func PlainText(s string) string {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func cleanProduct(p models.Product) models.Product {
	p.Description = PlainText(p.Description)
	if len(p.Reviews) > 0 {
		reviews := make([]models.Review, len(p.Reviews))
		for i, r := range p.Reviews {
			r.Comment = PlainText(r.Comment)
			reviews[i] = r
		}
		p.Reviews = reviews
	}
	return p
}
