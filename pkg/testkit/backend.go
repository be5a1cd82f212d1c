package testkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/nexus/app/models"
)

// Backend is an in-memory stand-in for the storefront REST API. It speaks
// the same paths, envelopes, token format and error bodies as the real
// service.
//
//	be := testkit.NewBackend(t)
//	be.AddUser("ann", "Secret123", false)
//	c := http.New(be.URL())
type Backend struct {
	Secret     []byte
	Scheme     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time

	mu         sync.Mutex
	nextID     int
	accounts   map[string]*account
	categories []models.Category
	products   []models.Product
	orders     []ownedOrder
	addresses  []ownedAddress
	saved      []ownedSaved
	reviews    []models.Review
	failures   map[string]MockResponse
	requests   []RecordedRequest

	srv *httptest.Server
}

type account struct {
	user     models.User
	password string
}

type ownedOrder struct {
	owner models.ID
	order models.Order
}

type ownedAddress struct {
	owner   models.ID
	address models.Address
}

type ownedSaved struct {
	owner models.ID
	item  models.SavedItem
}

type ctxUserKey struct{}

// NewBackend starts the fake API; it is closed when the test ends.
func NewBackend(t testing.TB) *Backend {
	b := &Backend{
		Secret:     []byte("fake-backend-signing-key"),
		Scheme:     "Bearer",
		AccessTTL:  5 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		Now:        time.Now,
		accounts:   map[string]*account{},
		failures:   map[string]MockResponse{},
	}
	b.srv = httptest.NewServer(b.routes())
	t.Cleanup(b.srv.Close)
	return b
}

// URL is the base URL of the fake API.
func (b *Backend) URL() string { return b.srv.URL }

// ─── Seeding ──────────────────────────────────────────────────────────────────

func (b *Backend) id() models.ID {
	b.nextID++
	return models.ID(strconv.Itoa(b.nextID))
}

// AddUser registers an account.
func (b *Backend) AddUser(username, password string, staff bool) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := models.User{ID: b.id(), Username: username, Email: username + "@example.com", IsStaff: staff}
	b.accounts[username] = &account{user: u, password: password}
	return u
}

// AddCategory adds a category.
func (b *Backend) AddCategory(name string) models.Category {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := models.Category{ID: b.id(), Name: name, Slug: slugify(name)}
	b.categories = append(b.categories, c)
	return c
}

// AddProduct adds p, assigning an id and a slug when missing.
func (b *Backend) AddProduct(p models.Product) models.Product {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = b.id()
	}
	if p.Slug == "" {
		p.Slug = slugify(p.Name)
	}
	b.products = append(b.products, p)
	return p
}

// Orders returns every order placed so far.
func (b *Backend) Orders() []models.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Order, len(b.orders))
	for i, o := range b.orders {
		out[i] = o.order
	}
	return out
}

// Fail makes method+path answer with resp until cleared with Recover.
func (b *Backend) Fail(method, path string, resp MockResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = resp
}

// Recover removes an injected failure.
func (b *Backend) Recover(method, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, method+" "+path)
}

// Requests returns every request the backend received.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// LastRequest returns the most recent request for method and path.
func (b *Backend) LastRequest(method, path string) (RecordedRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.requests) - 1; i >= 0; i-- {
		r := b.requests[i]
		if r.Method == method && r.Path == path {
			return r, true
		}
	}
	return RecordedRequest{}, false
}

// ─── Tokens ───────────────────────────────────────────────────────────────────

// IssueTokens signs a fresh access/refresh pair for username.
func (b *Backend) IssueTokens(username string) models.Tokens {
	b.mu.Lock()
	acc := b.accounts[username]
	b.mu.Unlock()
	if acc == nil {
		panic("testkit: unknown user " + username)
	}
	return models.Tokens{
		Access:  b.sign(acc.user.ID, "access", b.Now().Add(b.AccessTTL)),
		Refresh: b.sign(acc.user.ID, "refresh", b.Now().Add(b.RefreshTTL)),
	}
}

// IssueExpired signs an access token for username that expired an hour ago.
func (b *Backend) IssueExpired(username string) string {
	b.mu.Lock()
	acc := b.accounts[username]
	b.mu.Unlock()
	if acc == nil {
		panic("testkit: unknown user " + username)
	}
	return b.sign(acc.user.ID, "access", b.Now().Add(-time.Hour))
}

func (b *Backend) sign(userID models.ID, kind string, exp time.Time) string {
	claims := jwt.MapClaims{
		"token_type": kind,
		"user_id":    userID.String(),
		"exp":        exp.Unix(),
		"iat":        b.Now().Unix(),
		"jti":        fmt.Sprintf("%s-%d", kind, b.Now().UnixNano()),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.Secret)
	if err != nil {
		panic(err)
	}
	return s
}

func (b *Backend) verify(token, kind string) (models.ID, bool) {
	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) { return b.Secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(b.Now),
	)
	if err != nil || !parsed.Valid {
		return "", false
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || claims["token_type"] != kind {
		return "", false
	}
	id, _ := claims["user_id"].(string)
	return models.ID(id), id != ""
}

// ─── Router ───────────────────────────────────────────────────────────────────

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record, b.injectFailures)

	r.Post("/api/auth/token/", b.obtainToken)
	r.Post("/api/auth/token/refresh/", b.refreshToken)
	r.Post("/api/auth/register/", b.register)
	r.Get("/api/products/", b.listProducts)
	r.Get("/api/products/{slug}/", b.getProduct)
	r.Get("/api/categories/", b.listCategories)
	r.Get("/api/reviews/", b.listReviews)

	r.Group(func(r chi.Router) {
		r.Use(b.authenticate)
		r.Get("/api/auth/users/me/", b.me)
		r.Patch("/api/auth/users/me/", b.updateMe)
		r.Post("/api/products/", b.createProduct)
		r.Delete("/api/products/{slug}/", b.deleteProduct)
		r.Get("/api/orders/", b.listOrders)
		r.Post("/api/orders/", b.createOrder)
		r.Get("/api/orders/{id}/", b.getOrder)
		r.Get("/api/addresses/", b.listAddresses)
		r.Post("/api/addresses/", b.createAddress)
		r.Delete("/api/addresses/{id}/", b.deleteAddress)
		r.Get("/api/saved-items/", b.listSaved)
		r.Post("/api/saved-items/", b.createSaved)
		r.Delete("/api/saved-items/{id}/", b.deleteSaved)
		r.Post("/api/reviews/", b.createReview)
		r.Get("/api/purchased-products/", b.purchased)

		r.Group(func(r chi.Router) {
			r.Use(b.staffOnly)
			r.Get("/api/admin/customers/", b.adminCustomers)
			r.Get("/api/admin/orders/", b.adminOrders)
			r.Get("/api/admin/analytics/", b.adminAnalytics)
		})
	})
	return r
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil && !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			body, _ = readAll(r)
		}
		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method: r.Method,
			URL:    r.URL.String(),
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		resp, ok := b.failures[r.Method+" "+r.URL.Path]
		b.mu.Unlock()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		ct := resp.ContentType
		if ct == "" {
			ct = "application/json"
		}
		w.Header().Set("Content-Type", ct)
		w.WriteHeader(resp.Status)
		_, _ = w.Write([]byte(resp.Body))
	})
}

func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		scheme, token, _ := strings.Cut(header, " ")
		userID, ok := b.verify(token, "access")
		if scheme != b.Scheme || !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		acc := b.accountByID(userID)
		if acc == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "User not found", "code": "user_not_found"})
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r, acc)))
	})
}

func (b *Backend) staffOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r).IsStaff {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) accountByID(id models.ID) *account {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acc := range b.accounts {
		if acc.user.ID == id {
			return acc
		}
	}
	return nil
}

// ─── Auth handlers ────────────────────────────────────────────────────────────

func (b *Backend) obtainToken(w http.ResponseWriter, r *http.Request) {
	var in models.Credentials
	if err := decodeBody(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}
	b.mu.Lock()
	acc := b.accounts[in.Username]
	b.mu.Unlock()
	if acc == nil || acc.password != in.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
		return
	}
	writeJSON(w, http.StatusOK, b.IssueTokens(in.Username))
}

func (b *Backend) refreshToken(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Refresh string `json:"refresh"`
	}
	_ = decodeBody(r, &in)
	userID, ok := b.verify(in.Refresh, "refresh")
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired", "code": "token_not_valid"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": b.sign(userID, "access", b.Now().Add(b.AccessTTL))})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var in models.Registration
	if err := decodeBody(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}
	b.mu.Lock()
	_, taken := b.accounts[in.Username]
	b.mu.Unlock()
	if taken {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"A user with that username already exists."}})
		return
	}
	u := b.AddUser(in.Username, in.Password, false)
	b.mu.Lock()
	b.accounts[in.Username].user.Email = in.Email
	u.Email = in.Email
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, u)
}

func (b *Backend) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (b *Backend) updateMe(w http.ResponseWriter, r *http.Request) {
	var in models.ProfileUpdate
	if err := decodeBody(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}
	b.mu.Lock()
	acc := b.accounts[currentUser(r).Username]
	if in.FirstName != "" {
		acc.user.FirstName = in.FirstName
	}
	if in.LastName != "" {
		acc.user.LastName = in.LastName
	}
	if in.Email != "" {
		acc.user.Email = in.Email
	}
	if in.Phone != "" {
		acc.user.Phone = in.Phone
	}
	u := acc.user
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

// ─── Catalog handlers ─────────────────────────────────────────────────────────

func (b *Backend) listProducts(w http.ResponseWriter, r *http.Request) {
	terms := r.URL.Query()["search"]

	b.mu.Lock()
	var out []models.Product
	for _, p := range b.products {
		if matchesAll(p, terms) {
			out = append(out, p)
		}
	}
	b.mu.Unlock()
	writePage(w, out)
}

func matchesAll(p models.Product, terms []string) bool {
	hay := strings.ToLower(p.Name + " " + p.Description + " " + p.CategoryName())
	for _, t := range terms {
		if !strings.Contains(hay, strings.ToLower(t)) {
			return false
		}
	}
	return true
}

func (b *Backend) getProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.products {
		if p.Slug == slug {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No Product matches the given query."})
}

func (b *Backend) createProduct(w http.ResponseWriter, r *http.Request) {
	if !currentUser(r).IsStaff {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
		return
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Multipart form parse error"})
		return
	}
	price, err := decimal.NewFromString(r.FormValue("price"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"price": {"A valid number is required."}})
		return
	}
	stock, _ := strconv.Atoi(r.FormValue("stock"))
	p := models.Product{
		Name:        r.FormValue("name"),
		Slug:        r.FormValue("slug"),
		Description: r.FormValue("description"),
		Price:       price,
		Stock:       stock,
		IsFeatured:  r.FormValue("is_featured") == "true",
	}
	if dp := r.FormValue("discount_price"); dp != "" {
		if d, err := decimal.NewFromString(dp); err == nil {
			p.DiscountPrice = decimal.NewNullDecimal(d)
		}
	}
	if _, hdr, err := r.FormFile("image"); err == nil {
		p.Image = "/media/products/" + hdr.Filename
	}

	b.mu.Lock()
	for _, c := range b.categories {
		if c.ID == models.ID(r.FormValue("category_id")) {
			c := c
			p.Category = &c
		}
	}
	b.mu.Unlock()
	if p.Category == nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"category_id": {"Invalid pk - object does not exist."}})
		return
	}
	writeJSON(w, http.StatusCreated, b.AddProduct(p))
}

func (b *Backend) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if !currentUser(r).IsStaff {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
		return
	}
	slug := chi.URLParam(r, "slug")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, p := range b.products {
		if p.Slug == slug {
			b.products = append(b.products[:i], b.products[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No Product matches the given query."})
}

func (b *Backend) listCategories(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := append([]models.Category(nil), b.categories...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, orEmpty(out))
}

// ─── Order handlers ───────────────────────────────────────────────────────────

func (b *Backend) listOrders(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r).ID
	status := r.URL.Query().Get("status")
	b.mu.Lock()
	var out []models.Order
	for i := len(b.orders) - 1; i >= 0; i-- {
		o := b.orders[i]
		if o.owner == me && (status == "" || string(o.order.Status) == status) {
			out = append(out, o.order)
		}
	}
	b.mu.Unlock()
	writePage(w, out)
}

func (b *Backend) getOrder(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r).ID
	id := models.ID(chi.URLParam(r, "id"))
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.orders {
		if o.owner == me && o.order.ID == id {
			writeJSON(w, http.StatusOK, o.order)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (b *Backend) createOrder(w http.ResponseWriter, r *http.Request) {
	var in models.OrderPayload
	if err := decodeBody(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}
	if len(in.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"items_data": {"This field is required."}})
		return
	}
	if !in.PaymentMethod.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"payment_method": {fmt.Sprintf("\"%s\" is not a valid choice.", in.PaymentMethod)}})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	order := models.Order{
		ID:              b.id(),
		Status:          models.StatusPending,
		TotalAmount:     in.TotalAmount,
		ShippingAddress: in.ShippingAddress,
		PhoneNumber:     in.PhoneNumber,
		PaymentMethod:   in.PaymentMethod,
		CreatedAt:       b.Now().UTC(),
	}
	for _, line := range in.Items {
		p := b.productByID(line.ProductID)
		if p == nil {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"items_data": {"Invalid product " + line.ProductID.String()}})
			return
		}
		if p.Stock < line.Quantity {
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"error": map[string]string{"code": "out_of_stock", "message": p.Name + " is out of stock"},
			})
			return
		}
		order.Items = append(order.Items, models.OrderItem{
			ID:           b.id(),
			Product:      p.ID,
			ProductName:  p.Name,
			ProductImage: p.Image,
			Quantity:     line.Quantity,
			Price:        line.Price,
		})
	}
	for _, it := range order.Items {
		b.productByID(it.Product).Stock -= it.Quantity
	}
	b.orders = append(b.orders, ownedOrder{owner: currentUser(r).ID, order: order})
	writeJSON(w, http.StatusCreated, order)
}

// productByID must be called with mu held.
func (b *Backend) productByID(id models.ID) *models.Product {
	for i := range b.products {
		if b.products[i].ID == id {
			return &b.products[i]
		}
	}
	return nil
}

// SetOrderStatus moves an order along, as the shop staff would.
func (b *Backend) SetOrderStatus(id models.ID, s models.OrderStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.orders {
		if b.orders[i].order.ID == id {
			b.orders[i].order.Status = s
		}
	}
}

// ─── Account handlers ─────────────────────────────────────────────────────────

func (b *Backend) listAddresses(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r).ID
	b.mu.Lock()
	var out []models.Address
	for _, a := range b.addresses {
		if a.owner == me {
			out = append(out, a.address)
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, orEmpty(out))
}

func (b *Backend) createAddress(w http.ResponseWriter, r *http.Request) {
	var in models.AddressInput
	if err := decodeBody(r, &in); err != nil || in.Street == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"street": {"This field is required."}})
		return
	}
	me := currentUser(r).ID
	b.mu.Lock()
	defer b.mu.Unlock()
	a := models.Address{ID: b.id(), Street: in.Street, City: in.City, Phone: in.Phone, IsDefault: in.IsDefault}
	if a.IsDefault {
		for i := range b.addresses {
			if b.addresses[i].owner == me {
				b.addresses[i].address.IsDefault = false
			}
		}
	}
	b.addresses = append(b.addresses, ownedAddress{owner: me, address: a})
	writeJSON(w, http.StatusCreated, a)
}

func (b *Backend) deleteAddress(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r).ID
	id := models.ID(chi.URLParam(r, "id"))
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, a := range b.addresses {
		if a.owner == me && a.address.ID == id {
			b.addresses = append(b.addresses[:i], b.addresses[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (b *Backend) listSaved(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r).ID
	b.mu.Lock()
	var out []models.SavedItem
	for _, s := range b.saved {
		if s.owner == me {
			out = append(out, s.item)
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, orEmpty(out))
}

func (b *Backend) createSaved(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Product models.ID `json:"product"`
	}
	_ = decodeBody(r, &in)
	me := currentUser(r).ID
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.productByID(in.Product) == nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"product": {"Invalid pk - object does not exist."}})
		return
	}
	item := models.SavedItem{ID: b.id(), Product: in.Product}
	b.saved = append(b.saved, ownedSaved{owner: me, item: item})
	writeJSON(w, http.StatusCreated, item)
}

func (b *Backend) deleteSaved(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r).ID
	id := models.ID(chi.URLParam(r, "id"))
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.saved {
		if s.owner == me && s.item.ID == id {
			b.saved = append(b.saved[:i], b.saved[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (b *Backend) listReviews(w http.ResponseWriter, r *http.Request) {
	product := models.ID(r.URL.Query().Get("product"))
	b.mu.Lock()
	var out []models.Review
	for _, rv := range b.reviews {
		if product.IsZero() || rv.Product == product {
			out = append(out, rv)
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, orEmpty(out))
}

func (b *Backend) createReview(w http.ResponseWriter, r *http.Request) {
	var in models.ReviewInput
	if err := decodeBody(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}
	if in.Rating < 1 || in.Rating > 5 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"rating": {"Ensure this value is less than or equal to 5."}})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.productByID(in.Product)
	if p == nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"product": {"Invalid pk - object does not exist."}})
		return
	}
	rv := models.Review{
		ID:        b.id(),
		Product:   in.Product,
		UserName:  currentUser(r).Username,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: b.Now().UTC(),
	}
	b.reviews = append(b.reviews, rv)
	p.ReviewCount++
	writeJSON(w, http.StatusCreated, rv)
}

func (b *Backend) purchased(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r).ID
	b.mu.Lock()
	seen := map[models.ID]bool{}
	var out []models.Product
	for _, o := range b.orders {
		if o.owner != me {
			continue
		}
		for _, it := range o.order.Items {
			if p := b.productByID(it.Product); p != nil && !seen[p.ID] {
				seen[p.ID] = true
				out = append(out, *p)
			}
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, orEmpty(out))
}

// ─── Admin handlers ───────────────────────────────────────────────────────────

func (b *Backend) adminCustomers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := make([]models.User, 0, len(b.accounts))
	for _, acc := range b.accounts {
		out = append(out, acc.user)
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	writePage(w, out)
}

func (b *Backend) adminOrders(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := make([]models.Order, 0, len(b.orders))
	for i := len(b.orders) - 1; i >= 0; i-- {
		out = append(out, b.orders[i].order)
	}
	b.mu.Unlock()
	writePage(w, out)
}

func (b *Backend) adminAnalytics(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	a := models.Analytics{TotalOrders: len(b.orders), TotalCustomers: len(b.accounts), RecentOrders: []models.Order{}}
	for i := len(b.orders) - 1; i >= 0; i-- {
		a.TotalRevenue = a.TotalRevenue.Add(b.orders[i].order.TotalAmount)
		if len(a.RecentOrders) < 5 {
			a.RecentOrders = append(a.RecentOrders, b.orders[i].order)
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, a)
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func withUser(r *http.Request, acc *account) context.Context {
	return context.WithValue(r.Context(), ctxUserKey{}, acc.user)
}

func currentUser(r *http.Request) models.User {
	u, _ := r.Context().Value(ctxUserKey{}).(models.User)
	return u
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writePage answers with the paginated envelope list endpoints use.
func writePage[T any](w http.ResponseWriter, items []T) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(items),
		"next":     nil,
		"previous": nil,
		"results":  orEmpty(items),
	})
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func decodeBody(r *http.Request, dest interface{}) error {
	raw, err := readAll(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, c := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// readAll drains the body and puts it back so later readers see it too.
func readAll(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	return raw, err
}
