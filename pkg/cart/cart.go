// Package cart is the shopping cart: an ordered set of lines, unique by
// product id, persisted to the state store after every change.
//
//	c := cart.Open(ctx, store, notifier)
//	c.AddProduct(ctx, product, 2)
//	c.Count() // 2
//	c.Total() // price x 2
//
// Persistence is best effort. A failed read yields an empty cart and a
// failed write is logged; the in-memory cart stays authoritative.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/nexus/app/models"
	"github.com/shashiranjanraj/nexus/pkg/event"
	"github.com/shashiranjanraj/nexus/pkg/logger"
	"github.com/shashiranjanraj/nexus/pkg/metrics"
	"github.com/shashiranjanraj/nexus/pkg/notification"
	"github.com/shashiranjanraj/nexus/pkg/storage"
)

// Line is one product in the cart with the price it had when added.
type Line struct {
	ID       models.ID       `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image,omitempty"`
	Slug     string          `json:"slug,omitempty"`
}

// Subtotal is price x quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) validate() error {
	switch {
	case l.ID.IsZero():
		return errors.New("line without id")
	case l.Quantity < 1:
		return fmt.Errorf("line %s: quantity %d", l.ID, l.Quantity)
	case l.Price.IsNegative():
		return fmt.Errorf("line %s: negative price", l.ID)
	}
	return nil
}

// FromProduct snapshots a catalog product into a line. The line carries
// the list price; the discount price is display only.
func FromProduct(p models.Product, qty int) Line {
	return Line{
		ID:       p.ID,
		Title:    p.Name,
		Price:    p.Price,
		Quantity: qty,
		Image:    p.Image,
		Slug:     p.Slug,
	}
}

// Store holds the cart. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	lines    []Line
	state    storage.Store
	notifier notification.Notifier
	changes  event.Bus[[]Line]
}

// Open loads the persisted cart. An absent or unreadable value gives an
// empty cart; the reason is logged and never returned.
func Open(ctx context.Context, state storage.Store, n notification.Notifier) *Store {
	if n == nil {
		n = notification.Discard
	}
	s := &Store{state: state, notifier: n}
	s.lines = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) []Line {
	log := logger.WithCtx(ctx)

	raw, err := s.state.Get(ctx, storage.KeyCart)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		metrics.PersistFailed(storage.KeyCart, "read")
		log.Warn("cart: load failed, starting empty", "error", err)
		return nil
	}

	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		metrics.PersistFailed(storage.KeyCart, "decode")
		log.Warn("cart: stored cart is malformed, starting empty", "error", err)
		return nil
	}
	seen := make(map[models.ID]bool, len(lines))
	for _, l := range lines {
		if err := l.validate(); err != nil || seen[l.ID] {
			metrics.PersistFailed(storage.KeyCart, "decode")
			log.Warn("cart: stored cart is malformed, starting empty", "error", err, "id", l.ID)
			return nil
		}
		seen[l.ID] = true
	}
	return lines
}

// Add merges line into the cart: an existing line with the same id gains
// line.Quantity, otherwise line is appended. A quantity below 1 counts as 1.
func (s *Store) Add(ctx context.Context, line Line) {
	if line.Quantity < 1 {
		line.Quantity = 1
	}

	s.mu.Lock()
	if i := s.index(line.ID); i >= 0 {
		s.lines[i].Quantity += line.Quantity
	} else {
		s.lines = append(s.lines, line)
	}
	snap := s.commit(ctx)
	s.mu.Unlock()

	s.changes.Publish(snap)
}

// AddProduct adds qty units of p.
func (s *Store) AddProduct(ctx context.Context, p models.Product, qty int) {
	s.Add(ctx, FromProduct(p, qty))
}

// Remove deletes the line for id. Absent ids are a no-op.
func (s *Store) Remove(ctx context.Context, id models.ID) {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.lines = append(s.lines[:i:i], s.lines[i+1:]...)
	snap := s.commit(ctx)
	s.mu.Unlock()

	s.notifier.Notify(notification.Info("Item removed from cart", ""))
	s.changes.Publish(snap)
}

// UpdateQuantity sets the quantity of id to n. n < 1 removes the line;
// absent ids are a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, id models.ID, n int) {
	if n < 1 {
		s.Remove(ctx, id)
		return
	}

	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.lines[i].Quantity = n
	snap := s.commit(ctx)
	s.mu.Unlock()

	s.changes.Publish(snap)
}

// Clear empties the cart and deletes the persisted value.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.lines = nil
	if err := s.state.Delete(ctx, storage.KeyCart); err != nil {
		metrics.PersistFailed(storage.KeyCart, "delete")
		logger.WithCtx(ctx).Warn("cart: delete failed", "error", err)
	}
	s.mu.Unlock()

	s.changes.Publish(nil)
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Get returns the line for id.
func (s *Store) Get(id models.ID) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.lines[i], true
	}
	return Line{}, false
}

// Count is the sum of quantities.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Total is the sum of price x quantity.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.lines)
}

// Len is the number of distinct lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Empty reports whether the cart has no lines.
func (s *Store) Empty() bool { return s.Len() == 0 }

// Subscribe registers fn to receive the lines after every change.
func (s *Store) Subscribe(fn func([]Line)) (unsubscribe func()) {
	return s.changes.Subscribe(fn)
}

// Total sums price x quantity over lines.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// index must be called with mu held.
func (s *Store) index(id models.ID) int {
	for i, l := range s.lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// snapshot must be called with mu held.
func (s *Store) snapshot() []Line {
	return append([]Line(nil), s.lines...)
}

// commit persists the full cart and returns a snapshot for subscribers.
// Must be called with mu held.
func (s *Store) commit(ctx context.Context) []Line {
	snap := s.snapshot()
	raw, err := json.Marshal(orEmpty(snap))
	if err == nil {
		err = s.state.Put(ctx, storage.KeyCart, raw)
	}
	if err != nil {
		metrics.PersistFailed(storage.KeyCart, "write")
		logger.WithCtx(ctx).Warn("cart: persist failed, keeping in-memory cart", "error", err)
	}
	return snap
}

func orEmpty(lines []Line) []Line {
	if lines == nil {
		return []Line{}
	}
	return lines
}
