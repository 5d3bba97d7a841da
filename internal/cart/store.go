// Package cart owns the shopping cart: ordered line items keyed by product id,
// derived totals, durable persistence and the transient panel visibility.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/internal/observability"
	"storefront/internal/storage"
	"storefront/pkg/domain"
)

// DefaultKey is the storage key holding the persisted line items.
const DefaultKey = "cart-storage"

// ErrPersist wraps storage failures while saving the cart. The in-memory
// mutation that triggered the save stays applied.
var ErrPersist = errors.New("cart: persist failed")

// ErrInvalidQuantity rejects an add of fewer than one unit.
var ErrInvalidQuantity = errors.New("cart: quantity must be at least one")

// State is a point-in-time view of the cart with derived values computed.
type State struct {
	Items     []domain.CartLineItem `json:"items"`
	IsOpen    bool                  `json:"isOpen"`
	Total     int64                 `json:"total"`
	ItemCount int                   `json:"itemCount"`
}

// Store is the cart. All methods are safe for concurrent use; each mutation
// completes, including its save, before the next one is observed.
type Store struct {
	mu     sync.Mutex
	kv     storage.Store
	key    string
	items  []domain.CartLineItem
	isOpen bool
	maxQty int
	log    *zap.Logger
	rec    observability.Recorder
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger; the default discards.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r observability.Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.rec = r
		}
	}
}

// WithMaxQuantity caps a line's quantity at n. Zero or negative disables the cap.
func WithMaxQuantity(n int) Option {
	return func(s *Store) { s.maxQty = n }
}

// New restores the cart from kv. Missing or malformed data yields an empty
// cart. A backend read failure is returned alongside a usable empty cart.
func New(ctx context.Context, kv storage.Store, opts ...Option) (*Store, error) {
	s := &Store{
		kv:  kv,
		key: DefaultKey,
		log: zap.NewNop(),
		rec: observability.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, s.restore(ctx)
}

func (s *Store) restore(ctx context.Context) error {
	b, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		s.log.Debug("no persisted cart", zap.String("key", s.key))
		return nil
	}
	if err != nil {
		s.log.Warn("cart restore failed", zap.String("key", s.key), zap.Error(err))
		return fmt.Errorf("cart: load %s: %w", s.key, err)
	}
	items, dropped, err := decodeItems(b)
	if err != nil {
		s.log.Debug("discarding malformed cart", zap.String("key", s.key), zap.Error(err))
		return nil
	}
	if dropped > 0 {
		s.log.Debug("repaired persisted cart", zap.Int("dropped_lines", dropped))
	}
	s.items = items
	return nil
}

// AddItem inserts the product with quantity one or increments its line, and
// opens the cart panel.
func (s *Store) AddItem(ctx context.Context, p domain.Product) error {
	return s.AddItemN(ctx, p, 1)
}

// AddItemN adds n units of the product in one mutation with a single save,
// and opens the cart panel. n below one fails with ErrInvalidQuantity and
// leaves the cart untouched.
func (s *Store) AddItemN(ctx context.Context, p domain.Product, n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, n)
	}
	return s.mutate(ctx, "cart.add_item", func() bool {
		s.isOpen = true
		if i := s.indexOf(p.ID); i >= 0 {
			s.items[i].Quantity = s.clamp(s.items[i].Quantity + n)
			return true
		}
		s.items = append(s.items, domain.CartLineItem{Product: p, Quantity: s.clamp(n)})
		return true
	})
}

// RemoveItem deletes the line for productID. Unknown ids are a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID int64) error {
	return s.mutate(ctx, "cart.remove_item", func() bool { return s.remove(productID) })
}

// UpdateQuantity sets the quantity of an existing line. A quantity below one
// removes the line; unknown ids are a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	return s.mutate(ctx, "cart.update_quantity", func() bool {
		if quantity < 1 {
			return s.remove(productID)
		}
		i := s.indexOf(productID)
		if i < 0 {
			return false
		}
		s.items[i].Quantity = s.clamp(quantity)
		return true
	})
}

// Deduct subtracts each given line's quantity from the matching cart line,
// dropping lines that reach zero. Lines added or grown since the snapshot
// keep the difference. Panel visibility is unchanged.
func (s *Store) Deduct(ctx context.Context, lines []domain.CartLineItem) error {
	return s.mutate(ctx, "cart.deduct", func() bool {
		changed := false
		for _, l := range lines {
			i := s.indexOf(l.Product.ID)
			if i < 0 || l.Quantity < 1 {
				continue
			}
			changed = true
			if left := s.items[i].Quantity - l.Quantity; left > 0 {
				s.items[i].Quantity = left
				continue
			}
			s.remove(l.Product.ID)
		}
		return changed
	})
}

// ClearCart empties the cart. Panel visibility is unchanged.
func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, "cart.clear", func() bool {
		s.items = nil
		return true
	})
}

// SetOpen sets the panel visibility. It is never persisted.
func (s *Store) SetOpen(open bool) {
	s.mu.Lock()
	s.isOpen = open
	s.mu.Unlock()
}

// Toggle flips the panel visibility and returns the new value.
func (s *Store) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = !s.isOpen
	return s.isOpen
}

// IsOpen reports the panel visibility.
func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOpen
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []domain.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartLineItem(nil), s.items...)
}

// Line returns the line for productID.
func (s *Store) Line(productID int64) (domain.CartLineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(productID); i >= 0 {
		return s.items[i], true
	}
	return domain.CartLineItem{}, false
}

// Total is the sum of resolved price times quantity over all lines. A line
// priced only by regularPrice counts at that price, not as zero, so the cart,
// product display and checkout agree on one price.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return total(s.items)
}

// ItemCount is the sum of quantities.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return count(s.items)
}

// State returns a consistent snapshot of items, visibility and derived values.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Items:     append([]domain.CartLineItem{}, s.items...),
		IsOpen:    s.isOpen,
		Total:     total(s.items),
		ItemCount: count(s.items),
	}
}

// mutate applies fn under the lock and saves when fn reports a change.
func (s *Store) mutate(ctx context.Context, op string, fn func() bool) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if fn() {
		err = s.persist(ctx)
	}
	s.rec.Observe(ctx, op, err == nil, time.Since(start))
	return err
}

func (s *Store) persist(ctx context.Context) error {
	b, err := encodeItems(s.items)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrPersist, err)
	}
	if _, err := s.kv.Put(ctx, s.key, b); err != nil {
		s.log.Warn("cart persist failed", zap.String("key", s.key), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (s *Store) remove(productID int64) bool {
	i := s.indexOf(productID)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

func (s *Store) indexOf(productID int64) int {
	for i := range s.items {
		if s.items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) clamp(q int) int {
	if s.maxQty > 0 && q > s.maxQty {
		return s.maxQty
	}
	return q
}

func total(items []domain.CartLineItem) int64 {
	var sum int64
	for _, line := range items {
		sum += line.LineTotal()
	}
	return sum
}

func count(items []domain.CartLineItem) int {
	n := 0
	for _, line := range items {
		n += line.Quantity
	}
	return n
}
