// Package checkout prices the cart for the order summary and simulates order
// placement.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/observability"
	"storefront/pkg/domain"
)

const (
	// DefaultShipping is the flat shipping fee in minor units.
	DefaultShipping int64 = 4900
	// DefaultDelay is how long a simulated placement takes.
	DefaultDelay = 2 * time.Second
)

// ErrEmptyCart is returned when there is nothing to check out.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// Cart is the part of the cart store checkout depends on.
type Cart interface {
	Items() []domain.CartLineItem
	Deduct(ctx context.Context, lines []domain.CartLineItem) error
}

// Line is one priced row of the order summary.
type Line struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	LineTotal int64  `json:"lineTotal"`
}

// Quote is the order summary shown before placement.
type Quote struct {
	Lines     []Line `json:"lines"`
	ItemCount int    `json:"itemCount"`
	Subtotal  int64  `json:"subtotal"`
	Shipping  int64  `json:"shipping"`
	Total     int64  `json:"total"`
}

// Order is a placed order.
type Order struct {
	ID       string    `json:"id"`
	Quote    Quote     `json:"quote"`
	PlacedAt time.Time `json:"placedAt"`
}

// Service quotes and places orders against a cart.
type Service struct {
	cart     Cart
	shipping int64
	delay    time.Duration
	newID    func() string
	now      func() time.Time
	log      *zap.Logger
	rec      observability.Recorder
}

// Option configures a Service.
type Option func(*Service)

// WithShipping overrides the flat shipping fee. Negative values are ignored.
func WithShipping(cents int64) Option {
	return func(s *Service) {
		if cents >= 0 {
			s.shipping = cents
		}
	}
}

// WithDelay sets the simulated placement latency. Zero places immediately.
func WithDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r observability.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.rec = r
		}
	}
}

func withClock(now func() time.Time, newID func() string) Option {
	return func(s *Service) {
		s.now = now
		s.newID = newID
	}
}

// New returns a checkout service over c.
func New(c Cart, opts ...Option) *Service {
	s := &Service{
		cart:     c,
		shipping: DefaultShipping,
		delay:    DefaultDelay,
		newID:    uuid.NewString,
		now:      time.Now,
		log:      zap.NewNop(),
		rec:      observability.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Quote prices the current cart contents.
func (s *Service) Quote() (Quote, error) {
	return s.quote(s.cart.Items())
}

func (s *Service) quote(items []domain.CartLineItem) (Quote, error) {
	if len(items) == 0 {
		return Quote{}, ErrEmptyCart
	}
	q := Quote{Lines: make([]Line, 0, len(items)), Shipping: s.shipping}
	for _, it := range items {
		unit := it.Product.ResolvedPrice().Amount
		q.Lines = append(q.Lines, Line{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Quantity:  it.Quantity,
			UnitPrice: unit,
			LineTotal: it.LineTotal(),
		})
		q.Subtotal += it.LineTotal()
		q.ItemCount += it.Quantity
	}
	q.Total = q.Subtotal + q.Shipping
	return q, nil
}

// PlaceOrder snapshots the cart, waits out the simulated latency, then
// removes the ordered quantities. Anything added during the wait stays in the
// cart. If ctx ends first the cart is left untouched. A cart that updated in
// memory but failed to persist still counts as a placed order.
func (s *Service) PlaceOrder(ctx context.Context) (Order, error) {
	var order Order
	err := observability.Time(ctx, s.rec, "checkout.place_order", func() error {
		items := s.cart.Items()
		q, err := s.quote(items)
		if err != nil {
			return err
		}
		if s.delay > 0 {
			timer := time.NewTimer(s.delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return fmt.Errorf("checkout: place order: %w", ctx.Err())
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return fmt.Errorf("checkout: place order: %w", err)
		}
		if err := s.cart.Deduct(ctx, items); err != nil {
			if !errors.Is(err, cart.ErrPersist) {
				return err
			}
			s.log.Warn("ordered lines removed but not persisted", zap.Error(err))
		}
		order = Order{ID: s.newID(), Quote: q, PlacedAt: s.now().UTC()}
		s.log.Info("order placed",
			zap.String("order_id", order.ID),
			zap.Int("items", q.ItemCount),
			zap.Int64("total", q.Total))
		return nil
	})
	return order, err
}
