package cart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/storage"
	"storefront/pkg/domain"
)

func product(id int64, price int64) domain.Product {
	return domain.Product{ID: id, Name: "p", Slug: "p", Price: domain.Cents(price)}
}

func newCart(t *testing.T, kv storage.Store, opts ...Option) *Store {
	t.Helper()
	s, err := New(context.Background(), kv, opts...)
	require.NoError(t, err)
	return s
}

// countingStore wraps a store and counts writes, optionally failing them.
type countingStore struct {
	storage.Store
	puts    int
	failPut error
	failGet error
}

func (c *countingStore) Put(ctx context.Context, key string, value []byte) (storage.Info, error) {
	c.puts++
	if c.failPut != nil {
		return storage.Info{}, c.failPut
	}
	return c.Store.Put(ctx, key, value)
}

func (c *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if c.failGet != nil {
		return nil, c.failGet
	}
	return c.Store.Get(ctx, key)
}

type recordedObservation struct {
	op      string
	success bool
}

type fakeRecorder struct{ obs []recordedObservation }

func (f *fakeRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	f.obs = append(f.obs, recordedObservation{op, success})
}

func TestRepeatedAddYieldsSingleLine(t *testing.T) {
	ctx := context.Background()
	c := newCart(t, storage.NewMemory())
	p := product(1, 1190)
	for i := 0; i < 5; i++ {
		require.NoError(t, c.AddItem(ctx, p))
	}
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 5, c.ItemCount())
}

func TestAddItemOpensPanel(t *testing.T) {
	c := newCart(t, storage.NewMemory())
	assert.False(t, c.IsOpen())
	require.NoError(t, c.AddItem(context.Background(), product(1, 100)))
	assert.True(t, c.IsOpen())
}

func TestAddItemNSavesOnce(t *testing.T) {
	ctx := context.Background()
	kv := &countingStore{Store: storage.NewMemory()}
	c := newCart(t, kv)
	require.NoError(t, c.AddItemN(ctx, product(1, 100), 3))
	require.NoError(t, c.AddItemN(ctx, product(1, 100), 2))
	line, ok := c.Line(1)
	require.True(t, ok)
	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, 2, kv.puts)
	assert.True(t, c.IsOpen())
}

func TestAddItemNRejectsNonPositive(t *testing.T) {
	ctx := context.Background()
	kv := &countingStore{Store: storage.NewMemory()}
	c := newCart(t, kv)
	for _, n := range []int{0, -2} {
		err := c.AddItemN(ctx, product(1, 100), n)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.Empty(t, c.Items())
	assert.False(t, c.IsOpen())
	assert.Equal(t, 0, kv.puts)
}

func TestAddItemWithoutPrice(t *testing.T) {
	c := newCart(t, storage.NewMemory())
	require.NoError(t, c.AddItem(context.Background(), domain.Product{ID: 9}))
	assert.Equal(t, int64(0), c.Total())
	assert.Equal(t, 1, c.ItemCount())
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	ctx := context.Background()
	kv := &countingStore{Store: storage.NewMemory()}
	c := newCart(t, kv)
	require.NoError(t, c.AddItem(ctx, product(1, 100)))
	require.NoError(t, c.AddItem(ctx, product(2, 100)))

	require.NoError(t, c.RemoveItem(ctx, 1))
	once := c.State()
	putsAfterFirst := kv.puts
	require.NoError(t, c.RemoveItem(ctx, 1))
	assert.Equal(t, once, c.State())
	assert.Equal(t, putsAfterFirst, kv.puts, "a no-op removal must not persist")
}

func TestUpdateQuantityBelowOneRemoves(t *testing.T) {
	ctx := context.Background()
	build := func() *Store {
		c := newCart(t, storage.NewMemory())
		require.NoError(t, c.AddItem(ctx, product(1, 100)))
		require.NoError(t, c.AddItem(ctx, product(2, 200)))
		return c
	}
	viaUpdate := build()
	require.NoError(t, viaUpdate.UpdateQuantity(ctx, 1, 0))
	viaRemove := build()
	require.NoError(t, viaRemove.RemoveItem(ctx, 1))
	assert.Equal(t, viaRemove.State(), viaUpdate.State())

	negative := build()
	require.NoError(t, negative.UpdateQuantity(ctx, 1, -3))
	assert.Equal(t, viaRemove.State(), negative.State())
}

func TestUpdateQuantitySetsAndIgnoresUnknown(t *testing.T) {
	ctx := context.Background()
	kv := &countingStore{Store: storage.NewMemory()}
	c := newCart(t, kv)
	require.NoError(t, c.AddItem(ctx, product(1, 100)))
	require.NoError(t, c.UpdateQuantity(ctx, 1, 7))
	line, ok := c.Line(1)
	require.True(t, ok)
	assert.Equal(t, 7, line.Quantity)

	puts := kv.puts
	require.NoError(t, c.UpdateQuantity(ctx, 42, 3))
	assert.Equal(t, puts, kv.puts)
	_, ok = c.Line(42)
	assert.False(t, ok)
}

func TestMaxQuantityClamps(t *testing.T) {
	ctx := context.Background()
	c := newCart(t, storage.NewMemory(), WithMaxQuantity(3))
	require.NoError(t, c.UpdateQuantity(ctx, 1, 5)) // unknown id, no-op
	require.NoError(t, c.AddItem(ctx, product(1, 100)))
	require.NoError(t, c.UpdateQuantity(ctx, 1, 99))
	require.NoError(t, c.AddItem(ctx, product(1, 100)))
	line, _ := c.Line(1)
	assert.Equal(t, 3, line.Quantity)
}

func TestTotalUsesResolvedPrice(t *testing.T) {
	ctx := context.Background()
	c := newCart(t, storage.NewMemory())
	a := product(1, 1190)
	b := product(2, 500)
	require.NoError(t, c.AddItem(ctx, a))
	require.NoError(t, c.AddItem(ctx, a))
	require.NoError(t, c.AddItem(ctx, b))
	assert.Equal(t, int64(2880), c.Total())

	regularOnly := domain.Product{ID: 3, RegularPrice: domain.Cents(300)}
	require.NoError(t, c.AddItem(ctx, regularOnly))
	assert.Equal(t, int64(3180), c.Total())
	assert.Equal(t, 4, c.State().ItemCount)
}

func TestClearCartKeepsVisibility(t *testing.T) {
	ctx := context.Background()
	c := newCart(t, storage.NewMemory())
	require.NoError(t, c.AddItem(ctx, product(1, 100)))
	require.NoError(t, c.ClearCart(ctx))
	st := c.State()
	assert.Empty(t, st.Items)
	assert.True(t, st.IsOpen)
	assert.Zero(t, st.Total)
}

func TestVisibilityIsTransient(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	c := newCart(t, kv)
	require.NoError(t, c.AddItem(ctx, product(1, 100)))
	assert.False(t, c.Toggle())
	assert.True(t, c.Toggle())
	c.SetOpen(true)

	reloaded := newCart(t, kv)
	assert.False(t, reloaded.IsOpen())
}

func TestPersistReloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	c := newCart(t, kv)
	require.NoError(t, c.AddItem(ctx, product(3, 100)))
	require.NoError(t, c.AddItem(ctx, product(1, 200)))
	require.NoError(t, c.AddItem(ctx, product(2, 300)))
	require.NoError(t, c.UpdateQuantity(ctx, 1, 4))

	reloaded := newCart(t, kv)
	got := reloaded.Items()
	want := c.Items()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Product.ID, got[i].Product.ID)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
	}
	assert.Equal(t, c.Total(), reloaded.Total())
}

func TestEveryItemMutationPersists(t *testing.T) {
	ctx := context.Background()
	kv := &countingStore{Store: storage.NewMemory()}
	c := newCart(t, kv)
	require.NoError(t, c.AddItem(ctx, product(1, 100)))
	require.NoError(t, c.UpdateQuantity(ctx, 1, 2))
	require.NoError(t, c.RemoveItem(ctx, 1))
	require.NoError(t, c.ClearCart(ctx))
	c.SetOpen(false)
	c.Toggle()
	assert.Equal(t, 4, kv.puts)
}

func TestPersistedShape(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	c := newCart(t, kv)
	require.NoError(t, c.AddItem(ctx, product(5, 100)))
	raw, err := kv.Get(ctx, DefaultKey)
	require.NoError(t, err)
	var decoded []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)
	assert.Contains(t, decoded[0], "product")
	assert.JSONEq(t, "1", string(decoded[0]["quantity"]))

	require.NoError(t, c.ClearCart(ctx))
	raw, _ = kv.Get(ctx, DefaultKey)
	assert.Equal(t, "[]", string(raw))
}

func TestRestoreRepairsInvariants(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	_, err := kv.Put(ctx, DefaultKey, []byte(`[
		{"product":{"id":1,"price":100},"quantity":2},
		{"product":{"id":2,"price":100},"quantity":0},
		{"product":{"id":1,"price":999},"quantity":5},
		{"product":{"id":3,"price":100},"quantity":-1},
		{"product":{"id":4,"price":100},"quantity":1}
	]`))
	require.NoError(t, err)
	c := newCart(t, kv)
	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].Product.ID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, int64(4), items[1].Product.ID)
}

func TestRestoreMalformedYieldsEmpty(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"{not json", `{"items":[]}`, `"cart"`} {
		kv := storage.NewMemory()
		_, err := kv.Put(ctx, DefaultKey, []byte(raw))
		require.NoError(t, err)
		c := newCart(t, kv)
		assert.Empty(t, c.Items(), "input %q", raw)
	}
}

func TestRestoreBackendErrorReturnsUsableCart(t *testing.T) {
	boom := errors.New("disk gone")
	kv := &countingStore{Store: storage.NewMemory(), failGet: boom}
	c, err := New(context.Background(), kv)
	require.ErrorIs(t, err, boom)
	require.NotNil(t, c)
	assert.Empty(t, c.Items())
	require.NoError(t, c.AddItem(context.Background(), product(1, 100)))
}

func TestPersistFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("quota exceeded")
	kv := &countingStore{Store: storage.NewMemory(), failPut: boom}
	rec := &fakeRecorder{}
	c := newCart(t, kv, WithRecorder(rec))

	err := c.AddItem(ctx, product(1, 100))
	require.ErrorIs(t, err, ErrPersist)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, c.ItemCount())
	require.Len(t, rec.obs, 1)
	assert.Equal(t, recordedObservation{"cart.add_item", false}, rec.obs[0])
}

func TestCustomKey(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	c := newCart(t, kv, WithKey("carts/alice"), WithKey(""))
	require.NoError(t, c.AddItem(ctx, product(1, 100)))
	_, err := kv.Get(ctx, "carts/alice")
	assert.NoError(t, err)
	_, err = kv.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestItemsReturnsCopy(t *testing.T) {
	c := newCart(t, storage.NewMemory())
	require.NoError(t, c.AddItem(context.Background(), product(1, 100)))
	items := c.Items()
	items[0].Quantity = 99
	line, _ := c.Line(1)
	assert.Equal(t, 1, line.Quantity)
}

func TestDeductRemovesOnlySnapshotQuantities(t *testing.T) {
	ctx := context.Background()
	kv := &countingStore{Store: storage.NewMemory()}
	c := newCart(t, kv)
	require.NoError(t, c.AddItemN(ctx, product(1, 100), 2))
	require.NoError(t, c.AddItem(ctx, product(2, 200)))
	snapshot := c.Items()

	require.NoError(t, c.AddItem(ctx, product(1, 100)))
	require.NoError(t, c.AddItem(ctx, product(3, 300)))
	before := kv.puts
	require.NoError(t, c.Deduct(ctx, snapshot))
	assert.Equal(t, before+1, kv.puts)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].Product.ID)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, int64(3), items[1].Product.ID)

	require.NoError(t, c.Deduct(ctx, []domain.CartLineItem{{Product: product(9, 1), Quantity: 1}}))
	assert.Equal(t, before+1, kv.puts, "unknown lines do not save")
}
