package orders

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msmelab/go-commerce/internal/inventory"
)

func newEngine(t *testing.T) (*Engine, *inventory.MemStore, *MemLedger) {
	t.Helper()
	store := inventory.NewMemStore()
	ledger := NewMemLedger()
	return &Engine{Inventory: store, Ledger: ledger, Timeout: 5 * time.Second}, store, ledger
}

func stockOf(t *testing.T, store *inventory.MemStore, id string) int {
	t.Helper()
	p, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestPlaceOrder_SingleLine(t *testing.T) {
	e, store, ledger := newEngine(t)
	store.Put(inventory.Product{ID: "A", Name: "Widget", PriceCents: 250, Stock: 10})

	o, err := e.PlaceOrder(context.Background(), "user-1", []LineRequest{{ProductID: "A", Quantity: 4}})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "user-1", o.UserID)
	assert.Equal(t, 4*250, o.TotalCents)
	require.Len(t, o.Lines, 1)
	assert.Equal(t, OrderLine{ProductID: "A", Quantity: 4, PriceCents: 250}, o.Lines[0])

	assert.Equal(t, 6, stockOf(t, store, "A"))
	require.Len(t, ledger.All(), 1)
	assert.Equal(t, o.ID, ledger.All()[0].ID)
}

func TestPlaceOrder_SequentialOrdersDecrementIndependently(t *testing.T) {
	e, store, _ := newEngine(t)
	store.Put(inventory.Product{ID: "A", PriceCents: 100, Stock: 10})

	lines := []LineRequest{{ProductID: "A", Quantity: 4}}

	first, err := e.PlaceOrder(context.Background(), "user-1", lines)
	require.NoError(t, err)
	assert.Equal(t, 400, first.TotalCents)
	assert.Equal(t, 6, stockOf(t, store, "A"))

	second, err := e.PlaceOrder(context.Background(), "user-1", lines)
	require.NoError(t, err)
	assert.Equal(t, 400, second.TotalCents)
	assert.Equal(t, 2, stockOf(t, store, "A"))

	// no idempotency key: identical requests create distinct orders
	assert.NotEqual(t, first.ID, second.ID)
}

func TestPlaceOrder_InsufficientStockRollsBackEarlierLines(t *testing.T) {
	e, store, ledger := newEngine(t)
	store.Put(inventory.Product{ID: "A", PriceCents: 100, Stock: 10})
	store.Put(inventory.Product{ID: "B", PriceCents: 100, Stock: 0})

	_, err := e.PlaceOrder(context.Background(), "user-1", []LineRequest{
		{ProductID: "A", Quantity: 2},
		{ProductID: "B", Quantity: 1},
	})

	var short *inventory.InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, "B", short.ProductID)
	assert.Equal(t, 0, short.Available)
	assert.Equal(t, 1, short.Requested)

	// A's provisional reservation was released
	assert.Equal(t, 10, stockOf(t, store, "A"))
	assert.Equal(t, 0, stockOf(t, store, "B"))
	assert.Empty(t, ledger.All())
}

func TestPlaceOrder_ProductNotFoundRollsBack(t *testing.T) {
	e, store, ledger := newEngine(t)
	store.Put(inventory.Product{ID: "A", PriceCents: 100, Stock: 10})

	_, err := e.PlaceOrder(context.Background(), "user-1", []LineRequest{
		{ProductID: "A", Quantity: 3},
		{ProductID: "ghost", Quantity: 1},
	})

	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.ProductID)
	assert.ErrorIs(t, err, inventory.ErrProductNotFound)

	assert.Equal(t, 10, stockOf(t, store, "A"))
	assert.Empty(t, ledger.All())
}

func TestPlaceOrder_DuplicateLinesReserveIndependently(t *testing.T) {
	e, store, _ := newEngine(t)
	store.Put(inventory.Product{ID: "A", PriceCents: 100, Stock: 10})

	o, err := e.PlaceOrder(context.Background(), "user-1", []LineRequest{
		{ProductID: "A", Quantity: 2},
		{ProductID: "A", Quantity: 3},
	})
	require.NoError(t, err)

	// not merged: two lines, input order preserved
	require.Len(t, o.Lines, 2)
	assert.Equal(t, 2, o.Lines[0].Quantity)
	assert.Equal(t, 3, o.Lines[1].Quantity)
	assert.Equal(t, 500, o.TotalCents)
	assert.Equal(t, 5, stockOf(t, store, "A"))
}

func TestPlaceOrder_DuplicateLinesRollBackTogether(t *testing.T) {
	e, store, ledger := newEngine(t)
	store.Put(inventory.Product{ID: "A", PriceCents: 100, Stock: 4})

	_, err := e.PlaceOrder(context.Background(), "user-1", []LineRequest{
		{ProductID: "A", Quantity: 3},
		{ProductID: "A", Quantity: 3},
	})

	var short *inventory.InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 1, short.Available)
	assert.Equal(t, 4, stockOf(t, store, "A"))
	assert.Empty(t, ledger.All())
}

func TestPlaceOrder_LedgerFailureReleasesStock(t *testing.T) {
	e, store, ledger := newEngine(t)
	store.Put(inventory.Product{ID: "A", PriceCents: 100, Stock: 10})
	ledger.FailNext = errors.New("ledger down")

	_, err := e.PlaceOrder(context.Background(), "user-1", []LineRequest{{ProductID: "A", Quantity: 4}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, inventory.ErrProductNotFound)

	assert.Equal(t, 10, stockOf(t, store, "A"))
	assert.Empty(t, ledger.All())
}

func TestPlaceOrder_InputValidation(t *testing.T) {
	e, store, ledger := newEngine(t)
	store.Put(inventory.Product{ID: "A", PriceCents: 100, Stock: 10})

	_, err := e.PlaceOrder(context.Background(), "user-1", nil)
	assert.ErrorIs(t, err, ErrEmptyOrder)

	for _, qty := range []int{0, -1} {
		_, err = e.PlaceOrder(context.Background(), "user-1", []LineRequest{{ProductID: "A", Quantity: qty}})
		var badQty *InvalidQuantityError
		assert.ErrorAs(t, err, &badQty)
	}

	assert.Equal(t, 10, stockOf(t, store, "A"))
	assert.Empty(t, ledger.All())
}

func TestPlaceOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	e, store, ledger := newEngine(t)
	store.Put(inventory.Product{ID: "A", PriceCents: 100, Stock: 5})

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = e.PlaceOrder(context.Background(), "user-1",
				[]LineRequest{{ProductID: "A", Quantity: 3}})
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var short *inventory.InsufficientStockError
		require.ErrorAs(t, err, &short)
		rejected++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 2, stockOf(t, store, "A"))
	assert.Len(t, ledger.All(), 1)
}

// hangingStore blocks lookups of one product until the caller's deadline
// expires, simulating a stalled store.
type hangingStore struct {
	*inventory.MemStore
	slowID string
}

func (s *hangingStore) Get(ctx context.Context, productID string) (inventory.Product, error) {
	if productID == s.slowID {
		<-ctx.Done()
		return inventory.Product{}, ctx.Err()
	}
	return s.MemStore.Get(ctx, productID)
}

func TestPlaceOrder_TimeoutIsTransientAndRollsBack(t *testing.T) {
	mem := inventory.NewMemStore()
	mem.Put(inventory.Product{ID: "A", PriceCents: 100, Stock: 10})
	mem.Put(inventory.Product{ID: "slow", PriceCents: 100, Stock: 10})
	ledger := NewMemLedger()
	e := &Engine{
		Inventory: &hangingStore{MemStore: mem, slowID: "slow"},
		Ledger:    ledger,
		Timeout:   50 * time.Millisecond,
	}

	_, err := e.PlaceOrder(context.Background(), "user-1", []LineRequest{
		{ProductID: "A", Quantity: 2},
		{ProductID: "slow", Quantity: 1},
	})

	// a timeout is a transient failure, not a client error
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	var short *inventory.InsufficientStockError
	assert.False(t, errors.As(err, &short))
	var notFound *ProductNotFoundError
	assert.False(t, errors.As(err, &notFound))

	// A's reservation was released even though the order's context is dead
	assert.Equal(t, 10, stockOf(t, mem, "A"))
	assert.Empty(t, ledger.All())
}

// brokenReleaseStore fails every Release, simulating a store outage in the
// middle of a rollback.
type brokenReleaseStore struct {
	*inventory.MemStore
	releases int
}

func (s *brokenReleaseStore) Release(ctx context.Context, productID string, qty int) error {
	s.releases++
	return errors.New("store unreachable")
}

func TestPlaceOrder_FailedReleaseLogsReconcile(t *testing.T) {
	mem := inventory.NewMemStore()
	mem.Put(inventory.Product{ID: "A", PriceCents: 100, Stock: 10})
	mem.Put(inventory.Product{ID: "B", PriceCents: 100, Stock: 0})
	store := &brokenReleaseStore{MemStore: mem}
	ledger := NewMemLedger()
	e := &Engine{Inventory: store, Ledger: ledger, Timeout: 5 * time.Second}

	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	_, err := e.PlaceOrder(context.Background(), "user-1", []LineRequest{
		{ProductID: "A", Quantity: 2},
		{ProductID: "B", Quantity: 1},
	})

	// the caller still sees the original rejection
	var short *inventory.InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, "B", short.ProductID)

	// one release attempt, no retry loop, no panic; the inconsistency is
	// logged for out-of-band reconciliation
	assert.Equal(t, 1, store.releases)
	assert.Contains(t, buf.String(), "RECONCILE")
	assert.Contains(t, buf.String(), "product=A")
	assert.Contains(t, buf.String(), "qty=2")

	// the failed release leaves A decremented with no matching order
	assert.Equal(t, 8, stockOf(t, mem, "A"))
	assert.Empty(t, ledger.All())
}

func TestPlaceOrder_ListForUserReturnsOwnOrdersOnly(t *testing.T) {
	e, store, ledger := newEngine(t)
	store.Put(inventory.Product{ID: "A", PriceCents: 100, Stock: 10})

	_, err := e.PlaceOrder(context.Background(), "alice", []LineRequest{{ProductID: "A", Quantity: 1}})
	require.NoError(t, err)
	_, err = e.PlaceOrder(context.Background(), "bob", []LineRequest{{ProductID: "A", Quantity: 2}})
	require.NoError(t, err)

	got, err := ledger.ListForUser(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].UserID)
}
