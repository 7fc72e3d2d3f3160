package checkout

import (
	"context"
	"sync"

	"github.com/AngelCas04/BuyMore/internal/models"
)

type fakeCart struct {
	mu          sync.Mutex
	items       map[string][]models.CartItem
	snapshotErr error
	clearErr    error
	cleared     map[string]bool
}

func newFakeCart() *fakeCart {
	return &fakeCart{
		items:   make(map[string][]models.CartItem),
		cleared: make(map[string]bool),
	}
}

func (f *fakeCart) Snapshot(_ context.Context, userID string) ([]models.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	return f.items[userID], nil
}

func (f *fakeCart) Clear(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	delete(f.items, userID)
	f.cleared[userID] = true
	return nil
}

type fakeCatalog struct {
	products map[string]PricedProduct
	err      error
}

func (f *fakeCatalog) Lookup(_ context.Context, productID string) (PricedProduct, error) {
	if f.err != nil {
		return PricedProduct{}, f.err
	}
	p, ok := f.products[productID]
	if !ok {
		return PricedProduct{}, ErrProductNotFound
	}
	return p, nil
}

type ledgerOp struct {
	productID string
	qty       int
}

type fakeLedger struct {
	mu          sync.Mutex
	stock       map[string]int
	reserveErrs map[string]error
	releaseErr  error
	reserves    []ledgerOp
	releases    []ledgerOp
}

func newFakeLedger(stock map[string]int) *fakeLedger {
	return &fakeLedger{stock: stock, reserveErrs: make(map[string]error)}
}

func (f *fakeLedger) TryReserve(_ context.Context, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.reserveErrs[productID]; err != nil {
		return err
	}
	available := f.stock[productID]
	if available < qty {
		return &InsufficientStockError{ProductID: productID, Requested: qty, Available: available}
	}
	f.stock[productID] = available - qty
	f.reserves = append(f.reserves, ledgerOp{productID, qty})
	return nil
}

func (f *fakeLedger) Release(_ context.Context, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.releaseErr != nil {
		return f.releaseErr
	}
	f.stock[productID] += qty
	f.releases = append(f.releases, ledgerOp{productID, qty})
	return nil
}

func (f *fakeLedger) stockOf(productID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stock[productID]
}

type fakeOrders struct {
	mu         sync.Mutex
	writeErr   error
	discardErr error
	written    []models.Order
	discarded  []models.Order
}

func (f *fakeOrders) Write(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, *order)
	return nil
}

func (f *fakeOrders) Discard(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.discardErr != nil {
		return f.discardErr
	}
	f.discarded = append(f.discarded, *order)
	return nil
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.written)
}
