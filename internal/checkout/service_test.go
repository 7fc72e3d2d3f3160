package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/AngelCas04/BuyMore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userAlice = "user-alice"
	userBob   = "user-bob"

	productBook = "11111111-1111-1111-1111-111111111111"
	productPen  = "22222222-2222-2222-2222-222222222222"
	productMug  = "33333333-3333-3333-3333-333333333333"
)

type fixture struct {
	cart    *fakeCart
	catalog *fakeCatalog
	ledger  *fakeLedger
	orders  *fakeOrders
	service *Service
}

func newFixture() *fixture {
	f := &fixture{
		cart: newFakeCart(),
		catalog: &fakeCatalog{products: map[string]PricedProduct{
			productBook: {Name: "Livre Go", Price: 29.99},
			productPen:  {Name: "Stylo", Price: 2.50},
			productMug:  {Name: "Mug", Price: 9.99},
		}},
		ledger: newFakeLedger(map[string]int{
			productBook: 10,
			productPen:  100,
			productMug:  5,
		}),
		orders: &fakeOrders{},
	}
	f.service = NewService(f.cart, f.catalog, f.ledger, f.orders, nil)
	return f
}

func (f *fixture) fillCart(userID string, items ...models.CartItem) {
	f.cart.items[userID] = items
}

func TestCheckoutHappyPath(t *testing.T) {
	f := newFixture()
	f.fillCart(userAlice,
		models.CartItem{ProductID: productBook, Name: "Livre Go", Price: 29.99, Quantity: 2},
		models.CartItem{ProductID: productPen, Name: "Stylo", Price: 2.50, Quantity: 3},
	)

	receipt, err := f.service.Checkout(context.Background(), Request{
		UserID:        userAlice,
		DeclaredTotal: 67.48,
		PaymentMethod: models.PaymentCreditCard,
	})

	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, 67.48, receipt.TotalPrice)
	assert.Equal(t, models.PaymentCreditCard, receipt.PaymentMethod)
	assert.Len(t, receipt.Items, 2)

	assert.Equal(t, 8, f.ledger.stockOf(productBook))
	assert.Equal(t, 97, f.ledger.stockOf(productPen))
	assert.True(t, f.cart.cleared[userAlice])

	require.Equal(t, 1, f.orders.count())
	order := f.orders.written[0]
	assert.Equal(t, userAlice, order.UserID)
	assert.Equal(t, 67.48, order.TotalPrice)
	assert.Len(t, order.Items, 2)
}

func TestCheckoutPricesComeFromCatalog(t *testing.T) {
	f := newFixture()
	// le client annonce un prix unitaire mensonger, seul le catalogue compte
	f.fillCart(userAlice,
		models.CartItem{ProductID: productBook, Name: "Livre Go", Price: 0.01, Quantity: 1},
	)

	receipt, err := f.service.Checkout(context.Background(), Request{
		UserID:        userAlice,
		DeclaredTotal: 29.99,
		PaymentMethod: models.PaymentPayPal,
	})

	require.NoError(t, err)
	require.Len(t, receipt.Items, 1)
	assert.Equal(t, 29.99, receipt.Items[0].Price)
	assert.Equal(t, 29.99, receipt.TotalPrice)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture()

	receipt, err := f.service.Checkout(context.Background(), Request{
		UserID:        userAlice,
		PaymentMethod: models.PaymentCreditCard,
	})

	assert.Nil(t, receipt)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, f.orders.count())
	assert.Empty(t, f.ledger.reserves)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	f := newFixture()
	f.fillCart(userAlice,
		models.CartItem{ProductID: productMug, Name: "Mug", Price: 9.99, Quantity: 6},
	)

	receipt, err := f.service.Checkout(context.Background(), Request{
		UserID:        userAlice,
		DeclaredTotal: 59.94,
		PaymentMethod: models.PaymentCreditCard,
	})

	assert.Nil(t, receipt)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, productMug, stockErr.ProductID)
	assert.Equal(t, 6, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Available)

	// rien n'a bougé : ni stock, ni commande, ni panier
	assert.Equal(t, 5, f.ledger.stockOf(productMug))
	assert.Equal(t, 0, f.orders.count())
	assert.False(t, f.cart.cleared[userAlice])
	assert.Len(t, f.cart.items[userAlice], 1)
}

func TestCheckoutPriceMismatch(t *testing.T) {
	f := newFixture()
	f.fillCart(userAlice,
		models.CartItem{ProductID: productBook, Name: "Livre Go", Price: 19.99, Quantity: 1},
	)

	receipt, err := f.service.Checkout(context.Background(), Request{
		UserID:        userAlice,
		DeclaredTotal: 19.99, // le prix a changé depuis l'affichage du panier
		PaymentMethod: models.PaymentCreditCard,
	})

	assert.Nil(t, receipt)
	var priceErr *PriceMismatchError
	require.ErrorAs(t, err, &priceErr)
	assert.Equal(t, 19.99, priceErr.Declared)
	assert.Equal(t, 29.99, priceErr.Computed)

	assert.Equal(t, 10, f.ledger.stockOf(productBook))
	assert.Equal(t, 0, f.orders.count())
	assert.False(t, f.cart.cleared[userAlice])
}

func TestCheckoutPriceWithinTolerance(t *testing.T) {
	f := newFixture()
	f.fillCart(userAlice,
		models.CartItem{ProductID: productBook, Name: "Livre Go", Price: 29.99, Quantity: 1},
	)

	receipt, err := f.service.Checkout(context.Background(), Request{
		UserID:        userAlice,
		DeclaredTotal: 29.98, // un centime d'écart d'arrondi est toléré
		PaymentMethod: models.PaymentCreditCard,
	})

	require.NoError(t, err)
	assert.Equal(t, 29.99, receipt.TotalPrice)
}

func TestCheckoutUnknownProductInCart(t *testing.T) {
	f := newFixture()
	ghost := "99999999-9999-9999-9999-999999999999"
	f.fillCart(userAlice,
		models.CartItem{ProductID: ghost, Name: "Fantôme", Price: 1.00, Quantity: 1},
	)

	receipt, err := f.service.Checkout(context.Background(), Request{
		UserID:        userAlice,
		DeclaredTotal: 1.00,
		PaymentMethod: models.PaymentCreditCard,
	})

	assert.Nil(t, receipt)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, ghost, stockErr.ProductID)
	assert.Equal(t, 0, stockErr.Available)
}

func TestCheckoutInvalidQuantity(t *testing.T) {
	f := newFixture()
	f.fillCart(userAlice,
		models.CartItem{ProductID: productBook, Name: "Livre Go", Price: 29.99, Quantity: 0},
	)

	receipt, err := f.service.Checkout(context.Background(), Request{
		UserID:        userAlice,
		PaymentMethod: models.PaymentCreditCard,
	})

	assert.Nil(t, receipt)
	require.Error(t, err)
	assert.Empty(t, f.ledger.reserves)
}

func TestCheckoutUnknownPaymentMethod(t *testing.T) {
	f := newFixture()
	f.fillCart(userAlice,
		models.CartItem{ProductID: productBook, Name: "Livre Go", Price: 29.99, Quantity: 1},
	)

	receipt, err := f.service.Checkout(context.Background(), Request{
		UserID:        userAlice,
		DeclaredTotal: 29.99,
		PaymentMethod: "Bitcoin",
	})

	assert.Nil(t, receipt)
	assert.ErrorIs(t, err, ErrUnknownPaymentMethod)
	assert.Equal(t, 10, f.ledger.stockOf(productBook))
}

func TestCheckoutPartialReservationIsReleased(t *testing.T) {
	f := newFixture()
	f.fillCart(userAlice,
		models.CartItem{ProductID: productBook, Name: "Livre Go", Price: 29.99, Quantity: 2},
		models.CartItem{ProductID: productPen, Name: "Stylo", Price: 2.50, Quantity: 4},
		models.CartItem{ProductID: productMug, Name: "Mug", Price: 9.99, Quantity: 99},
	)

	receipt, err := f.service.Checkout(context.Background(), Request{
		UserID:        userAlice,
		DeclaredTotal: 2.*29.99 + 4*2.50 + 99*9.99,
		PaymentMethod: models.PaymentCreditCard,
	})

	assert.Nil(t, receipt)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, productMug, stockErr.ProductID)

	// les deux premières lignes réservées ont été rendues, en ordre inverse
	assert.Equal(t, 10, f.ledger.stockOf(productBook))
	assert.Equal(t, 100, f.ledger.stockOf(productPen))
	require.Len(t, f.ledger.releases, 2)
	assert.Equal(t, productPen, f.ledger.releases[0].productID)
	assert.Equal(t, productBook, f.ledger.releases[1].productID)

	assert.Equal(t, 0, f.orders.count())
	assert.False(t, f.cart.cleared[userAlice])
}

func TestCheckoutConflictAfterRetries(t *testing.T) {
	f := newFixture()
	f.fillCart(userAlice,
		models.CartItem{ProductID: productBook, Name: "Livre Go", Price: 29.99, Quantity: 1},
		models.CartItem{ProductID: productPen, Name: "Stylo", Price: 2.50, Quantity: 1},
	)
	f.ledger.reserveErrs[productPen] = ErrConflict

	receipt, err := f.service.Checkout(context.Background(), Request{
		UserID:        userAlice,
		DeclaredTotal: 32.49,
		PaymentMethod: models.PaymentCreditCard,
	})

	assert.Nil(t, receipt)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 10, f.ledger.stockOf(productBook))
	assert.Equal(t, 0, f.orders.count())
}

func TestCheckoutOrderWriteFailureReleasesStock(t *testing.T) {
	f := newFixture()
	f.fillCart(userAlice,
		models.CartItem{ProductID: productBook, Name: "Livre Go", Price: 29.99, Quantity: 3},
	)
	f.orders.writeErr = errors.New("timeout scylla")

	receipt, err := f.service.Checkout(context.Background(), Request{
		UserID:        userAlice,
		DeclaredTotal: 89.97,
		PaymentMethod: models.PaymentCreditCard,
	})

	assert.Nil(t, receipt)
	var persErr *PersistenceError
	require.ErrorAs(t, err, &persErr)
	assert.Equal(t, "écriture commande", persErr.Op)

	assert.Equal(t, 10, f.ledger.stockOf(productBook))
	assert.False(t, f.cart.cleared[userAlice])
}

func TestCheckoutCartClearFailureDiscardsOrder(t *testing.T) {
	f := newFixture()
	f.fillCart(userAlice,
		models.CartItem{ProductID: productBook, Name: "Livre Go", Price: 29.99, Quantity: 1},
	)
	f.cart.clearErr = errors.New("redis down")

	receipt, err := f.service.Checkout(context.Background(), Request{
		UserID:        userAlice,
		DeclaredTotal: 29.99,
		PaymentMethod: models.PaymentCreditCard,
	})

	assert.Nil(t, receipt)
	var persErr *PersistenceError
	require.ErrorAs(t, err, &persErr)
	assert.Equal(t, "vidage panier", persErr.Op)

	// la commande écrite a été effacée et le stock rendu
	require.Len(t, f.orders.discarded, 1)
	assert.Equal(t, f.orders.written[0].ID, f.orders.discarded[0].ID)
	assert.Equal(t, 10, f.ledger.stockOf(productBook))
}

func TestCheckoutCancelledContext(t *testing.T) {
	f := newFixture()
	f.fillCart(userAlice,
		models.CartItem{ProductID: productBook, Name: "Livre Go", Price: 29.99, Quantity: 1},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	receipt, err := f.service.Checkout(ctx, Request{
		UserID:        userAlice,
		DeclaredTotal: 29.99,
		PaymentMethod: models.PaymentCreditCard,
	})

	assert.Nil(t, receipt)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 10, f.ledger.stockOf(productBook))
	assert.Equal(t, 0, f.orders.count())
}

func TestCheckoutSnapshotFailure(t *testing.T) {
	f := newFixture()
	f.cart.snapshotErr = errors.New("redis: connection refused")

	receipt, err := f.service.Checkout(context.Background(), Request{
		UserID:        userAlice,
		PaymentMethod: models.PaymentCreditCard,
	})

	assert.Nil(t, receipt)
	var persErr *PersistenceError
	require.ErrorAs(t, err, &persErr)
	assert.Equal(t, "lecture panier", persErr.Op)
}

// Deux clients visent la dernière unité du même produit : exactement un
// seul checkout doit aboutir, l'autre repart en stock insuffisant (ou en
// conflit), et le stock final est zéro.
func TestCheckoutConcurrentLastUnit(t *testing.T) {
	f := newFixture()
	f.ledger.stock[productMug] = 1
	f.fillCart(userAlice,
		models.CartItem{ProductID: productMug, Name: "Mug", Price: 9.99, Quantity: 1},
	)
	f.fillCart(userBob,
		models.CartItem{ProductID: productMug, Name: "Mug", Price: 9.99, Quantity: 1},
	)

	var wg sync.WaitGroup
	results := make(map[string]error, 2)
	var mu sync.Mutex

	for _, userID := range []string{userAlice, userBob} {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			_, err := f.service.Checkout(context.Background(), Request{
				UserID:        uid,
				DeclaredTotal: 9.99,
				PaymentMethod: models.PaymentCreditCard,
			})
			mu.Lock()
			results[uid] = err
			mu.Unlock()
		}(userID)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		losses++
		var stockErr *InsufficientStockError
		if !errors.As(err, &stockErr) {
			assert.ErrorIs(t, err, ErrConflict)
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)
	assert.Equal(t, 0, f.ledger.stockOf(productMug))
	assert.Equal(t, 1, f.orders.count())
}

func TestCheckoutNotifierCalledAfterCommit(t *testing.T) {
	f := newFixture()
	notified := make(chan models.Order, 1)
	f.service = NewService(f.cart, f.catalog, f.ledger, f.orders, func(order models.Order, email string) {
		assert.Equal(t, "alice@example.com", email)
		notified <- order
	})
	f.fillCart(userAlice,
		models.CartItem{ProductID: productPen, Name: "Stylo", Price: 2.50, Quantity: 2},
	)

	receipt, err := f.service.Checkout(context.Background(), Request{
		UserID:        userAlice,
		Email:         "alice@example.com",
		DeclaredTotal: 5.00,
		PaymentMethod: models.PaymentPayPal,
	})

	require.NoError(t, err)
	order := <-notified
	assert.Equal(t, receipt.OrderID, order.ID)
	assert.Equal(t, 5.00, order.TotalPrice)
}
