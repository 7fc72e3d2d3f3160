package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/AngelCas04/BuyMore/internal/models"
	"github.com/gocql/gocql"
)

// PriceTolerance : écart maximal admis entre le total annoncé par le client
// et le total recalculé côté serveur (un centime, pour les arrondis float).
const PriceTolerance = 0.01

// CartStore fournit une copie figée du panier et le vide après commande.
type CartStore interface {
	Snapshot(ctx context.Context, userID string) ([]models.CartItem, error)
	Clear(ctx context.Context, userID string) error
}

// Catalog résout le nom et le prix de référence d'un produit.
type Catalog interface {
	Lookup(ctx context.Context, productID string) (PricedProduct, error)
}

// InventoryLedger réserve et libère du stock. TryReserve est tout-ou-rien
// pour une ligne : soit qty unités sont décomptées, soit rien ne change.
type InventoryLedger interface {
	TryReserve(ctx context.Context, productID string, qty int) error
	Release(ctx context.Context, productID string, qty int) error
}

// OrderStore persiste une commande complète, et sait l'effacer en
// compensation si la finalisation échoue.
type OrderStore interface {
	Write(ctx context.Context, order *models.Order) error
	Discard(ctx context.Context, order *models.Order) error
}

// Notifier est appelé hors du chemin critique après un commit (email de
// confirmation, facture...). Les erreurs de notification ne remettent
// jamais en cause la commande.
type Notifier func(order models.Order, email string)

// Request est la demande de checkout telle que reçue du client.
type Request struct {
	UserID        string
	Email         string
	DeclaredTotal float64
	PaymentMethod models.PaymentMethod
}

// Receipt est renvoyé au client après un commit réussi.
type Receipt struct {
	OrderID       gocql.UUID           `json:"order_id"`
	Items         []models.OrderItem   `json:"items"`
	TotalPrice    float64              `json:"total_price"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	CreatedAt     time.Time            `json:"created_at"`
}

// Service orchestre le passage de commande : validation du panier,
// réservation du stock ligne par ligne, écriture de la commande, vidage du
// panier. Chaque étape qui échoue défait les étapes déjà faites.
type Service struct {
	cart    CartStore
	catalog Catalog
	ledger  InventoryLedger
	orders  OrderStore
	notify  Notifier
}

func NewService(cart CartStore, catalog Catalog, ledger InventoryLedger, orders OrderStore, notify Notifier) *Service {
	return &Service{cart: cart, catalog: catalog, ledger: ledger, orders: orders, notify: notify}
}

// NewScyllaService câble le service sur Redis (panier) et ScyllaDB
// (catalogue, stock, commandes).
func NewScyllaService(notify Notifier) *Service {
	return NewService(NewRedisCart(), NewScyllaCatalog(), NewScyllaLedger(), NewScyllaOrders(), notify)
}

// Checkout exécute une tentative complète. Sur succès le stock est décrémenté,
// la commande existe et le panier est vide ; sur échec rien de tout cela
// n'est observable.
func (s *Service) Checkout(ctx context.Context, req Request) (*Receipt, error) {
	if !req.PaymentMethod.IsValid() {
		return nil, ErrUnknownPaymentMethod
	}

	att := newAttempt(req.UserID)

	// --- Validation : snapshot du panier et tarification serveur ---
	if err := att.to(StatusValidating); err != nil {
		return nil, err
	}

	items, err := s.cart.Snapshot(ctx, req.UserID)
	if err != nil {
		att.fail()
		return nil, &PersistenceError{Op: "lecture panier", Err: err}
	}
	if len(items) == 0 {
		att.fail()
		return nil, ErrEmptyCart
	}

	lines := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			att.fail()
			return nil, fmt.Errorf("quantité invalide (%d) pour %s", item.Quantity, item.ProductID)
		}
		p, err := s.catalog.Lookup(ctx, item.ProductID)
		if errors.Is(err, ErrProductNotFound) {
			// produit retiré du catalogue depuis son ajout au panier
			att.fail()
			return nil, &InsufficientStockError{ProductID: item.ProductID, Requested: item.Quantity}
		}
		if err != nil {
			att.fail()
			return nil, &PersistenceError{Op: "lecture produit", Err: err}
		}
		lines = append(lines, models.OrderItem{
			ProductID: item.ProductID,
			Name:      p.Name,
			Quantity:  item.Quantity,
			Price:     p.Price,
		})
	}

	total := round2(sum(lines))
	if math.Abs(total-req.DeclaredTotal) > PriceTolerance {
		att.fail()
		return nil, &PriceMismatchError{Declared: req.DeclaredTotal, Computed: total}
	}

	// --- Réservation du stock, ligne par ligne ---
	if err := att.to(StatusReserving); err != nil {
		return nil, err
	}

	reserved := make([]models.OrderItem, 0, len(lines))
	abort := func(cause error) error {
		s.releaseAll(att.userID, reserved)
		att.fail()
		return cause
	}

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			// annulation côté appelant : on rend ce qui est pris et on
			// laisse le client réessayer
			return nil, abort(ErrConflict)
		}
		if err := s.ledger.TryReserve(ctx, line.ProductID, line.Quantity); err != nil {
			return nil, abort(err)
		}
		reserved = append(reserved, line)
	}

	// --- Écriture de la commande ---
	if err := att.to(StatusWriting); err != nil {
		return nil, abort(err)
	}

	order := &models.Order{
		ID:            gocql.TimeUUID(),
		UserID:        req.UserID,
		TotalPrice:    total,
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     time.Now().UTC(),
		Items:         lines,
	}
	if err := s.orders.Write(ctx, order); err != nil {
		return nil, abort(&PersistenceError{Op: "écriture commande", Err: err})
	}

	// --- Vidage du panier ---
	if err := att.to(StatusClearing); err != nil {
		return nil, abort(err)
	}

	if err := s.cart.Clear(ctx, req.UserID); err != nil {
		// la commande ne doit pas survivre à un panier resté plein
		if derr := s.orders.Discard(context.WithoutCancel(ctx), order); derr != nil {
			log.Printf("❌ Compensation impossible, commande orpheline %s: %v", order.ID, derr)
		}
		return nil, abort(&PersistenceError{Op: "vidage panier", Err: err})
	}

	if err := att.to(StatusCommitted); err != nil {
		return nil, err
	}

	log.Printf("🛒 Commande %s validée pour %s (%.2f€, %d lignes)", order.ID, req.UserID, total, len(lines))

	if s.notify != nil {
		go s.notify(*order, req.Email)
	}

	return &Receipt{
		OrderID:       order.ID,
		Items:         lines,
		TotalPrice:    total,
		PaymentMethod: order.PaymentMethod,
		CreatedAt:     order.CreatedAt,
	}, nil
}

// releaseAll rend les réservations déjà prises, en ordre inverse. Exécuté
// sur un contexte neuf : la compensation doit aboutir même si l'appelant a
// annulé.
func (s *Service) releaseAll(userID string, reserved []models.OrderItem) {
	ctx := context.Background()
	for i := len(reserved) - 1; i >= 0; i-- {
		line := reserved[i]
		if err := s.ledger.Release(ctx, line.ProductID, line.Quantity); err != nil {
			log.Printf("❌ Échec libération stock %s x%d (checkout %s): %v",
				line.ProductID, line.Quantity, userID, err)
		}
	}
}

func sum(lines []models.OrderItem) float64 {
	var total float64
	for _, line := range lines {
		total += line.Price * float64(line.Quantity)
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
