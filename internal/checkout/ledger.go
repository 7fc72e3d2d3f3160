package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/AngelCas04/BuyMore/internal/database"
	"github.com/AngelCas04/BuyMore/internal/models"
	"github.com/gocql/gocql"
)

const (
	reserveRetries = 3
	releaseRetries = 5
)

// ScyllaLedger est la seule porte d'écriture sur products.stock pendant un
// checkout. Chaque décrément passe par un update conditionnel (LWT) : lire
// le stock, tenter `SET stock = lu - qty IF stock = lu`, relire et retenter
// si un autre checkout est passé entre temps.
type ScyllaLedger struct{}

func NewScyllaLedger() *ScyllaLedger {
	return &ScyllaLedger{}
}

// TryReserve décrémente le stock de qty unités, ou échoue sans rien changer.
// Sur la dernière unité, deux checkouts concurrents ne peuvent pas gagner
// tous les deux : un seul CAS est appliqué.
func (l *ScyllaLedger) TryReserve(ctx context.Context, productID string, qty int) error {
	pid, err := gocql.ParseUUID(productID)
	if err != nil {
		return &InsufficientStockError{ProductID: productID, Requested: qty}
	}

	session, err := database.GetProductsSession()
	if err != nil {
		return &PersistenceError{Op: "session produits", Err: err}
	}

	for i := 0; i < reserveRetries; i++ {
		var stock int
		err := session.Query(`SELECT stock FROM products WHERE product_id = ?`, pid).
			WithContext(ctx).Scan(&stock)
		if errors.Is(err, gocql.ErrNotFound) {
			return &InsufficientStockError{ProductID: productID, Requested: qty}
		}
		if err != nil {
			return &PersistenceError{Op: "lecture stock", Err: err}
		}

		if stock < qty {
			return &InsufficientStockError{ProductID: productID, Requested: qty, Available: stock}
		}

		var current int
		applied, err := session.Query(
			`UPDATE products SET stock = ? WHERE product_id = ? IF stock = ?`,
			stock-qty, pid, stock,
		).WithContext(ctx).ScanCAS(&current)
		if err != nil {
			return &PersistenceError{Op: "réservation stock", Err: err}
		}
		if applied {
			go l.recordMovement(pid, "checkout", -qty, stock, stock-qty)
			return nil
		}
		// CAS perdu : quelqu'un d'autre a modifié le stock, on relit
	}

	log.Printf("⚠️ Réservation abandonnée après %d CAS perdus sur %s", reserveRetries, productID)
	return ErrConflict
}

// Release rend qty unités réservées, typiquement en compensation d'un
// checkout avorté. Plus insistant que TryReserve : perdre une libération
// laisserait du stock fantôme.
func (l *ScyllaLedger) Release(ctx context.Context, productID string, qty int) error {
	pid, err := gocql.ParseUUID(productID)
	if err != nil {
		return fmt.Errorf("identifiant produit invalide: %s", productID)
	}

	session, err := database.GetProductsSession()
	if err != nil {
		return &PersistenceError{Op: "session produits", Err: err}
	}

	for i := 0; i < releaseRetries; i++ {
		var stock int
		err := session.Query(`SELECT stock FROM products WHERE product_id = ?`, pid).
			WithContext(ctx).Scan(&stock)
		if errors.Is(err, gocql.ErrNotFound) {
			// produit supprimé entre temps, rien à rendre
			return nil
		}
		if err != nil {
			return &PersistenceError{Op: "lecture stock", Err: err}
		}

		var current int
		applied, err := session.Query(
			`UPDATE products SET stock = ? WHERE product_id = ? IF stock = ?`,
			stock+qty, pid, stock,
		).WithContext(ctx).ScanCAS(&current)
		if err != nil {
			return &PersistenceError{Op: "libération stock", Err: err}
		}
		if applied {
			go l.recordMovement(pid, "release", qty, stock, stock+qty)
			return nil
		}
	}

	return fmt.Errorf("libération stock %s: abandon après %d tentatives", productID, releaseRetries)
}

func (l *ScyllaLedger) recordMovement(pid gocql.UUID, movementType string, qty, prev, next int) {
	session, err := database.GetProductsSession()
	if err != nil {
		return
	}

	m := models.StockMovement{
		ID:        gocql.TimeUUID(),
		ProductID: pid,
		Type:      movementType,
		Quantity:  qty,
		PrevStock: prev,
		NewStock:  next,
		CreatedAt: time.Now().UTC(),
	}

	err = session.Query(`
		INSERT INTO stock_movements (movement_id, product_id, type, quantity, prev_stock, new_stock, reason, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ProductID, m.Type, m.Quantity, m.PrevStock, m.NewStock, m.Reason, m.UserID, m.CreatedAt,
	).Exec()
	if err != nil {
		log.Printf("⚠️ Erreur enregistrement mouvement stock %s: %v", pid, err)
	}
}
