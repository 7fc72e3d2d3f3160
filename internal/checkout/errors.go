package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart : rien à commander, l'appelant n'a pas de raison de réessayer
	ErrEmptyCart = errors.New("panier vide, rien à commander")

	// ErrConflict : contention transitoire sur la réservation de stock,
	// l'appelant peut réessayer un nombre borné de fois avec backoff
	ErrConflict = errors.New("conflit de réservation sur le stock, réessayez")

	// ErrUnknownPaymentMethod : moyen de paiement hors de l'énumération acceptée
	ErrUnknownPaymentMethod = errors.New("moyen de paiement inconnu")

	// ErrProductNotFound : le produit n'existe plus dans le catalogue
	ErrProductNotFound = errors.New("produit introuvable")

	errIllegalTransition = errors.New("transition d'état de checkout illégale")
)

// InsufficientStockError : au moins une ligne du panier ne peut pas être
// réservée. L'appelant peut proposer d'ajuster la quantité.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuffisant pour %s: demandé %d, disponible %d",
		e.ProductID, e.Requested, e.Available)
}

// PriceMismatchError : le total annoncé par le client diverge du total
// recalculé côté serveur — état client périmé, il doit recharger son panier.
type PriceMismatchError struct {
	Declared float64
	Computed float64
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("total annoncé %.2f€ différent du total calculé %.2f€",
		e.Declared, e.Computed)
}

// PersistenceError : le store est indisponible ou une écriture a échoué.
// Jamais réessayé automatiquement par ce coeur, l'appelant décide.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("erreur de persistance (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
