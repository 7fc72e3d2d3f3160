package models

import (
	"time"

	"github.com/gocql/gocql"
)

// PaymentMethod correspond aux moyens de paiement acceptés au checkout.
// Le traitement du paiement lui-même est délégué à un collaborateur externe.
type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "CreditCard"
	PaymentPayPal     PaymentMethod = "PayPal"
)

func (m PaymentMethod) IsValid() bool {
	return m == PaymentCreditCard || m == PaymentPayPal
}

type Order struct {
	ID            gocql.UUID    `json:"id"`
	UserID        string        `json:"user_id"`
	TotalPrice    float64       `json:"total_price"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	CreatedAt     time.Time     `json:"created_at"`
	Items         []OrderItem   `json:"items"`
}

// OrderItem fige le prix unitaire au moment de l'achat : un changement
// ultérieur du prix catalogue ne modifie jamais une commande existante.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}
