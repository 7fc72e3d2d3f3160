package models

import (
	"time"

	"github.com/gocql/gocql"
)

// StockMovement trace chaque variation de stock (checkout, réassort,
// ajustement manuel, compensation après échec).
type StockMovement struct {
	ID        gocql.UUID `json:"id"`
	ProductID gocql.UUID `json:"product_id"`
	Type      string     `json:"type"` // "checkout", "release", "restock", "adjustment"
	Quantity  int        `json:"quantity"`
	PrevStock int        `json:"prev_stock"`
	NewStock  int        `json:"new_stock"`
	Reason    string     `json:"reason,omitempty"`
	UserID    string     `json:"user_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
