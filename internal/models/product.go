package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Product struct {
	ID        gocql.UUID `json:"id" db:"product_id"`
	Name      string     `json:"name" db:"name"`
	Category  string     `json:"category" db:"category"`
	Price     float64    `json:"price" db:"price"`
	Stock     int        `json:"stock" db:"stock"`
	ImageURL  string     `json:"image,omitempty" db:"image_url"`
	CreatedAt *time.Time `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
