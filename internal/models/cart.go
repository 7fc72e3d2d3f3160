package models

// CartItem est une ligne du panier Redis. Le prix stocké ici n'est qu'un
// affichage : le checkout retarife systématiquement depuis le catalogue.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"image_url,omitempty"`
}
