package checkout

import (
	"context"
	"errors"

	"github.com/AngelCas04/BuyMore/internal/database"
	"github.com/gocql/gocql"
)

// PricedProduct est la vue minimale du catalogue dont le checkout a besoin :
// le nom et le prix de référence. Le prix envoyé par le client ne sert
// jamais à tarifer.
type PricedProduct struct {
	Name  string
	Price float64
}

// ScyllaCatalog résout les produits dans ks_products.products.
type ScyllaCatalog struct{}

func NewScyllaCatalog() *ScyllaCatalog {
	return &ScyllaCatalog{}
}

func (ScyllaCatalog) Lookup(ctx context.Context, productID string) (PricedProduct, error) {
	pid, err := gocql.ParseUUID(productID)
	if err != nil {
		// identifiant malformé = produit qui n'existe pas
		return PricedProduct{}, ErrProductNotFound
	}

	session, err := database.GetProductsSession()
	if err != nil {
		return PricedProduct{}, err
	}

	var p PricedProduct
	err = session.Query(`SELECT name, price FROM products WHERE product_id = ?`, pid).
		WithContext(ctx).Scan(&p.Name, &p.Price)
	if errors.Is(err, gocql.ErrNotFound) {
		return PricedProduct{}, ErrProductNotFound
	}
	if err != nil {
		return PricedProduct{}, err
	}
	return p, nil
}
