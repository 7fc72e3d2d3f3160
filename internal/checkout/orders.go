package checkout

import (
	"context"

	"github.com/AngelCas04/BuyMore/internal/database"
	"github.com/AngelCas04/BuyMore/internal/models"
	"github.com/gocql/gocql"
)

// ScyllaOrders écrit les commandes dans ks_orders. L'en-tête, la vue par
// utilisateur et les lignes partent dans un même batch logged : tout est
// appliqué ou rien ne l'est.
type ScyllaOrders struct{}

func NewScyllaOrders() *ScyllaOrders {
	return &ScyllaOrders{}
}

func (ScyllaOrders) Write(ctx context.Context, order *models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	batch := session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`
		INSERT INTO orders (order_id, user_id, total_price, payment_method, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.TotalPrice, string(order.PaymentMethod), order.CreatedAt)
	batch.Query(`
		INSERT INTO orders_by_user (user_id, created_at, order_id, total_price, payment_method)
		VALUES (?, ?, ?, ?, ?)`,
		order.UserID, order.CreatedAt, order.ID, order.TotalPrice, string(order.PaymentMethod))
	for _, item := range order.Items {
		batch.Query(`
			INSERT INTO order_items (order_id, product_id, name, quantity, price)
			VALUES (?, ?, ?, ?, ?)`,
			order.ID, item.ProductID, item.Name, item.Quantity, item.Price)
	}

	return session.ExecuteBatch(batch)
}

// Discard efface une commande écrite dont la finalisation a échoué, pour ne
// pas laisser coexister une commande et le panier qui l'a produite.
func (ScyllaOrders) Discard(ctx context.Context, order *models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	batch := session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(`DELETE FROM orders WHERE order_id = ?`, order.ID)
	batch.Query(`DELETE FROM orders_by_user WHERE user_id = ? AND created_at = ? AND order_id = ?`,
		order.UserID, order.CreatedAt, order.ID)
	batch.Query(`DELETE FROM order_items WHERE order_id = ?`, order.ID)

	return session.ExecuteBatch(batch)
}
