package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"github.com/AngelCas04/BuyMore/internal/database"
	"github.com/AngelCas04/BuyMore/internal/models"
)

//
// 📦 GET /api/orders — commandes de l'utilisateur connecté
//
func GetMyOrders(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// orders_by_user est clusterisée par created_at desc : les plus récentes d'abord
	iter := ordersSession.Query(`
		SELECT order_id, created_at, total_price, payment_method
		FROM orders_by_user WHERE user_id = ?`, userID).
		WithContext(c.Request.Context()).Iter()

	orders := []models.Order{}
	var order models.Order
	var paymentMethod string
	for iter.Scan(&order.ID, &order.CreatedAt, &order.TotalPrice, &paymentMethod) {
		order.UserID = userID
		order.PaymentMethod = models.PaymentMethod(paymentMethod)
		orders = append(orders, order)
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

//
// 📦 GET /api/orders/:id — détail d'une commande (lignes incluses)
//
func GetOrderByID(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var order models.Order
	var paymentMethod string
	err = ordersSession.Query(`
		SELECT order_id, user_id, total_price, payment_method, created_at
		FROM orders WHERE order_id = ?`, orderID).
		WithContext(c.Request.Context()).
		Scan(&order.ID, &order.UserID, &order.TotalPrice, &paymentMethod, &order.CreatedAt)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	order.PaymentMethod = models.PaymentMethod(paymentMethod)

	// Une commande n'est visible que par son propriétaire (ou un admin)
	if order.UserID != userID && c.GetString("role") != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Accès refusé"})
		return
	}

	iter := ordersSession.Query(`
		SELECT product_id, name, quantity, price
		FROM order_items WHERE order_id = ?`, orderID).
		WithContext(c.Request.Context()).Iter()

	var item models.OrderItem
	for iter.Scan(&item.ProductID, &item.Name, &item.Quantity, &item.Price) {
		order.Items = append(order.Items, item)
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture lignes de commande"})
		return
	}

	c.JSON(http.StatusOK, order)
}
