package admin

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/AngelCas04/BuyMore/internal/database"
	"github.com/AngelCas04/BuyMore/internal/models"
)

type orderWithCustomer struct {
	models.Order
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
}

//
// 📊 GET /api/admin/orders — toutes les commandes, avec le nom du client
//
func GetAllOrders(c *gin.Context) {
	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := ordersSession.Query(`SELECT order_id, user_id, total_price, payment_method, created_at FROM orders`).
		WithContext(c.Request.Context()).Iter()

	orders := []orderWithCustomer{}
	var o models.Order
	var paymentMethod string
	for iter.Scan(&o.ID, &o.UserID, &o.TotalPrice, &paymentMethod, &o.CreatedAt) {
		o.PaymentMethod = models.PaymentMethod(paymentMethod)
		orders = append(orders, orderWithCustomer{Order: o})
		o = models.Order{}
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commandes"})
		return
	}

	// Résolution des noms clients, une lecture par utilisateur distinct
	usersSession, err := database.GetUsersSession()
	if err == nil {
		type customer struct{ name, email string }
		cache := make(map[string]customer)
		for i := range orders {
			userID := orders[i].UserID
			cust, ok := cache[userID]
			if !ok {
				usersSession.Query(`SELECT name, email FROM users WHERE user_id = ?`, userID).
					WithContext(c.Request.Context()).Scan(&cust.name, &cust.email)
				cache[userID] = cust
			}
			orders[i].CustomerName = cust.name
			orders[i].CustomerEmail = cust.email
		}
	}

	// Les plus récentes d'abord
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
