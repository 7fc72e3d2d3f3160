package product

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"github.com/AngelCas04/BuyMore/internal/database"
	"github.com/AngelCas04/BuyMore/internal/models"
)

const stockUpdateRetries = 5

//
// 📦 POST /api/products/:id/restock (admin)
//
func RestockProduct(c *gin.Context) {
	applyStockChange(c, "restock", func(current, delta int) (int, bool) {
		if delta <= 0 {
			return 0, false
		}
		return current + delta, true
	})
}

//
// 🔧 POST /api/products/:id/adjust (admin) — correction d'inventaire, delta
// positif ou négatif
//
func AdjustStock(c *gin.Context) {
	applyStockChange(c, "adjustment", func(current, delta int) (int, bool) {
		next := current + delta
		return next, next >= 0
	})
}

// applyStockChange fait muter le stock par CAS, comme le checkout : les
// décréments concurrents ne peuvent pas se marcher dessus.
func applyStockChange(c *gin.Context, movementType string, apply func(current, delta int) (int, bool)) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	var input struct {
		Quantity int    `json:"quantity" binding:"required"`
		Reason   string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	for i := 0; i < stockUpdateRetries; i++ {
		var stock int
		if err := session.Query(`SELECT stock FROM products WHERE product_id = ?`, productID).
			WithContext(c.Request.Context()).Scan(&stock); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
			return
		}

		next, ok := apply(stock, input.Quantity)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Quantité invalide pour cette opération",
				"current": stock,
			})
			return
		}

		var current int
		applied, err := session.Query(`UPDATE products SET stock = ? WHERE product_id = ? IF stock = ?`,
			next, productID, stock).WithContext(c.Request.Context()).ScanCAS(&current)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour stock"})
			return
		}
		if !applied {
			continue // quelqu'un d'autre a touché le stock, on relit
		}

		recordStockMovement(productID, movementType, input.Quantity, stock, next, input.Reason, c.GetString("user_id"))
		invalidateProductsCache()

		c.JSON(http.StatusOK, gin.H{
			"message":   "Stock mis à jour",
			"productId": productID.String(),
			"stock":     next,
		})
		return
	}

	c.JSON(http.StatusConflict, gin.H{"error": "Stock trop disputé, réessayez"})
}

//
// 📉 GET /api/admin/inventory/low?threshold=5 (admin)
//
func GetLowStockProducts(c *gin.Context) {
	threshold := 5
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Seuil invalide"})
			return
		}
		threshold = parsed
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT product_id, name, category, price, stock, image_url FROM products`).
		WithContext(c.Request.Context()).Iter()

	low := []models.Product{}
	var p models.Product
	for iter.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.ImageURL) {
		if p.Stock <= threshold {
			low = append(low, p)
		}
		p = models.Product{}
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"threshold": threshold, "products": low})
}

//
// 📜 GET /api/admin/inventory/:id/movements (admin)
//
func GetStockMovements(c *gin.Context) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`
		SELECT movement_id, type, quantity, prev_stock, new_stock, reason, user_id, created_at
		FROM stock_movements WHERE product_id = ?`, productID).
		WithContext(c.Request.Context()).Iter()

	movements := []models.StockMovement{}
	m := models.StockMovement{ProductID: productID}
	for iter.Scan(&m.ID, &m.Type, &m.Quantity, &m.PrevStock, &m.NewStock, &m.Reason, &m.UserID, &m.CreatedAt) {
		movements = append(movements, m)
		m = models.StockMovement{ProductID: productID}
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture mouvements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"movements": movements})
}

func recordStockMovement(productID gocql.UUID, movementType string, qty, prev, next int, reason, userID string) {
	session, err := database.GetProductsSession()
	if err != nil {
		return
	}

	err = session.Query(`
		INSERT INTO stock_movements (movement_id, product_id, type, quantity, prev_stock, new_stock, reason, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gocql.TimeUUID(), productID, movementType, qty, prev, next, reason, userID, time.Now().UTC(),
	).Exec()
	if err != nil {
		log.Printf("⚠️ Erreur enregistrement mouvement stock %s: %v", productID, err)
	}
}
