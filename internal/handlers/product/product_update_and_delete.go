package product

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"github.com/AngelCas04/BuyMore/internal/database"
	"github.com/AngelCas04/BuyMore/internal/models"
	"github.com/AngelCas04/BuyMore/internal/services"
)

//
// ✏️ PUT /api/products/:id (admin)
//
func UpdateProduct(c *gin.Context) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	var input struct {
		Name     *string  `json:"name"`
		Category *string  `json:"category"`
		Price    *float64 `json:"price"`
		ImageURL *string  `json:"image"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Price != nil && *input.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le prix doit être positif"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var p models.Product
	err = session.Query(`SELECT product_id, name, category, price, stock, image_url FROM products WHERE product_id = ?`, productID).
		WithContext(c.Request.Context()).
		Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.ImageURL)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	oldCategory := p.Category
	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Category != nil {
		p.Category = *input.Category
	}
	if input.Price != nil {
		p.Price = *input.Price
	}
	if input.ImageURL != nil {
		p.ImageURL = *input.ImageURL
	}
	// Le stock ne se modifie pas ici : lui passe par les endpoints inventaire
	now := time.Now().UTC()
	p.UpdatedAt = &now

	if err := session.Query(`UPDATE products SET name = ?, category = ?, price = ?, image_url = ?, updated_at = ? WHERE product_id = ?`,
		p.Name, p.Category, p.Price, p.ImageURL, p.UpdatedAt, p.ID).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour produit"})
		return
	}

	// Vue par catégorie : suppression de l'ancienne entrée si déplacement
	if oldCategory != p.Category {
		session.Query(`DELETE FROM products_by_category WHERE category = ? AND product_id = ?`, oldCategory, p.ID).Exec()
	}
	session.Query(`INSERT INTO products_by_category (category, product_id, name, price, stock, image_url) VALUES (?, ?, ?, ?, ?, ?)`,
		p.Category, p.ID, p.Name, p.Price, p.Stock, p.ImageURL).Exec()

	go services.IndexProduct(p)
	invalidateProductsCache()

	c.JSON(http.StatusOK, p)
}

//
// 🗑️ DELETE /api/products/:id (admin)
//
// Un produit déjà commandé ne se supprime pas : les commandes passées le
// référencent.
func DeleteProduct(c *gin.Context) {
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

	var category string
	err = session.Query(`SELECT category FROM products WHERE product_id = ?`, productID).
		WithContext(c.Request.Context()).Scan(&category)
	if errors.Is(err, gocql.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produit"})
		return
	}

	if referenced, err := productHasOrders(c, productID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur vérification commandes"})
		return
	} else if referenced {
		c.JSON(http.StatusConflict, gin.H{"error": "Produit référencé par des commandes existantes"})
		return
	}

	if err := session.Query(`DELETE FROM products WHERE product_id = ?`, productID).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression produit"})
		return
	}
	session.Query(`DELETE FROM products_by_category WHERE category = ? AND product_id = ?`, category, productID).Exec()

	go services.RemoveProductFromIndex(productID.String())
	invalidateProductsCache()

	c.JSON(http.StatusOK, gin.H{"message": "Produit supprimé"})
}

// productHasOrders regarde si une ligne de commande référence le produit
// (index secondaire sur order_items.product_id).
func productHasOrders(c *gin.Context, productID gocql.UUID) (bool, error) {
	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		return false, err
	}

	var orderID gocql.UUID
	err = ordersSession.Query(`SELECT order_id FROM order_items WHERE product_id = ? LIMIT 1`, productID.String()).
		WithContext(c.Request.Context()).Scan(&orderID)
	if errors.Is(err, gocql.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
