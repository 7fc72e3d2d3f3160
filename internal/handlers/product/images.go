package product

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"github.com/AngelCas04/BuyMore/internal/database"
	"github.com/AngelCas04/BuyMore/internal/services"
)

//
// 📤 POST /api/products/:id/image (admin) — upload MinIO + mise à jour produit
//
func UploadProductImage(c *gin.Context) {
	productID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier 'image' manquant"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var category string
	if err := session.Query(`SELECT category FROM products WHERE product_id = ?`, productID).
		WithContext(c.Request.Context()).Scan(&category); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	objectName, err := services.UploadProductImage(c.Request.Context(), file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur upload image: " + err.Error()})
		return
	}

	now := time.Now().UTC()
	if err := session.Query(`UPDATE products SET image_url = ?, updated_at = ? WHERE product_id = ?`,
		objectName, now, productID).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour produit"})
		return
	}
	session.Query(`UPDATE products_by_category SET image_url = ? WHERE category = ? AND product_id = ?`,
		objectName, category, productID).Exec()

	invalidateProductsCache()

	c.JSON(http.StatusOK, gin.H{
		"message": "Image uploadée",
		"object":  objectName,
	})
}

//
// 🖼️ GET /api/products/:id/image — URL signée temporaire
//
func GetProductImageURL(c *gin.Context) {
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

	var imageURL string
	if err := session.Query(`SELECT image_url FROM products WHERE product_id = ?`, productID).
		WithContext(c.Request.Context()).Scan(&imageURL); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}
	if imageURL == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit sans image"})
		return
	}

	signedURL, err := services.GenerateSignedURL(c.Request.Context(), imageURL, 24*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération URL signée"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}
