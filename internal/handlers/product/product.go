package product

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"github.com/AngelCas04/BuyMore/internal/cache"
	"github.com/AngelCas04/BuyMore/internal/database"
	"github.com/AngelCas04/BuyMore/internal/models"
	"github.com/AngelCas04/BuyMore/internal/services"
)

const productsCacheKey = "products:all"

// invalidateProductsCache purge le cache liste après toute écriture produit
func invalidateProductsCache() {
	cache.DeleteCache(productsCacheKey)
}

//
// 🆕 POST /api/products (admin)
//
func CreateProduct(c *gin.Context) {
	var p models.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if p.Name == "" || p.Category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Les champs 'name' et 'category' sont obligatoires"})
		return
	}
	if p.Price < 0 || p.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prix et stock doivent être positifs"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	p.ID = gocql.TimeUUID()
	now := time.Now().UTC()
	p.CreatedAt = &now
	p.UpdatedAt = &now

	query := `INSERT INTO products (product_id, name, category, price, stock, image_url, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if err := session.Query(query, p.ID, p.Name, p.Category, p.Price, p.Stock, p.ImageURL, p.CreatedAt, p.UpdatedAt).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création produit: " + err.Error()})
		return
	}

	// Vue par catégorie pour les listings
	if err := session.Query(`INSERT INTO products_by_category (category, product_id, name, price, stock, image_url) VALUES (?, ?, ?, ?, ?, ?)`,
		p.Category, p.ID, p.Name, p.Price, p.Stock, p.ImageURL).Exec(); err != nil {
		// Log l'erreur mais ne bloque pas la création
		c.Error(err)
	}

	// 🔄 Indexation Elasticsearch
	go services.IndexProduct(p)

	invalidateProductsCache()

	c.JSON(http.StatusCreated, p)
}

//
// 📋 GET /api/products
//
func GetAllProducts(c *gin.Context) {
	ctx := c.Request.Context()

	// ✅ Cache Redis d'abord
	if val, err := cache.GetCache(productsCacheKey); err == nil && val != "" {
		var cached []models.Product
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT product_id, name, category, price, stock, image_url, created_at, updated_at FROM products`).
		WithContext(ctx).Iter()

	products := []models.Product{}
	var p models.Product
	for iter.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt) {
		products = append(products, p)
		p = models.Product{} // Reset pour la prochaine itération
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produits: " + err.Error()})
		return
	}

	if data, err := json.Marshal(products); err == nil {
		cache.SetCache(productsCacheKey, data, time.Hour)
	}

	c.JSON(http.StatusOK, products)
}

//
// 🔍 GET /api/products/:id
//
func GetProductByID(c *gin.Context) {
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

	var p models.Product
	err = session.Query(`SELECT product_id, name, category, price, stock, image_url, created_at, updated_at
	                     FROM products WHERE product_id = ?`, productID).
		WithContext(c.Request.Context()).
		Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	c.JSON(http.StatusOK, p)
}

//
// 🗂️ GET /api/products/category/:category
//
func GetProductsByCategory(c *gin.Context) {
	category := c.Param("category")
	if category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Catégorie manquante"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT product_id, name, price, stock, image_url FROM products_by_category WHERE category = ?`, category).
		WithContext(c.Request.Context()).Iter()

	products := []models.Product{}
	var p models.Product
	for iter.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.ImageURL) {
		p.Category = category
		products = append(products, p)
		p = models.Product{}
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produits"})
		return
	}

	c.JSON(http.StatusOK, products)
}

//
// 🔎 GET /api/products/search?q=...
//
func SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paramètre 'q' manquant"})
		return
	}

	// 1️⃣ Elasticsearch d'abord
	results, err := services.SearchProducts(query)
	if err == nil && len(results) > 0 {
		// URLs signées MinIO pour les aperçus
		for i := range results {
			if raw, ok := results[i]["image_url"].(string); ok && raw != "" {
				if signedURL, err := services.GenerateSignedURL(c.Request.Context(), raw, 24*time.Hour); err == nil {
					results[i]["image_url"] = signedURL
				}
			}
		}
		c.JSON(http.StatusOK, results)
		return
	}

	// 2️⃣ Repli ScyllaDB si l'index est indisponible : scan filtré sur le nom
	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT product_id, name, category, price, stock, image_url FROM products`).
		WithContext(c.Request.Context()).Iter()

	matches := []models.Product{}
	var p models.Product
	for iter.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.ImageURL) {
		if containsFold(p.Name, query) || containsFold(p.Category, query) {
			matches = append(matches, p)
		}
		p = models.Product{}
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur recherche produits"})
		return
	}

	c.JSON(http.StatusOK, matches)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
