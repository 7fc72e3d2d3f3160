package user

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"github.com/AngelCas04/BuyMore/internal/database"
	"github.com/AngelCas04/BuyMore/internal/models"
)

const cartTTL = 30 * 24 * time.Hour

func cartKey(userID string) string {
	return "cart:" + userID
}

func loadCart(ctx context.Context, userID string) []models.CartItem {
	data, _ := database.Redis.Get(ctx, cartKey(userID)).Result()
	var cart []models.CartItem
	if data != "" {
		_ = json.Unmarshal([]byte(data), &cart)
	}
	return cart
}

func saveCart(ctx context.Context, userID string, cart []models.CartItem) {
	jsonData, _ := json.Marshal(cart)
	database.Redis.Set(ctx, cartKey(userID), jsonData, cartTTL)
	// Notifie les onglets ouverts (synchro WebSocket)
	database.Redis.Publish(ctx, cartKey(userID), "updated")
}

//
// 🛒 GET /api/cart
//
func GetCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	cart := loadCart(c.Request.Context(), userID)
	if cart == nil {
		cart = []models.CartItem{}
	}

	total := 0.0
	for _, item := range cart {
		total += item.Price * float64(item.Quantity)
	}

	c.JSON(http.StatusOK, gin.H{"items": cart, "total": total})
}

//
// 🟢 POST /api/cart/add
//
func AddToCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if input.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	productUUID, err := gocql.ParseUUID(input.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// 🧩 Le nom, le prix et l'image viennent toujours du catalogue
	var (
		name     string
		price    float64
		stock    int
		imageURL string
	)
	err = session.Query(`SELECT name, price, stock, image_url FROM products WHERE product_id = ?`, productUUID).
		WithContext(c.Request.Context()).Scan(&name, &price, &stock, &imageURL)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	ctx := c.Request.Context()
	cart := loadCart(ctx, userID)

	// 🔁 Met à jour ou ajoute l'item
	newQuantity := input.Quantity
	for _, existing := range cart {
		if existing.ProductID == input.ProductID {
			newQuantity += existing.Quantity
			break
		}
	}
	if newQuantity > stock {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Stock insuffisant",
			"available": stock,
		})
		return
	}

	found := false
	for i := range cart {
		if cart[i].ProductID == input.ProductID {
			cart[i].Quantity = newQuantity
			cart[i].Price = price
			cart[i].Name = name
			found = true
			break
		}
	}
	if !found {
		cart = append(cart, models.CartItem{
			ProductID: input.ProductID,
			Name:      name,
			Price:     price,
			Quantity:  input.Quantity,
			ImageURL:  imageURL,
		})
	}

	saveCart(ctx, userID, cart)

	c.JSON(http.StatusOK, gin.H{
		"message": "Produit ajouté au panier",
		"items":   cart,
	})
}

//
// ✏️ PUT /api/cart/:productId
//
func UpdateCartItem(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	productID := c.Param("productId")

	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	ctx := c.Request.Context()
	cart := loadCart(ctx, userID)

	found := false
	for i := range cart {
		if cart[i].ProductID == productID {
			cart[i].Quantity = input.Quantity
			found = true
			break
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit absent du panier"})
		return
	}

	saveCart(ctx, userID, cart)

	c.JSON(http.StatusOK, gin.H{
		"message": "Quantité mise à jour",
		"items":   cart,
	})
}

//
// ❌ DELETE /api/cart/:productId
//
func RemoveFromCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	productID := c.Param("productId")
	ctx := c.Request.Context()

	cart := loadCart(ctx, userID)
	if len(cart) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Panier vide"})
		return
	}

	newCart := []models.CartItem{}
	for _, item := range cart {
		if item.ProductID != productID {
			newCart = append(newCart, item)
		}
	}

	saveCart(ctx, userID, newCart)

	c.JSON(http.StatusOK, gin.H{
		"message": "Produit supprimé du panier",
		"items":   newCart,
	})
}

//
// 🧹 DELETE /api/cart/clear
//
func ClearCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	ctx := c.Request.Context()
	if err := database.Redis.Del(ctx, cartKey(userID)).Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors du vidage du panier"})
		return
	}
	database.Redis.Publish(ctx, cartKey(userID), "cleared")

	c.JSON(http.StatusOK, gin.H{
		"message": "Panier vidé avec succès",
	})
}
