package checkout

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	placing "github.com/AngelCas04/BuyMore/internal/checkout"
	"github.com/AngelCas04/BuyMore/internal/models"
)

var service *placing.Service

// SetService injecte le service de passage de commande (fait au démarrage
// dans les routes).
func SetService(s *placing.Service) {
	service = s
}

//
// 💳 POST /api/checkout
//
// Le client n'envoie que le total affiché et le moyen de paiement : le
// contenu du panier et les prix font foi côté serveur.
func PlaceOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		Total         float64 `json:"total"`
		PaymentMethod string  `json:"paymentMethod" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	receipt, err := service.Checkout(c.Request.Context(), placing.Request{
		UserID:        userID,
		Email:         c.GetString("email"),
		DeclaredTotal: input.Total,
		PaymentMethod: models.PaymentMethod(input.PaymentMethod),
	})
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Commande validée",
		"order":   receipt,
	})
}

// respondCheckoutError traduit la taxonomie d'erreurs du checkout en codes
// HTTP : erreurs client en 400, contention et stock en 409, stores en 500.
func respondCheckoutError(c *gin.Context, err error) {
	var (
		stockErr *placing.InsufficientStockError
		priceErr *placing.PriceMismatchError
		persErr  *placing.PersistenceError
	)

	switch {
	case errors.Is(err, placing.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Votre panier est vide",
			"code":  "EMPTY_CART",
		})
	case errors.Is(err, placing.ErrUnknownPaymentMethod):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Moyen de paiement inconnu",
			"code":  "UNKNOWN_PAYMENT_METHOD",
		})
	case errors.As(err, &priceErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "Les prix ont changé, rechargez votre panier",
			"code":     "PRICE_MISMATCH",
			"declared": priceErr.Declared,
			"computed": priceErr.Computed,
		})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Stock insuffisant",
			"code":      "INSUFFICIENT_STOCK",
			"productId": stockErr.ProductID,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.Is(err, placing.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Trop de monde sur ces produits, réessayez",
			"code":  "CONFLICT",
		})
	case errors.As(err, &persErr):
		log.Printf("❌ Checkout en échec de persistance: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Erreur serveur, votre commande n'a pas été enregistrée",
			"code":  "PERSISTENCE_ERROR",
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
