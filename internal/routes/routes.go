package routes

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/AngelCas04/BuyMore/internal/checkout"
	adminhandlers "github.com/AngelCas04/BuyMore/internal/handlers/admin"
	checkouthandlers "github.com/AngelCas04/BuyMore/internal/handlers/checkout"
	producthandlers "github.com/AngelCas04/BuyMore/internal/handlers/product"
	userhandlers "github.com/AngelCas04/BuyMore/internal/handlers/user"
	"github.com/AngelCas04/BuyMore/internal/middleware"
	"github.com/AngelCas04/BuyMore/internal/models"
	"github.com/AngelCas04/BuyMore/internal/utils"
)

func RegisterRoutes(r *gin.Engine) {
	r.Use(corsConfig())

	// Service de passage de commande, partagé par toutes les requêtes
	checkouthandlers.SetService(checkout.NewScyllaService(notifyOrderConfirmed))

	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	// ---- Auth ----
	auth := api.Group("/auth")
	{
		auth.POST("/register", middleware.RegisterRateLimit(), userhandlers.Register)
		auth.POST("/login", middleware.LoginRateLimit(), userhandlers.Login)
		auth.POST("/refresh", userhandlers.RefreshToken)
		auth.POST("/logout", middleware.AuthRequired(), userhandlers.Logout)
		auth.GET("/:provider", userhandlers.BeginAuth)
		auth.GET("/:provider/callback", userhandlers.CallbackAuth)
	}

	api.GET("/users/me", middleware.AuthRequired(), userhandlers.Me)

	// ---- Catalogue ----
	products := api.Group("/products")
	{
		products.GET("", producthandlers.GetAllProducts)
		products.GET("/search", middleware.SearchRateLimit(), producthandlers.SearchProducts)
		products.GET("/category/:category", producthandlers.GetProductsByCategory)
		products.GET("/:id", producthandlers.GetProductByID)
		products.GET("/:id/image", producthandlers.GetProductImageURL)

		adminOnly := products.Group("")
		adminOnly.Use(middleware.AuthRequired(), middleware.RequireAdmin)
		{
			adminOnly.POST("", producthandlers.CreateProduct)
			adminOnly.PUT("/:id", producthandlers.UpdateProduct)
			adminOnly.DELETE("/:id", producthandlers.DeleteProduct)
			adminOnly.POST("/:id/image", producthandlers.UploadProductImage)
			adminOnly.POST("/:id/restock", producthandlers.RestockProduct)
			adminOnly.POST("/:id/adjust", producthandlers.AdjustStock)
		}
	}

	// ---- Panier ----
	cart := api.Group("/cart")
	cart.Use(middleware.AuthRequired())
	{
		cart.GET("", userhandlers.GetCart)
		cart.GET("/ws", userhandlers.CartWebSocket)
		cart.POST("/add", middleware.CartRateLimit(), userhandlers.AddToCart)
		cart.PUT("/:productId", userhandlers.UpdateCartItem)
		cart.DELETE("/clear", userhandlers.ClearCart)
		cart.DELETE("/:productId", userhandlers.RemoveFromCart)
	}

	// ---- Commandes ----
	api.POST("/checkout", middleware.AuthRequired(), middleware.CheckoutRateLimit(), checkouthandlers.PlaceOrder)

	orders := api.Group("/orders")
	orders.Use(middleware.AuthRequired())
	{
		orders.GET("", userhandlers.GetMyOrders)
		orders.GET("/:id", userhandlers.GetOrderByID)
	}

	// ---- Administration ----
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.RequireAdmin)
	{
		admin.GET("/orders", adminhandlers.GetAllOrders)
		admin.GET("/inventory/low", producthandlers.GetLowStockProducts)
		admin.GET("/inventory/:id/movements", producthandlers.GetStockMovements)
	}
}

// notifyOrderConfirmed envoie l'email de confirmation avec la facture PDF
// jointe. Tourne hors du chemin critique du checkout.
func notifyOrderConfirmed(order models.Order, email string) {
	if email == "" {
		return
	}

	pdf, err := utils.GenerateInvoicePDF(order, email)
	if err != nil {
		log.Printf("⚠️ Facture PDF non générée pour %s: %v", order.ID, err)
		pdf = nil
	}

	html := utils.GenerateOrderConfirmationHTML(order, email)
	if err := utils.SendConfirmationEmail(email, "Confirmation de votre commande BuyMore", html, pdf); err != nil {
		log.Printf("⚠️ Email de confirmation non envoyé à %s: %v", email, err)
		return
	}
	log.Printf("📧 Confirmation envoyée à %s pour la commande %s", email, order.ID)
}

func corsConfig() gin.HandlerFunc {
	origins := []string{"http://localhost:5173", "http://localhost:3000"}
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		origins = strings.Split(raw, ",")
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
