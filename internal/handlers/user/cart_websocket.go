package user

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AngelCas04/BuyMore/internal/database"
	"github.com/AngelCas04/BuyMore/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Autoriser toutes les origines (à ajuster en production)
		return true
	},
}

// CartWebSocket gère la synchronisation temps réel du panier : chaque
// modification publiée sur cart:<userID> est repoussée aux onglets ouverts.
func CartWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ctx := context.Background()

	pubsub := database.Redis.Subscribe(ctx, cartKey(userID))
	defer pubsub.Close()

	ch := pubsub.Channel()

	conn.WriteJSON(map[string]interface{}{
		"type":    "connected",
		"message": "Synchronisation panier activée",
	})

	for {
		select {
		case msg := <-ch:
			if msg.Payload != "updated" && msg.Payload != "cleared" {
				continue
			}

			data, err := database.Redis.Get(ctx, cartKey(userID)).Result()

			var response map[string]interface{}
			if err != nil || data == "" {
				response = map[string]interface{}{
					"type":  "cart_updated",
					"items": []interface{}{},
					"total": 0,
					"count": 0,
				}
			} else {
				var cart []models.CartItem
				json.Unmarshal([]byte(data), &cart)

				total := 0.0
				for _, item := range cart {
					total += item.Price * float64(item.Quantity)
				}

				response = map[string]interface{}{
					"type":  "cart_updated",
					"items": cart,
					"total": total,
					"count": len(cart),
				}
			}

			if err := conn.WriteJSON(response); err != nil {
				log.Printf("❌ Erreur envoi WebSocket: %v", err)
				return
			}
		case <-time.After(30 * time.Second):
			// Ping pour garder la connexion active
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
