package checkout

import (
	"context"
	"encoding/json"

	"github.com/AngelCas04/BuyMore/internal/database"
	"github.com/AngelCas04/BuyMore/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisCart lit et vide le panier stocké en JSON sous cart:<userID>.
type RedisCart struct{}

func NewRedisCart() *RedisCart {
	return &RedisCart{}
}

// Snapshot retourne une copie figée du panier. Les mutations concurrentes
// du panier pendant le checkout ne sont jamais revues : la commande est
// construite sur cette copie et uniquement sur elle.
func (RedisCart) Snapshot(ctx context.Context, userID string) ([]models.CartItem, error) {
	data, err := database.Redis.Get(ctx, "cart:"+userID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (RedisCart) Clear(ctx context.Context, userID string) error {
	key := "cart:" + userID
	if err := database.Redis.Del(ctx, key).Err(); err != nil {
		return err
	}
	// Notifie les onglets ouverts via le canal de synchro temps réel
	database.Redis.Publish(ctx, key, "cleared")
	return nil
}
