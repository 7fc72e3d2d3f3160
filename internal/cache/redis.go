package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/AngelCas04/BuyMore/internal/database"
)

var ctx = context.Background()

// --- Refresh Tokens ---

// StoreRefreshToken stocke le refresh token courant d'un utilisateur
func StoreRefreshToken(userID, refreshToken string, duration time.Duration) error {
	key := fmt.Sprintf("refresh:%s", userID)
	return database.Redis.Set(ctx, key, refreshToken, duration).Err()
}

// GetRefreshToken récupère le refresh token d'un utilisateur
func GetRefreshToken(userID string) (string, error) {
	key := fmt.Sprintf("refresh:%s", userID)
	return database.Redis.Get(ctx, key).Result()
}

// DeleteRefreshToken supprime le refresh token (logout)
func DeleteRefreshToken(userID string) error {
	key := fmt.Sprintf("refresh:%s", userID)
	return database.Redis.Del(ctx, key).Err()
}

// --- Cache générique ---

// SetCache stocke une valeur dans le cache
func SetCache(key string, value interface{}, duration time.Duration) error {
	return database.Redis.Set(ctx, key, value, duration).Err()
}

// GetCache récupère une valeur du cache
func GetCache(key string) (string, error) {
	return database.Redis.Get(ctx, key).Result()
}

// DeleteCache supprime une clé du cache
func DeleteCache(key string) error {
	return database.Redis.Del(ctx, key).Err()
}
