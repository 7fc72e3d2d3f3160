package services

import (
	"context"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/AngelCas04/BuyMore/internal/database"
)

// GenerateSignedURL génère une URL signée avec expiration pour un objet image
func GenerateSignedURL(ctx context.Context, objectPath string, duration time.Duration) (string, error) {
	if database.MinIO == nil || objectPath == "" {
		return objectPath, nil
	}

	bucket := os.Getenv("MINIO_BUCKET")
	reqParams := make(url.Values)

	// Nettoie une éventuelle URL complète pour ne garder que le chemin objet
	key := objectPath
	if i := strings.Index(key, bucket+"/"); i >= 0 {
		key = key[i+len(bucket)+1:]
	}

	presignedURL, err := database.MinIO.PresignedGetObject(ctx, bucket, key, duration, reqParams)
	if err != nil {
		return "", err
	}

	return presignedURL.String(), nil
}
