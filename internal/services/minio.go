package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/AngelCas04/BuyMore/internal/database"
)

// UploadProductImage envoie l'image d'un produit vers MinIO et retourne son
// chemin objet. Nom aléatoire pour éviter toute collision entre uploads.
func UploadProductImage(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	bucket := os.Getenv("MINIO_BUCKET")
	objectName := fmt.Sprintf("products/%s%s", uuid.NewString(), filepath.Ext(file.Filename))

	_, err = database.MinIO.PutObject(ctx, bucket, objectName, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", err
	}

	return objectName, nil
}
