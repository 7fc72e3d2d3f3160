package user

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"

	"github.com/AngelCas04/BuyMore/internal/database"
	"github.com/AngelCas04/BuyMore/internal/models"
	"github.com/AngelCas04/BuyMore/internal/utils"
)

// ================== AUTH SOCIALE ==================

func BeginAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun provider spécifié"})
		return
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	callbackURL := baseURL + "/api/auth/" + provider + "/callback"

	switch provider {
	case "google":
		goth.UseProviders(google.New(
			os.Getenv("GOOGLE_CLIENT_ID"),
			os.Getenv("GOOGLE_CLIENT_SECRET"),
			callbackURL,
		))
	case "facebook":
		goth.UseProviders(facebook.New(
			os.Getenv("FACEBOOK_CLIENT_ID"),
			os.Getenv("FACEBOOK_CLIENT_SECRET"),
			callbackURL,
		))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provider non supporté"})
		return
	}

	// Mémorise l'URL de retour front le temps du roundtrip OAuth
	state := generateRandomState()
	if redirectURL := c.Query("redirect_url"); redirectURL != "" {
		_ = database.Redis.Set(context.Background(), "oauth_redirect:"+state, redirectURL, 10*time.Minute).Err()
	}

	q := c.Request.URL.Query()
	q.Set("provider", provider)
	q.Set("state", state)
	c.Request.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

func CallbackAuth(c *gin.Context) {
	provider := c.Param("provider")
	state := c.Query("state")

	q := c.Request.URL.Query()
	q.Set("provider", provider)
	c.Request.URL.RawQuery = q.Encode()

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		log.Printf("❌ Erreur callback OAuth %s: %v", provider, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentification échouée"})
		return
	}

	user, err := findOrCreateOAuthUser(provider, gothUser.UserID, gothUser.Email, gothUser.Name, gothUser.AvatarURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	ctx := context.Background()
	redirectURI, _ := database.Redis.Get(ctx, "oauth_redirect:"+state).Result()
	database.Redis.Del(ctx, "oauth_redirect:"+state)

	if redirectURI == "" {
		redirectURI = os.Getenv("FRONTEND_URL")
		if redirectURI == "" {
			redirectURI = "http://localhost:5173"
		}
	}

	c.Redirect(http.StatusTemporaryRedirect, redirectURI+"?token="+url.QueryEscape(token))
}

func generateRandomState() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

// findOrCreateOAuthUser cherche par (provider, provider_id), puis par email
// pour fusionner un compte local existant, et crée le compte sinon.
func findOrCreateOAuthUser(provider, providerID, email, name, avatarURL string) (models.User, error) {
	usersSession, err := database.GetUsersSession()
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	err = usersSession.Query(`SELECT user_id FROM users_by_email WHERE email = ?`, email).Scan(&user.ID)
	if errors.Is(err, gocql.ErrNotFound) {
		now := time.Now().UTC()
		user = models.User{
			ID:             gocql.TimeUUID().String(),
			Email:          email,
			Name:           name,
			Role:           "customer",
			Provider:       provider,
			ProviderID:     providerID,
			ProfilePicture: avatarURL,
		}
		if err := usersSession.Query(`
			INSERT INTO users (user_id, email, password, name, role, provider, provider_id, profile_picture, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			user.ID, user.Email, "", user.Name, user.Role, user.Provider, user.ProviderID, user.ProfilePicture, now, now,
		).Exec(); err != nil {
			return models.User{}, err
		}
		if err := usersSession.Query(`INSERT INTO users_by_email (email, user_id) VALUES (?, ?)`,
			user.Email, user.ID).Exec(); err != nil {
			return models.User{}, err
		}
		log.Printf("🆕 Utilisateur OAuth créé (%s): %s", provider, email)
		return user, nil
	}
	if err != nil {
		return models.User{}, err
	}

	err = usersSession.Query(`SELECT email, name, role, provider, provider_id, profile_picture FROM users WHERE user_id = ?`, user.ID).
		Scan(&user.Email, &user.Name, &user.Role, &user.Provider, &user.ProviderID, &user.ProfilePicture)
	if err != nil {
		return models.User{}, err
	}

	// Compte existant : on rattache le provider social
	if user.Provider != provider || user.ProviderID != providerID {
		if err := usersSession.Query(`UPDATE users SET provider = ?, provider_id = ?, updated_at = ? WHERE user_id = ?`,
			provider, providerID, time.Now().UTC(), user.ID).Exec(); err != nil {
			log.Printf("⚠️ Erreur fusion compte OAuth %s: %v", email, err)
		} else {
			log.Printf("🔄 Compte existant fusionné avec provider %s: %s", provider, email)
		}
		user.Provider = provider
		user.ProviderID = providerID
	}

	return user, nil
}
