package user

import (
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"github.com/AngelCas04/BuyMore/internal/cache"
	"github.com/AngelCas04/BuyMore/internal/database"
	"github.com/AngelCas04/BuyMore/internal/models"
	"github.com/AngelCas04/BuyMore/internal/utils"
)

const refreshTokenTTL = 7 * 24 * time.Hour

// ================== AUTH LOCALE ==================

func Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	usersSession, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// email déjà pris ?
	var existingID string
	err = usersSession.Query(`SELECT user_id FROM users_by_email WHERE email = ?`, input.Email).
		WithContext(c.Request.Context()).Scan(&existingID)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Un compte avec cet email existe déjà"})
		return
	}
	if !errors.Is(err, gocql.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	// Tous les comptes créés ici sont des clients. Les admins sont promus
	// directement en base, jamais via l'API publique.
	user := models.User{
		ID:       gocql.TimeUUID().String(),
		Name:     input.Name,
		Email:    input.Email,
		Password: hashedPassword,
		Role:     "customer",
		Provider: "local",
	}

	now := time.Now().UTC()
	if err := usersSession.Query(`
		INSERT INTO users (user_id, email, password, name, role, provider, provider_id, profile_picture, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Password, user.Name, user.Role, user.Provider, "", "", now, now,
	).WithContext(c.Request.Context()).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	if err := usersSession.Query(`INSERT INTO users_by_email (email, user_id) VALUES (?, ?)`,
		user.Email, user.ID).Exec(); err != nil {
		log.Printf("⚠️ Erreur insertion users_by_email pour %s: %v", user.Email, err)
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	log.Printf("🆕 Utilisateur créé: %s", user.Email)
	c.JSON(http.StatusCreated, gin.H{
		"token":        token,
		"refreshToken": issueRefreshToken(user.ID),
		"userId":       user.ID,
		"email":        user.Email,
		"name":         user.Name,
		"role":         user.Role,
	})
}

func Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := findUserByEmail(c, input.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	ok, err := utils.VerifyPassword(input.Password, user.Password)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":        token,
		"refreshToken": issueRefreshToken(user.ID),
		"userId":       user.ID,
		"email":        user.Email,
		"name":         user.Name,
		"role":         user.Role,
	})
}

//
// 🔄 POST /api/auth/refresh — nouveau JWT contre un refresh token valide
//
func RefreshToken(c *gin.Context) {
	var input struct {
		UserID       string `json:"userId" binding:"required"`
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	stored, err := cache.GetRefreshToken(input.UserID)
	if err != nil || subtle.ConstantTimeCompare([]byte(stored), []byte(input.RefreshToken)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token invalide ou expiré"})
		return
	}

	usersSession, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	user := models.User{ID: input.UserID}
	if err := usersSession.Query(`SELECT email, name, role FROM users WHERE user_id = ?`, user.ID).
		WithContext(c.Request.Context()).Scan(&user.Email, &user.Name, &user.Role); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	// Rotation : l'ancien refresh token est invalidé
	c.JSON(http.StatusOK, gin.H{
		"token":        token,
		"refreshToken": issueRefreshToken(user.ID),
	})
}

//
// 🚪 POST /api/auth/logout
//
func Logout(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	if err := cache.DeleteRefreshToken(userID); err != nil {
		log.Printf("⚠️ Erreur suppression refresh token %s: %v", userID, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Déconnecté"})
}

// issueRefreshToken génère, stocke et retourne un refresh token opaque.
func issueRefreshToken(userID string) string {
	token := generateRandomState()
	if err := cache.StoreRefreshToken(userID, token, refreshTokenTTL); err != nil {
		log.Printf("⚠️ Erreur stockage refresh token %s: %v", userID, err)
	}
	return token
}

//
// 👤 GET /api/users/me
//
func Me(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	usersSession, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	user := models.User{ID: userID}
	err = usersSession.Query(`SELECT email, name, role, provider, profile_picture FROM users WHERE user_id = ?`, userID).
		WithContext(c.Request.Context()).
		Scan(&user.Email, &user.Name, &user.Role, &user.Provider, &user.ProfilePicture)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// findUserByEmail résout l'email via la table inversée puis charge le profil.
func findUserByEmail(c *gin.Context, email string) (models.User, error) {
	usersSession, err := database.GetUsersSession()
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	err = usersSession.Query(`SELECT user_id FROM users_by_email WHERE email = ?`, email).
		WithContext(c.Request.Context()).Scan(&user.ID)
	if err != nil {
		return models.User{}, err
	}

	err = usersSession.Query(`SELECT email, password, name, role, provider, provider_id, profile_picture FROM users WHERE user_id = ?`, user.ID).
		WithContext(c.Request.Context()).
		Scan(&user.Email, &user.Password, &user.Name, &user.Role, &user.Provider, &user.ProviderID, &user.ProfilePicture)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}
