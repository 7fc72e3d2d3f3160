package database

import (
	"log"
	"sync"

	"github.com/gocql/gocql"
)

var (
	// Prepared statements pour les requêtes fréquentes
	stmtGetUserByEmail    *gocql.Query
	stmtGetUserByID       *gocql.Query
	stmtInsertUser        *gocql.Query
	stmtInsertUserByEmail *gocql.Query
	stmtGetProductLite    *gocql.Query

	preparedOnce sync.Once
)

// InitPreparedStatements initialise les prepared statements
func InitPreparedStatements() {
	preparedOnce.Do(func() {
		usersSession, err := GetUsersSession()
		if err != nil {
			log.Printf("⚠️ Impossible d'initialiser les prepared statements (users): %v", err)
			return
		}

		// Requête pour récupérer user_id par email
		stmtGetUserByEmail = usersSession.Query("SELECT user_id FROM users_by_email WHERE email = ?")

		// Requête pour récupérer un utilisateur par ID
		stmtGetUserByID = usersSession.Query(`SELECT email, password, name, role, provider, provider_id, profile_picture
			FROM users WHERE user_id = ?`)

		// Requête pour insérer un utilisateur
		stmtInsertUser = usersSession.Query(`INSERT INTO users (user_id, email, password, name, role, provider, provider_id, profile_picture, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

		// Requête pour insérer dans users_by_email
		stmtInsertUserByEmail = usersSession.Query("INSERT INTO users_by_email (email, user_id) VALUES (?, ?)")

		productsSession, err := GetProductsSession()
		if err != nil {
			log.Printf("⚠️ Impossible d'initialiser les prepared statements (products): %v", err)
			return
		}

		// Lecture allégée produit (panier + checkout, chemin chaud)
		stmtGetProductLite = productsSession.Query("SELECT product_id, name, price, stock, image_url FROM products WHERE product_id = ?")

		log.Println("✅ Prepared statements initialisés")
	})
}

func GetPreparedGetUserByEmail() *gocql.Query {
	return stmtGetUserByEmail
}

func GetPreparedGetUserByID() *gocql.Query {
	return stmtGetUserByID
}

func GetPreparedInsertUser() *gocql.Query {
	return stmtInsertUser
}

func GetPreparedInsertUserByEmail() *gocql.Query {
	return stmtInsertUserByEmail
}

func GetPreparedGetProductLite() *gocql.Query {
	return stmtGetProductLite
}
