package migrations

import (
	"database/sql"
	"time"
)

func execWithRetry(query string, retries int, dbs ...*sql.DB) error {
	var err error
	for _, db := range dbs {
		_, err = db.Exec(query)
		if err != nil {
			// Retry creating the table
			for i := 0; i < retries; i++ {
				time.Sleep(1 * time.Second)
				_, err = db.Exec(query)
				if err == nil {
					break
				}
			}
		}
	}
	return err
}

// AutoMigrateUsers creates the users table if it does not exist.
func AutoMigrateUsers(retries int, dbs ...*sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id CHAR(36) PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255),
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			provider VARCHAR(50) NOT NULL DEFAULT 'credentials',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	return execWithRetry(query, retries, dbs...)
}

// AutoMigrateCartItems creates the cart_items table if it does not exist.
// The (user_id, name) unique key backs the upsert-on-repeat-add semantics.
func AutoMigrateCartItems(retries int, dbs ...*sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS cart_items (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id CHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			quantity INT NOT NULL,
			UNIQUE KEY uq_cart_user_name (user_id, name)
		);
	`
	return execWithRetry(query, retries, dbs...)
}

// AutoMigratePurchases creates the purchases table if it does not exist.
func AutoMigratePurchases(retries int, dbs ...*sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS purchases (
			id CHAR(36) PRIMARY KEY,
			user_id CHAR(36) NOT NULL,
			total_price DECIMAL(10,2) NOT NULL,
			status VARCHAR(20) NOT NULL,
			customer_name VARCHAR(255),
			customer_email VARCHAR(255),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_purchases_user (user_id)
		);
	`
	return execWithRetry(query, retries, dbs...)
}

// AutoMigratePurchaseItems creates the purchase_items table if it does not exist.
func AutoMigratePurchaseItems(retries int, dbs ...*sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS purchase_items (
			id INT AUTO_INCREMENT PRIMARY KEY,
			purchase_id CHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			price DECIMAL(10,2) NOT NULL,
			quantity INT NOT NULL,
			FOREIGN KEY (purchase_id) REFERENCES purchases(id) ON DELETE CASCADE
		);
	`
	return execWithRetry(query, retries, dbs...)
}

// AutoMigrateInvoices creates the invoices table if it does not exist.
// purchase_id is unique: at most one invoice per purchase.
func AutoMigrateInvoices(retries int, dbs ...*sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS invoices (
			id INT AUTO_INCREMENT PRIMARY KEY,
			purchase_id CHAR(36) NOT NULL UNIQUE,
			number VARCHAR(64) NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	return execWithRetry(query, retries, dbs...)
}

// AutoMigrateSubscriptions creates the subscriptions table if it does not exist.
func AutoMigrateSubscriptions(retries int, dbs ...*sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS subscriptions (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id CHAR(36) NOT NULL,
			plan VARCHAR(100) NOT NULL,
			status VARCHAR(20) NOT NULL,
			external_customer_id VARCHAR(255) NOT NULL,
			external_subscription_id VARCHAR(255) NOT NULL,
			current_period_start TIMESTAMP NOT NULL,
			current_period_end TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_subscriptions_user (user_id),
			INDEX idx_subscriptions_external (external_subscription_id)
		);
	`
	return execWithRetry(query, retries, dbs...)
}
