package entity

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // empty for federated accounts
	IsAdmin      bool      `json:"is_admin"`
	Provider     string    `json:"provider"` // "credentials", "google", ...
	CreatedAt    time.Time `json:"created_at"`
}

type CartItem struct {
	ID       int64  `json:"id"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}
