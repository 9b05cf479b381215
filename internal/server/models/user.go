// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. PasswordHash is the encoded argon2id hash
// produced by cryptox.HashPassword.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
