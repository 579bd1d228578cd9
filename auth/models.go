// Package auth is responsible for handling authentication and authorization
// logic: user registration, login, JWT issuance and verification, and the
// middleware that gates protected routes.
package auth

import "time"

// User represents a user identity record as stored in the database.
// The hashed password is never serialized into API responses.
type User struct {
	ID             int       `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Do not expose hashed password
	CreatedAt      time.Time `json:"created_at"`
}
