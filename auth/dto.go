// Data Transfer Objects for the auth module: request and response payloads
// for registration, login, and profile retrieval.
package auth

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username string `json:"username" example:"alice"`
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"strongpassword123"`
}

// LoginRequest represents the login request payload. IsEmail explicitly
// selects whether the user is identified by email or by username; the
// identifier type is never inferred from its shape.
type LoginRequest struct {
	Username string `json:"username,omitempty" example:"alice"`
	Email    string `json:"email,omitempty" example:"alice@example.com"`
	Password string `json:"password" example:"strongpassword123"`
	IsEmail  bool   `json:"isEmail"`
}

// UserInfo is the public projection of a user returned alongside tokens.
type UserInfo struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthResponse is returned on successful registration or login.
type AuthResponse struct {
	Message string   `json:"message" example:"Login successful"`
	Token   string   `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	User    UserInfo `json:"user"`
}

// ProfileResponse represents the authenticated user's profile.
type ProfileResponse struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt" example:"2024-01-15T10:30:00Z"`
}
