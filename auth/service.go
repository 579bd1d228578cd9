package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/expense-tracker-go/apperror"
	"github.com/user/expense-tracker-go/config"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// Service provides authentication-related operations: registration, login,
// token issuance, and profile retrieval.
type Service struct {
	store UserStore
	cfg   config.AuthConfig
}

// NewService creates a new auth Service. The signing secret is injected via
// the config rather than read ad hoc.
func NewService(store UserStore, cfg config.AuthConfig) *Service {
	return &Service{store: store, cfg: cfg}
}

// Claims defines the JWT payload: user id, username, and the registered
// issued-at/expiry claims.
type Claims struct {
	UserID   int    `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Register creates a new user and immediately issues a token (auto-login).
// Duplicate username or email is reported as a conflict; the uniqueness
// constraint at the storage layer makes this safe under concurrent attempts.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternalError("Registration failed", fmt.Errorf("failed to hash password: %w", err))
	}

	user, err := s.store.Create(ctx, req.Username, req.Email, string(hashedPassword))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "username") {
				return nil, apperror.NewConflictError("Username already exists", nil)
			}
			if strings.Contains(pgErr.ConstraintName, "email") {
				return nil, apperror.NewConflictError("Email already exists", nil)
			}
		}
		return nil, apperror.NewDatabaseError("Registration failed", err)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, apperror.NewInternalError("Registration failed", err)
	}

	return &AuthResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    UserInfo{ID: user.ID, Username: user.Username, Email: user.Email},
	}, nil
}

// Login authenticates a user identified either by username or by email,
// depending on the request's IsEmail flag, and returns a fresh token.
// An unknown identity and a wrong password yield the same 401 outcome so the
// response does not leak account existence.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var (
		user *User
		err  error
	)
	if req.IsEmail {
		user, err = s.store.FindByEmail(ctx, req.Email)
	} else {
		user, err = s.store.FindByUsername(ctx, req.Username)
	}
	if err != nil {
		log.Printf("Login error: %v", err)
		return nil, apperror.NewDatabaseError("Login failed", err)
	}
	if user == nil {
		if req.IsEmail {
			return nil, apperror.NewAuthError("Invalid email or password", nil)
		}
		return nil, apperror.NewAuthError("Invalid username or password", nil)
	}

	if err := ValidatePassword(user, req.Password); err != nil {
		return nil, apperror.NewAuthError("Invalid credentials", nil)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, apperror.NewInternalError("Login failed", err)
	}

	return &AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    UserInfo{ID: user.ID, Username: user.Username, Email: user.Email},
	}, nil
}

// Profile retrieves the authenticated user's profile.
func (s *Service) Profile(ctx context.Context, userID int) (*ProfileResponse, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		log.Printf("Profile error: %v", err)
		return nil, apperror.NewDatabaseError("Failed to get profile", err)
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User not found", nil)
	}

	return &ProfileResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// IssueToken signs an HS256 JWT carrying the user's id and username, valid
// for the configured token duration.
func (s *Service) IssueToken(user *User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenDuration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidatePassword checks a plaintext password against the user's stored
// bcrypt hash. The comparison is constant-time.
func ValidatePassword(user *User, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password))
}
