package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserStore persists user identity records. Find methods return (nil, nil)
// when no matching user exists; Create surfaces the database's uniqueness
// violation unchanged so callers can distinguish duplicate username from
// duplicate email.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByID excludes the password hash.
	FindByID(ctx context.Context, id int) (*User, error)
	Create(ctx context.Context, username, email, hashedPassword string) (*User, error)
}

// PGUserStore is the PostgreSQL implementation of UserStore backed by a pgx
// connection pool.
type PGUserStore struct {
	db *pgxpool.Pool
}

// NewPGUserStore creates a new PGUserStore.
func NewPGUserStore(db *pgxpool.Pool) *PGUserStore {
	return &PGUserStore{db: db}
}

// FindByUsername retrieves a user by their username, including the password
// hash for credential validation.
func (s *PGUserStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT id, username, email, hashed_pass, created_at FROM users WHERE username = $1`
	return s.scanUser(ctx, query, username)
}

// FindByEmail retrieves a user by their email address, including the password
// hash for credential validation.
func (s *PGUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, username, email, hashed_pass, created_at FROM users WHERE email = $1`
	return s.scanUser(ctx, query, strings.ToLower(email))
}

// FindByID retrieves a user by their ID. The password hash is not selected.
func (s *PGUserStore) FindByID(ctx context.Context, id int) (*User, error) {
	query := `SELECT id, username, email, created_at FROM users WHERE id = $1`
	var user User
	err := s.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user row. The uniqueness constraints on username and
// email resolve concurrent registrations; a check-then-insert race surfaces
// here as a pgconn.PgError with code 23505.
func (s *PGUserStore) Create(ctx context.Context, username, email, hashedPassword string) (*User, error) {
	user := &User{
		Username:       username,
		Email:          strings.ToLower(email),
		HashedPassword: hashedPassword,
	}
	query := `INSERT INTO users (username, email, hashed_pass)
              VALUES ($1, $2, $3)
              RETURNING id, created_at`
	err := s.db.QueryRow(ctx, query, user.Username, user.Email, user.HashedPassword).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *PGUserStore) scanUser(ctx context.Context, query string, arg any) (*User, error) {
	var user User
	err := s.db.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Username, &user.Email, &user.HashedPassword, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
