package auth

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/user/expense-tracker-go/apperror"
	"github.com/user/expense-tracker-go/config"
)

// fakeUserStore is an in-memory UserStore. Create enforces the same
// uniqueness semantics as the database schema and reports violations as
// pgconn.PgError with code 23505, like pgx does.
type fakeUserStore struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1, users: map[int]*User{}}
}

func (f *fakeUserStore) FindByUsername(_ context.Context, username string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id int) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	cp.HashedPassword = ""
	return &cp, nil
}

func (f *fakeUserStore) Create(_ context.Context, username, email, hashedPassword string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return nil, &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}
		}
		if u.Email == strings.ToLower(email) {
			return nil, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		}
	}
	u := &User{
		ID:             f.nextID,
		Username:       username,
		Email:          strings.ToLower(email),
		HashedPassword: hashedPassword,
		CreatedAt:      time.Now(),
	}
	f.users[u.ID] = u
	f.nextID++
	cp := *u
	return &cp, nil
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:     "test-secret",
		TokenDuration: 24 * time.Hour,
	}
}

type ServiceTestSuite struct {
	suite.Suite
	store *fakeUserStore
	svc   *Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.store = newFakeUserStore()
	s.svc = NewService(s.store, testAuthConfig())
}

func (s *ServiceTestSuite) register(username, email, password string) *AuthResponse {
	resp, err := s.svc.Register(context.Background(), RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(s.T(), err)
	return resp
}

func (s *ServiceTestSuite) TestRegisterIssuesToken() {
	resp := s.register("alice", "a@x.com", "pw1")

	assert.Equal(s.T(), "User registered successfully", resp.Message)
	assert.NotEmpty(s.T(), resp.Token)
	assert.Equal(s.T(), "alice", resp.User.Username)
	assert.Equal(s.T(), "a@x.com", resp.User.Email)
	assert.NotZero(s.T(), resp.User.ID)

	// The token carries the user's id and username and a 24h expiry.
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), resp.User.ID, claims.UserID)
	assert.Equal(s.T(), "alice", claims.Username)
	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(s.T(), 24*time.Hour, lifetime)
}

func (s *ServiceTestSuite) TestRegisterDuplicateUsername() {
	s.register("alice", "a@x.com", "pw1")

	_, err := s.svc.Register(context.Background(), RegisterRequest{
		Username: "alice", Email: "b@y.com", Password: "pw2",
	})
	require.Error(s.T(), err)
	assert.True(s.T(), apperror.IsConflictError(err))

	appErr, ok := apperror.FromError(err)
	require.True(s.T(), ok)
	assert.Equal(s.T(), 400, appErr.StatusCode())
	assert.Equal(s.T(), "Username already exists", appErr.Message)
}

func (s *ServiceTestSuite) TestRegisterDuplicateEmail() {
	s.register("alice", "a@x.com", "pw1")

	_, err := s.svc.Register(context.Background(), RegisterRequest{
		Username: "bob", Email: "a@x.com", Password: "pw2",
	})
	require.Error(s.T(), err)
	assert.True(s.T(), apperror.IsConflictError(err))

	appErr, _ := apperror.FromError(err)
	assert.Equal(s.T(), "Email already exists", appErr.Message)
}

func (s *ServiceTestSuite) TestLoginByUsername() {
	s.register("alice", "a@x.com", "pw1")

	resp, err := s.svc.Login(context.Background(), LoginRequest{
		Username: "alice", Password: "pw1",
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Login successful", resp.Message)
	assert.NotEmpty(s.T(), resp.Token)
	assert.Equal(s.T(), "alice", resp.User.Username)
}

func (s *ServiceTestSuite) TestLoginByEmail() {
	s.register("alice", "a@x.com", "pw1")

	resp, err := s.svc.Login(context.Background(), LoginRequest{
		Email: "a@x.com", Password: "pw1", IsEmail: true,
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice", resp.User.Username)
}

func (s *ServiceTestSuite) TestLoginWrongPassword() {
	s.register("alice", "a@x.com", "pw1")

	_, err := s.svc.Login(context.Background(), LoginRequest{
		Username: "alice", Password: "wrong",
	})
	require.Error(s.T(), err)
	assert.True(s.T(), apperror.IsAuthError(err))

	appErr, _ := apperror.FromError(err)
	assert.Equal(s.T(), 401, appErr.StatusCode())
}

func (s *ServiceTestSuite) TestLoginUnknownUser() {
	// Unknown identity yields the same 401 class as a wrong password.
	_, err := s.svc.Login(context.Background(), LoginRequest{
		Username: "nobody", Password: "pw",
	})
	require.Error(s.T(), err)
	assert.True(s.T(), apperror.IsAuthError(err))
}

func (s *ServiceTestSuite) TestLoginModeIsExplicit() {
	s.register("alice", "a@x.com", "pw1")

	// With IsEmail false the email field is ignored, even if it would match.
	_, err := s.svc.Login(context.Background(), LoginRequest{
		Email: "a@x.com", Password: "pw1", IsEmail: false,
	})
	require.Error(s.T(), err)
	assert.True(s.T(), apperror.IsAuthError(err))
}

func (s *ServiceTestSuite) TestPasswordNeverStoredOrSerializedInPlaintext() {
	resp := s.register("alice", "a@x.com", "pw1")

	stored := s.store.users[resp.User.ID]
	assert.NotEqual(s.T(), "pw1", stored.HashedPassword)
	assert.NotContains(s.T(), stored.HashedPassword, "pw1")

	// The hash is excluded from any JSON rendering of the user.
	data, err := json.Marshal(stored)
	require.NoError(s.T(), err)
	assert.NotContains(s.T(), string(data), stored.HashedPassword)

	assert.NoError(s.T(), ValidatePassword(stored, "pw1"))
	assert.Error(s.T(), ValidatePassword(stored, "pw1 "))
	assert.Error(s.T(), ValidatePassword(stored, "PW1"))
}

func (s *ServiceTestSuite) TestProfile() {
	resp := s.register("alice", "a@x.com", "pw1")

	profile, err := s.svc.Profile(context.Background(), resp.User.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice", profile.Username)
	assert.Equal(s.T(), "a@x.com", profile.Email)
	assert.NotEmpty(s.T(), profile.CreatedAt)
}

func (s *ServiceTestSuite) TestProfileUnknownUser() {
	_, err := s.svc.Profile(context.Background(), 42)
	require.Error(s.T(), err)
	assert.True(s.T(), apperror.IsNotFound(err))
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
