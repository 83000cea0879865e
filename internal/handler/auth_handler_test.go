package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/reuniteapp/reunite-api/internal/middleware"
	"github.com/reuniteapp/reunite-api/internal/models"
	"github.com/reuniteapp/reunite-api/internal/service"
)

type authRepoStub struct {
	users map[string]*models.User
}

func newAuthRepoStub(users ...*models.User) *authRepoStub {
	stub := &authRepoStub{users: map[string]*models.User{}}
	for _, user := range users {
		stub.users[user.Email] = user
	}
	return stub
}

func (s *authRepoStub) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "new-user"
	}
	s.users[user.Email] = user
	return nil
}

func (s *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.users[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func newAuthHandlerForTest(stub *authRepoStub) *AuthHandler {
	svc := service.NewAuthService(stub, nil, zap.NewNop(), service.AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "reunite-api",
	})
	return NewAuthHandler(svc)
}

func TestAuthHandlerRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := newAuthRepoStub()
	handler := newAuthHandlerForTest(stub)

	payload, _ := json.Marshal(models.RegisterRequest{
		Email:    "Carol@Example.com",
		Password: "password",
		FullName: "Carol Example",
	})
	c, w := newGinContext(http.MethodPost, "/auth/register", payload)

	handler.Register(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "\"access_token\"")
	assert.Contains(t, w.Body.String(), "MEMBER")

	stored, ok := stub.users["carol@example.com"]
	require.True(t, ok, "email must be stored lowercased")
	assert.True(t, stored.Active)
}

func TestAuthHandlerRegisterMalformedPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerForTest(newAuthRepoStub())

	c, w := newGinContext(http.MethodPost, "/auth/register", []byte("{"))

	handler.Register(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerRegisterDuplicateEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := newAuthRepoStub(&models.User{ID: "u1", Email: "user@example.com", Active: true})
	handler := newAuthHandlerForTest(stub)

	payload, _ := json.Marshal(models.RegisterRequest{
		Email:    "user@example.com",
		Password: "password",
		FullName: "User",
	})
	c, w := newGinContext(http.MethodPost, "/auth/register", payload)

	handler.Register(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandlerLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	require.NoError(t, err)
	stub := newAuthRepoStub(&models.User{
		ID:           "u1",
		Email:        "user@example.com",
		PasswordHash: string(hash),
		FullName:     "User",
		Role:         models.RoleMember,
		Active:       true,
	})
	handler := newAuthHandlerForTest(stub)

	payload, _ := json.Marshal(models.LoginRequest{Email: "user@example.com", Password: "password"})
	c, w := newGinContext(http.MethodPost, "/auth/login", payload)

	handler.Login(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"access_token\"")
	assert.Contains(t, w.Body.String(), "user@example.com")
}

func TestAuthHandlerLoginWrongPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	require.NoError(t, err)
	stub := newAuthRepoStub(&models.User{ID: "u1", Email: "user@example.com", PasswordHash: string(hash), Active: true})
	handler := newAuthHandlerForTest(stub)

	payload, _ := json.Marshal(models.LoginRequest{Email: "user@example.com", Password: "nope"})
	c, w := newGinContext(http.MethodPost, "/auth/login", payload)

	handler.Login(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := newAuthRepoStub(&models.User{ID: "u1", Email: "alice@example.com", FullName: "Alice", Role: models.RoleMember, Active: true})
	handler := newAuthHandlerForTest(stub)

	c, w := newGinContext(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, memberClaims("u1"))

	handler.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice@example.com")
}

func TestAuthHandlerMeUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAuthHandlerForTest(newAuthRepoStub())

	c, w := newGinContext(http.MethodGet, "/auth/me", nil)

	handler.Me(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
