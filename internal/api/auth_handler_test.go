package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/didiklab/taksir-api/internal/domain"
	"github.com/didiklab/taksir-api/internal/service/auth"
	"github.com/didiklab/taksir-api/internal/store"
)

// stubUserStore is an in-memory store.UserStore for handler tests.
type stubUserStore struct {
	usersByEmail map[string]*domain.User
	createErr    error
	created      []*domain.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{usersByEmail: make(map[string]*domain.User)}
}

func (s *stubUserStore) Create(ctx context.Context, user *domain.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	if _, exists := s.usersByEmail[user.Email]; exists {
		return store.ErrEmailExists
	}
	// Mimic the real store: hash is set, plaintext cleared.
	user.HashedPassword = "hashed:" + user.Password
	user.Password = ""
	s.usersByEmail[user.Email] = user
	s.created = append(s.created, user)
	return nil
}

func (s *stubUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range s.usersByEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, ok := s.usersByEmail[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUserStore) WithTx(tx *sql.Tx) store.UserStore { return s }

// stubJWTService returns canned tokens and claims.
type stubJWTService struct {
	accessToken  string
	refreshToken string
	generateErr  error
	validateErr  error
	claims       *auth.Claims
}

func (s *stubJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if s.generateErr != nil {
		return "", s.generateErr
	}
	return s.accessToken, nil
}

func (s *stubJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if s.validateErr != nil {
		return nil, s.validateErr
	}
	return s.claims, nil
}

func (s *stubJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if s.generateErr != nil {
		return "", s.generateErr
	}
	return s.refreshToken, nil
}

func (s *stubJWTService) ValidateRefreshToken(ctx context.Context, token string) (*auth.Claims, error) {
	if s.validateErr != nil {
		return nil, s.validateErr
	}
	return s.claims, nil
}

// stubPasswordVerifier compares against the "hashed:" prefix scheme
// used by stubUserStore.
type stubPasswordVerifier struct{}

func (stubPasswordVerifier) Compare(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return errors.New("password mismatch")
	}
	return nil
}

func newTestAuthHandler(userStore store.UserStore, jwt auth.JWTService) *AuthHandler {
	return NewAuthHandler(userStore, jwt, stubPasswordVerifier{}, 60*time.Minute)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestRegister(t *testing.T) {
	t.Parallel()

	jwt := &stubJWTService{accessToken: "access-token", refreshToken: "refresh-token"}

	t.Run("creates user and returns tokens", func(t *testing.T) {
		users := newStubUserStore()
		handler := newTestAuthHandler(users, jwt)

		w := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
			Email:    "teacher@example.com",
			Password: "correct-horse-battery",
		})

		require.Equal(t, http.StatusCreated, w.Code)

		var resp AuthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "access-token", resp.AccessToken)
		assert.Equal(t, "refresh-token", resp.RefreshToken)
		assert.NotEqual(t, uuid.Nil, resp.UserID)
		assert.NotEmpty(t, resp.ExpiresAt)

		require.Len(t, users.created, 1)
		assert.Empty(t, users.created[0].Password, "plaintext password must be cleared")
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		handler := newTestAuthHandler(newStubUserStore(), jwt)

		w := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
			Email:    "not-an-email",
			Password: "correct-horse-battery",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects short password", func(t *testing.T) {
		handler := newTestAuthHandler(newStubUserStore(), jwt)

		w := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
			Email:    "teacher@example.com",
			Password: "short",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("conflict on duplicate email", func(t *testing.T) {
		users := newStubUserStore()
		handler := newTestAuthHandler(users, jwt)

		first := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
			Email:    "teacher@example.com",
			Password: "correct-horse-battery",
		})
		require.Equal(t, http.StatusCreated, first.Code)

		second := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
			Email:    "teacher@example.com",
			Password: "correct-horse-battery",
		})
		assert.Equal(t, http.StatusConflict, second.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		handler := newTestAuthHandler(newStubUserStore(), jwt)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader([]byte("{not json")))
		w := httptest.NewRecorder()
		handler.Register(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	jwt := &stubJWTService{accessToken: "access-token", refreshToken: "refresh-token"}

	registeredStore := func(t *testing.T) *stubUserStore {
		users := newStubUserStore()
		handler := newTestAuthHandler(users, jwt)
		w := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
			Email:    "teacher@example.com",
			Password: "correct-horse-battery",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		return users
	}

	t.Run("valid credentials", func(t *testing.T) {
		handler := newTestAuthHandler(registeredStore(t), jwt)

		w := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
			Email:    "teacher@example.com",
			Password: "correct-horse-battery",
		})

		require.Equal(t, http.StatusOK, w.Code)

		var resp AuthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "access-token", resp.AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		handler := newTestAuthHandler(registeredStore(t), jwt)

		w := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
			Email:    "teacher@example.com",
			Password: "wrong-password-entirely",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown email gets same response as wrong password", func(t *testing.T) {
		handler := newTestAuthHandler(newStubUserStore(), jwt)

		w := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
			Email:    "nobody@example.com",
			Password: "correct-horse-battery",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "Invalid credentials", resp["error"])
	})
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("valid refresh token", func(t *testing.T) {
		jwt := &stubJWTService{
			accessToken:  "new-access",
			refreshToken: "new-refresh",
			claims:       &auth.Claims{UserID: userID, TokenType: "refresh"},
		}
		handler := newTestAuthHandler(newStubUserStore(), jwt)

		w := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{
			RefreshToken: "old-refresh",
		})

		require.Equal(t, http.StatusOK, w.Code)

		var resp RefreshTokenResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "new-access", resp.AccessToken)
		assert.Equal(t, "new-refresh", resp.RefreshToken)
		assert.NotEmpty(t, resp.ExpiresAt)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		jwt := &stubJWTService{validateErr: auth.ErrExpiredRefreshToken}
		handler := newTestAuthHandler(newStubUserStore(), jwt)

		w := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{
			RefreshToken: "stale",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("access token rejected in refresh slot", func(t *testing.T) {
		jwt := &stubJWTService{validateErr: auth.ErrWrongTokenType}
		handler := newTestAuthHandler(newStubUserStore(), jwt)

		w := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{
			RefreshToken: "an-access-token",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing token field", func(t *testing.T) {
		handler := newTestAuthHandler(newStubUserStore(), &stubJWTService{})

		w := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
