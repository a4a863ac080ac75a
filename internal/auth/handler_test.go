package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	service *Service
	finder  *fakeAdFinder
	router  *chi.Mux
}

func newTestEnv(t *testing.T) *testEnv {
	service := newTestService(t)
	finder := &fakeAdFinder{
		owners: map[uint]uint{},
		counts: map[uint]int64{},
	}
	guard := NewGuard(finder)
	handler := NewHandler(service, guard, newTestLogger(t))
	mw := NewMiddleware(newTestConfig())

	router := chi.NewRouter()
	router.Post("/api/users/register", handler.Register)
	router.Post("/api/users/login", handler.Login)
	router.Post("/api/users/refresh", handler.Refresh)
	router.Group(func(r chi.Router) {
		r.Use(mw.Authenticate)
		r.Get("/api/users/profile", handler.Profile)
	})
	router.Group(func(r chi.Router) {
		r.Use(mw.Authenticate, mw.RequireAdmin)
		r.Get("/api/users/admin", handler.AdminListUsers)
		r.Patch("/api/users/admin/{userID}", handler.AdminUpdateUser)
		r.Delete("/api/users/admin/{userID}", handler.AdminDeleteUser)
	})

	return &testEnv{service: service, finder: finder, router: router}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func registerBody(username, phone string) map[string]interface{} {
	return map[string]interface{}{
		"name":     "Test User",
		"phone":    phone,
		"username": username,
		"password": "password123",
	}
}

func TestHandler_Register(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(t, http.MethodPost, "/api/users/register", "", registerBody("farid", "09121234567"))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp authResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Equal(t, "farid", resp.User.Username)
		assert.Equal(t, RoleUser, resp.User.Role)
	})

	t.Run("validation failures", func(t *testing.T) {
		env := newTestEnv(t)

		tests := []struct {
			name string
			body map[string]interface{}
		}{
			{"missing fields", map[string]interface{}{"username": "farid"}},
			{"short password", map[string]interface{}{
				"name": "Test", "phone": "09121234567", "username": "farid", "password": "abc",
			}},
			{"bad phone", map[string]interface{}{
				"name": "Test", "phone": "12345", "username": "farid", "password": "password123",
			}},
			{"bad username", map[string]interface{}{
				"name": "Test", "phone": "09121234567", "username": "far id!", "password": "password123",
			}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := env.do(t, http.MethodPost, "/api/users/register", "", tt.body)
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			})
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		env := newTestEnv(t)
		env.do(t, http.MethodPost, "/api/users/register", "", registerBody("farid", "09121234567"))

		rec := env.do(t, http.MethodPost, "/api/users/register", "", registerBody("farid", "09129999999"))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("duplicate phone", func(t *testing.T) {
		env := newTestEnv(t)
		env.do(t, http.MethodPost, "/api/users/register", "", registerBody("farid", "09121234567"))

		rec := env.do(t, http.MethodPost, "/api/users/register", "", registerBody("other", "09121234567"))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandler_Login(t *testing.T) {
	login := func(env *testEnv, t *testing.T, username, password string) *httptest.ResponseRecorder {
		return env.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
			"username": username,
			"password": password,
		})
	}

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		registerTestUser(t, env.service, "farid", "09121234567", "password123")

		rec := login(env, t, "farid", "password123")
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp authResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		env := newTestEnv(t)
		registerTestUser(t, env.service, "farid", "09121234567", "password123")

		rec := login(env, t, "farid", "wrong-password")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown username", func(t *testing.T) {
		env := newTestEnv(t)

		rec := login(env, t, "nosuchuser", "password123")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("locked after repeated failures", func(t *testing.T) {
		env := newTestEnv(t)
		registerTestUser(t, env.service, "farid", "09121234567", "password123")

		for i := 0; i < 5; i++ {
			rec := login(env, t, "farid", "wrong-password")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		}

		rec := login(env, t, "farid", "password123")
		assert.Equal(t, http.StatusLocked, rec.Code)
	})

	t.Run("banned account", func(t *testing.T) {
		env := newTestEnv(t)
		user := registerTestUser(t, env.service, "farid", "09121234567", "password123")
		require.NoError(t, env.service.repository.UpdateUser(context.Background(), user.ID,
			map[string]interface{}{"is_banned": true}))

		rec := login(env, t, "farid", "password123")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestHandler_Refresh(t *testing.T) {
	env := newTestEnv(t)
	user := registerTestUser(t, env.service, "farid", "09121234567", "password123")
	pair, err := env.service.GenerateTokenPair(user)
	require.NoError(t, err)

	t.Run("valid refresh token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/users/refresh", "", map[string]string{
			"refreshToken": pair.RefreshToken,
		})
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["token"])
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/users/refresh", "", map[string]string{
			"refreshToken": "not-a-token",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/users/refresh", "", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMiddleware_Authenticate(t *testing.T) {
	env := newTestEnv(t)
	user := registerTestUser(t, env.service, "farid", "09121234567", "password123")
	token, err := env.service.GenerateToken(user)
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users/profile", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users/profile", "not-a-token", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users/profile", token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]PublicProfile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "farid", resp["user"].Username)
	})

	t.Run("refresh token is not a bearer credential", func(t *testing.T) {
		pair, err := env.service.GenerateTokenPair(user)
		require.NoError(t, err)
		require.NotEmpty(t, pair.RefreshToken)

		rec := env.do(t, http.MethodGet, "/api/users/profile", pair.RefreshToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	user := registerTestUser(t, env.service, "farid", "09121234567", "password123")
	userToken, err := env.service.GenerateToken(user)
	require.NoError(t, err)

	t.Run("plain user denied", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users/admin", userToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin allowed", func(t *testing.T) {
		adminToken := adminTokenFor(t, env, "admin", "09120000000")
		rec := env.do(t, http.MethodGet, "/api/users/admin", adminToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHandler_AdminUpdateUser(t *testing.T) {
	env := newTestEnv(t)
	user := registerTestUser(t, env.service, "farid", "09121234567", "password123")
	adminToken := adminTokenFor(t, env, "admin", "09120000000")
	path := fmt.Sprintf("/api/users/admin/%d", user.ID)

	t.Run("ban user", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, path, adminToken, map[string]bool{"isBanned": true})
		assert.Equal(t, http.StatusOK, rec.Code)

		stored, err := env.service.repository.GetUserByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsBanned)
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, path, adminToken, map[string]string{"role": "superuser"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty body rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, path, adminToken, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_AdminDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	user := registerTestUser(t, env.service, "farid", "09121234567", "password123")
	adminToken := adminTokenFor(t, env, "admin", "09120000000")
	path := fmt.Sprintf("/api/users/admin/%d", user.ID)

	t.Run("refused while user owns ads", func(t *testing.T) {
		env.finder.counts[user.ID] = 2

		rec := env.do(t, http.MethodDelete, path, adminToken, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("allowed once ads are gone", func(t *testing.T) {
		env.finder.counts[user.ID] = 0

		rec := env.do(t, http.MethodDelete, path, adminToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		_, err := env.service.repository.GetUserByID(context.Background(), user.ID)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func adminTokenFor(t *testing.T, env *testEnv, username, phone string) string {
	admin := registerTestUser(t, env.service, username, phone, "password123")
	require.NoError(t, env.service.repository.UpdateUser(context.Background(), admin.ID,
		map[string]interface{}{"role": RoleAdmin}))
	admin.Role = RoleAdmin
	token, err := env.service.GenerateToken(admin)
	require.NoError(t, err)
	return token
}
