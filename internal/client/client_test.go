package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Login(t *testing.T) {
	t.Run("stores the session on success", func(t *testing.T) {
		token := signedToken(t, time.Now().Add(time.Hour))
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/users/login", r.URL.Path)

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "farid", body["username"])

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"message":      "login successful",
				"token":        token,
				"refreshToken": "refresh-token",
				"user":         Profile{ID: 1, Username: "farid", Role: "user"},
			})
		}))
		defer server.Close()

		session, _, _ := newTestSession(t)
		c := New(server.URL, session)

		user, err := c.Login(context.Background(), "farid", "password123")
		require.NoError(t, err)
		assert.Equal(t, "farid", user.Username)

		assert.True(t, session.IsAuthenticated())
		assert.Equal(t, token, session.Token())
		assert.Equal(t, "refresh-token", session.RefreshToken())
	})

	t.Run("surfaces the server error message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid username or password"})
		}))
		defer server.Close()

		session, _, _ := newTestSession(t)
		c := New(server.URL, session)

		_, err := c.Login(context.Background(), "farid", "wrong")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid username or password")
		assert.False(t, session.IsAuthenticated())
	})
}

func TestClient_Logout(t *testing.T) {
	session, _, _ := newTestSession(t)
	require.NoError(t, session.SetToken(signedToken(t, time.Now().Add(time.Hour))))
	require.NoError(t, session.SetUser(Profile{ID: 1, Username: "farid"}))

	c := New("http://localhost", session)
	c.Logout()

	assert.False(t, session.IsAuthenticated())
	assert.Empty(t, session.Token())
}
