package client

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	keyToken        = "auth_token"
	keyRefreshToken = "auth_refresh"
	keyUser         = "auth_user"
	keyLastActivity = "auth_last_activity"

	// DefaultSessionTimeout is the idle cutoff, independent of token expiry.
	DefaultSessionTimeout = 30 * time.Minute
)

// Profile is the cached public view of the signed-in user. It never carries
// credentials; IsAdmin built on it gates UI only, the server re-checks every
// privileged call.
type Profile struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// SessionManager owns the client-side token lifecycle: storage, idle
// timeout, and teardown. Construct one per process and pass it around;
// there is no package-level session.
type SessionManager struct {
	store   Storage
	timeout time.Duration
	now     func() time.Time
}

func NewSessionManager(store Storage, timeout time.Duration) *SessionManager {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &SessionManager{
		store:   store,
		timeout: timeout,
		now:     time.Now,
	}
}

func (m *SessionManager) SetToken(token string) error {
	if err := m.store.Set(keyToken, token); err != nil {
		return err
	}
	return m.touch()
}

func (m *SessionManager) SetRefreshToken(token string) error {
	return m.store.Set(keyRefreshToken, token)
}

// RefreshToken returns the stored refresh token, if any. Its lifetime is
// governed by the server; the idle timeout does not apply to it.
func (m *SessionManager) RefreshToken() string {
	token, _ := m.store.Get(keyRefreshToken)
	return token
}

func (m *SessionManager) SetUser(user Profile) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return m.store.Set(keyUser, string(data))
}

func (m *SessionManager) User() *Profile {
	data, ok := m.store.Get(keyUser)
	if !ok {
		return nil
	}
	var user Profile
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		m.Clear()
		return nil
	}
	return &user
}

// Token returns the stored token only while the session is live: the token
// must decode, its expiry must be in the future, and the idle gap must be
// under the session timeout. Any of those failing tears the session down.
func (m *SessionManager) Token() string {
	token, ok := m.store.Get(keyToken)
	if !ok || token == "" {
		return ""
	}

	if m.tokenExpired(token) || m.idleExpired() {
		m.Clear()
		return ""
	}

	_ = m.touch()
	return token
}

func (m *SessionManager) IsAuthenticated() bool {
	return m.Token() != "" && m.User() != nil
}

// IsAdmin is a UI convenience only; authorization lives server-side.
func (m *SessionManager) IsAdmin() bool {
	user := m.User()
	return user != nil && user.Role == "admin"
}

// Clear drops all session state unconditionally.
func (m *SessionManager) Clear() {
	_ = m.store.Delete(keyToken)
	_ = m.store.Delete(keyRefreshToken)
	_ = m.store.Delete(keyUser)
	_ = m.store.Delete(keyLastActivity)
}

func (m *SessionManager) Logout() {
	m.Clear()
}

func (m *SessionManager) touch() error {
	return m.store.Set(keyLastActivity, strconv.FormatInt(m.now().UnixMilli(), 10))
}

func (m *SessionManager) idleExpired() bool {
	raw, ok := m.store.Get(keyLastActivity)
	if !ok {
		return true
	}
	last, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return true
	}
	// A session is live only while the idle gap is strictly under the timeout.
	return m.now().Sub(time.UnixMilli(last)) >= m.timeout
}

// tokenExpired reads the embedded expiry without verifying the signature;
// verification is the server's job.
func (m *SessionManager) tokenExpired(token string) bool {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return !claims.ExpiresAt.After(m.now())
}
