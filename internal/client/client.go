package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/faridz/amlak/internal/api"
)

// Client is the typed API surface of the server; all authenticated traffic
// goes through the session-aware Transport.
type Client struct {
	baseURL string
	http    *http.Client
	session *SessionManager
}

func New(baseURL string, session *SessionManager) *Client {
	return &Client{
		baseURL: baseURL,
		session: session,
		http: &http.Client{
			Transport: &Transport{
				Session:    session,
				RefreshURL: baseURL + api.UsersRefresh,
			},
		},
	}
}

func (c *Client) Session() *SessionManager {
	return c.session
}

type authPayload struct {
	Message      string  `json:"message"`
	Token        string  `json:"token"`
	RefreshToken string  `json:"refreshToken"`
	User         Profile `json:"user"`
}

type RegisterInput struct {
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	Email    *string `json:"email,omitempty"`
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (*Profile, error) {
	var payload authPayload
	if err := c.post(ctx, api.UsersRegister, in, &payload); err != nil {
		return nil, err
	}
	if err := c.storeSession(&payload); err != nil {
		return nil, err
	}
	return &payload.User, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*Profile, error) {
	body := map[string]string{"username": username, "password": password}
	var payload authPayload
	if err := c.post(ctx, api.UsersLogin, body, &payload); err != nil {
		return nil, err
	}
	if err := c.storeSession(&payload); err != nil {
		return nil, err
	}
	return &payload.User, nil
}

// Refresh exchanges the stored refresh token for a fresh access token. The
// Transport does this automatically on a 401; calling it directly is only
// useful to renew a session proactively.
func (c *Client) Refresh(ctx context.Context) error {
	refreshToken := c.session.RefreshToken()
	if refreshToken == "" {
		return fmt.Errorf("no refresh token stored")
	}

	var payload struct {
		Token string `json:"token"`
	}
	body := map[string]string{"refreshToken": refreshToken}
	if err := c.post(ctx, api.UsersRefresh, body, &payload); err != nil {
		return err
	}
	return c.session.SetToken(payload.Token)
}

func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var payload struct {
		User Profile `json:"user"`
	}
	if err := c.get(ctx, api.UsersProfile, &payload); err != nil {
		return nil, err
	}
	return &payload.User, nil
}

func (c *Client) MyAds(ctx context.Context) ([]json.RawMessage, error) {
	var payload struct {
		Ads []json.RawMessage `json:"ads"`
	}
	if err := c.get(ctx, api.UsersMyAds, &payload); err != nil {
		return nil, err
	}
	return payload.Ads, nil
}

// Logout is purely local: tokens are stateless server-side, so dropping the
// session is all there is to do.
func (c *Client) Logout() {
	c.session.Logout()
}

func (c *Client) storeSession(payload *authPayload) error {
	if err := c.session.SetToken(payload.Token); err != nil {
		return err
	}
	if payload.RefreshToken != "" {
		if err := c.session.SetRefreshToken(payload.RefreshToken); err != nil {
			return err
		}
	}
	return c.session.SetUser(payload.User)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr api.ErrorResponse
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
