package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Transport attaches the session's bearer token to every request. On a 401
// it performs exactly one refresh and retries once; a failed refresh tears
// the session down so concurrent callers fail fast instead of piling up
// refresh attempts.
type Transport struct {
	Base       http.RoundTripper
	Session    *SessionManager
	RefreshURL string
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.Session.Token()
	if token != "" {
		req = cloneWithToken(req, token)
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	newToken, refreshErr := t.refresh(req)
	if refreshErr != nil {
		t.Session.Logout()
		return resp, nil
	}

	retry, err := cloneForRetry(req)
	if err != nil {
		return resp, nil
	}
	resp.Body.Close()

	return t.base().RoundTrip(cloneWithToken(retry, newToken))
}

func (t *Transport) refresh(original *http.Request) (string, error) {
	refreshToken := t.Session.RefreshToken()
	if refreshToken == "" {
		return "", fmt.Errorf("no refresh token")
	}

	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(original.Context(), http.MethodPost, t.RefreshURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("refresh failed with status %d", resp.StatusCode)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.Token == "" {
		return "", fmt.Errorf("refresh response missing token")
	}

	if err := t.Session.SetToken(payload.Token); err != nil {
		return "", err
	}
	return payload.Token, nil
}

func cloneWithToken(req *http.Request, token string) *http.Request {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return clone
}

func cloneForRetry(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	return clone, nil
}
