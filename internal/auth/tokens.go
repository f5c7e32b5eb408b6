package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/ajopay/ajo-cli/internal/apierr"
)

// expiryBuffer is how close to expiry an access token may get before a
// proactive refresh.
const expiryBuffer = 60 * time.Second

// TokenManager coordinates access-token refresh. Concurrent refresh attempts
// are coalesced: all callers share one request to the refresh endpoint and
// observe the same outcome.
type TokenManager struct {
	baseURL    string
	store      *Store
	session    *Session
	httpClient *http.Client

	group singleflight.Group
	now   func() time.Time
}

// NewTokenManager creates a token manager bound to the given session and
// credential store.
func NewTokenManager(baseURL string, store *Store, session *Session, httpClient *http.Client) *TokenManager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &TokenManager{
		baseURL:    baseURL,
		store:      store,
		session:    session,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// AccessToken returns a usable access token, refreshing proactively when the
// token's exp claim is within the expiry buffer.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	token := m.session.AccessToken()
	if token == "" {
		return "", apierr.HTTP(401, "Not authenticated", "", nil)
	}
	if m.nearExpiry(token) {
		refreshed, err := m.Refresh(ctx)
		if err != nil {
			return "", err
		}
		return refreshed, nil
	}
	return token, nil
}

// nearExpiry parses the token's exp claim without verifying the signature
// (the server is the authority; the client only needs the timestamp).
// Opaque tokens are assumed valid until the server says otherwise.
func (m *TokenManager) nearExpiry(token string) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return m.now().Add(expiryBuffer).After(exp.Time)
}

// Refresh exchanges the refresh token for a new token pair. Concurrent
// callers attach to the in-flight refresh rather than issuing duplicates.
// On success the new pair is persisted and the session updated; on failure
// the entire session is cleared (hard logout).
func (m *TokenManager) Refresh(ctx context.Context) (string, error) {
	result, err, _ := m.group.Do("refresh", func() (any, error) {
		return m.doRefresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (m *TokenManager) doRefresh(ctx context.Context) (string, error) {
	refreshToken := m.session.RefreshToken()
	if refreshToken == "" {
		m.logout()
		return "", apierr.HTTP(401, "No refresh token available", "", nil)
	}

	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/auth/refresh-token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.logout()
		return "", apierr.Network(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		m.logout()
		return "", apierr.HTTP(resp.StatusCode, fmt.Sprintf("token refresh failed: %s", respBody), "", nil)
	}

	var tokenResp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		m.logout()
		return "", apierr.Network(err)
	}
	if tokenResp.AccessToken == "" {
		m.logout()
		return "", apierr.HTTP(401, "token refresh returned no access token", "", nil)
	}

	m.session.SetTokens(tokenResp.AccessToken, tokenResp.RefreshToken)
	if err := m.store.Save(&Tokens{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: m.session.RefreshToken(),
		UserID:       m.session.UserID(),
	}); err != nil {
		return "", err
	}

	return tokenResp.AccessToken, nil
}

// logout destroys both the persisted tokens and the in-memory session.
func (m *TokenManager) logout() {
	_ = m.store.Delete()
	m.session.Clear()
}
