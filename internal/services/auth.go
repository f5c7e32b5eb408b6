package services

import (
	"context"
	"encoding/json"

	"github.com/ajopay/ajo-cli/internal/api"
	"github.com/ajopay/ajo-cli/internal/auth"
	"github.com/ajopay/ajo-cli/internal/models"
)

// Auth handles login, registration, and session teardown. Its endpoints sit
// under /auth/ and are therefore exempt from caching, queueing, and
// refresh-retry.
type Auth struct {
	client  *api.Client
	session *auth.Session
	store   *auth.Store
}

// Bind attaches the session and credential store so login results can be
// persisted. Called once during app wiring.
func (a *Auth) Bind(session *auth.Session, store *auth.Store) {
	a.session = session
	a.store = store
}

// LoginRequest are the sign-in parameters.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest are the sign-up parameters.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Password  string `json:"password"`
}

type authResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         models.User `json:"user"`
}

// Login signs in and installs the resulting session.
func (a *Auth) Login(ctx context.Context, req LoginRequest) (*models.User, error) {
	data, err := a.client.Post(ctx, "/auth/login", req)
	if err != nil {
		return nil, err
	}
	return a.installSession(data)
}

// Register creates an account and installs the resulting session.
func (a *Auth) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	data, err := a.client.Post(ctx, "/auth/register", req)
	if err != nil {
		return nil, err
	}
	return a.installSession(data)
}

func (a *Auth) installSession(data json.RawMessage) (*models.User, error) {
	var resp authResponse
	if err := decode(data, &resp); err != nil {
		return nil, err
	}

	a.session.SetTokens(resp.AccessToken, resp.RefreshToken)
	a.session.SetUserID(resp.User.ID)
	if err := a.store.Save(&auth.Tokens{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		UserID:       resp.User.ID,
	}); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Me fetches the signed-in user's record.
func (a *Auth) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := getInto(ctx, a.client, "/auth/me", &user, api.NoCache()); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout tears down the session. The server-side logout is best-effort; the
// local session and stored tokens are destroyed regardless.
func (a *Auth) Logout(ctx context.Context) error {
	_, _ = a.client.Post(ctx, "/auth/logout", nil)
	a.session.Clear()
	return a.store.Delete()
}
