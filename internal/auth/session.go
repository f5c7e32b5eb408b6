package auth

import "sync"

// Session is the in-memory mirror of the authenticated state. It is owned by
// the App and injected into the token manager and API client, never a
// package-level singleton.
type Session struct {
	mu            sync.RWMutex
	accessToken   string
	refreshToken  string
	userID        string
	authenticated bool
}

// NewSession creates an empty, unauthenticated session.
func NewSession() *Session {
	return &Session{}
}

// Restore populates the session from the credential store, e.g. at launch.
// A missing store entry leaves the session unauthenticated.
func (s *Session) Restore(store *Store) {
	tokens, err := store.Load()
	if err != nil || tokens.AccessToken == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = tokens.AccessToken
	s.refreshToken = tokens.RefreshToken
	s.userID = tokens.UserID
	s.authenticated = true
}

// SetTokens updates the token pair and marks the session authenticated.
func (s *Session) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	if refresh != "" {
		s.refreshToken = refresh
	}
	s.authenticated = access != ""
}

// SetUserID records the signed-in user's ID.
func (s *Session) SetUserID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = id
}

// AccessToken returns the current access token ("" when signed out).
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// UserID returns the signed-in user's ID.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Authenticated reports whether the session holds an access token.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Clear wipes all session state. Used on logout and unrecoverable refresh
// failure.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
	s.userID = ""
	s.authenticated = false
}
