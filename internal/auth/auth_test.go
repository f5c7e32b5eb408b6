package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajopay/ajo-cli/internal/apierr"
)

func fileStore(t *testing.T) *Store {
	t.Helper()
	return &Store{useKeyring: false, fallbackDir: t.TempDir()}
}

func TestStoreSaveLoadDelete(t *testing.T) {
	store := fileStore(t)

	tokens := &Tokens{AccessToken: "acc", RefreshToken: "ref", UserID: "u1"}
	require.NoError(t, store.Save(tokens))

	info, err := os.Stat(filepath.Join(store.fallbackDir, "credentials.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "acc", loaded.AccessToken)
	assert.Equal(t, "ref", loaded.RefreshToken)
	assert.Equal(t, "u1", loaded.UserID)

	require.NoError(t, store.Delete())
	_, err = store.Load()
	assert.Error(t, err)

	// Deleting again is not an error.
	require.NoError(t, store.Delete())
}

func TestSessionLifecycle(t *testing.T) {
	s := NewSession()
	assert.False(t, s.Authenticated())

	s.SetTokens("acc", "ref")
	s.SetUserID("u1")
	assert.True(t, s.Authenticated())
	assert.Equal(t, "acc", s.AccessToken())
	assert.Equal(t, "ref", s.RefreshToken())
	assert.Equal(t, "u1", s.UserID())

	// Empty refresh token keeps the old one.
	s.SetTokens("acc2", "")
	assert.Equal(t, "ref", s.RefreshToken())

	s.Clear()
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.AccessToken())
	assert.Empty(t, s.RefreshToken())
	assert.Empty(t, s.UserID())
}

func TestSessionRestore(t *testing.T) {
	store := fileStore(t)
	require.NoError(t, store.Save(&Tokens{AccessToken: "acc", RefreshToken: "ref", UserID: "u1"}))

	s := NewSession()
	s.Restore(store)

	assert.True(t, s.Authenticated())
	assert.Equal(t, "acc", s.AccessToken())
	assert.Equal(t, "u1", s.UserID())
}

func TestSessionRestoreMissingTokens(t *testing.T) {
	s := NewSession()
	s.Restore(fileStore(t))
	assert.False(t, s.Authenticated())
}

func TestRefreshSingleFlight(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/refresh-token", r.URL.Path)
		atomic.AddInt64(&calls, 1)
		// Hold all callers in flight long enough to coalesce.
		time.Sleep(50 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"accessToken":  "fresh-access",
			"refreshToken": "fresh-refresh",
		})
	}))
	defer srv.Close()

	store := fileStore(t)
	session := NewSession()
	session.SetTokens("stale", "ref")
	mgr := NewTokenManager(srv.URL, store, session, srv.Client())

	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := mgr.Refresh(context.Background())
			assert.NoError(t, err)
			results[i] = token
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "concurrent refreshes must coalesce into one request")
	for _, token := range results {
		assert.Equal(t, "fresh-access", token)
	}

	// Session and store both updated.
	assert.Equal(t, "fresh-access", session.AccessToken())
	assert.Equal(t, "fresh-refresh", session.RefreshToken())
	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "fresh-access", saved.AccessToken)
}

func TestRefreshFailureForcesLogout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid refresh token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := fileStore(t)
	require.NoError(t, store.Save(&Tokens{AccessToken: "stale", RefreshToken: "bad"}))
	session := NewSession()
	session.Restore(store)
	mgr := NewTokenManager(srv.URL, store, session, srv.Client())

	_, err := mgr.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, 401, apierr.From(err).Status)

	assert.False(t, session.Authenticated(), "refresh failure is a hard logout")
	_, err = store.Load()
	assert.Error(t, err, "persisted tokens must be destroyed")
}

func TestRefreshWithoutRefreshToken(t *testing.T) {
	store := fileStore(t)
	session := NewSession()
	session.SetTokens("acc", "")
	mgr := NewTokenManager("http://unused", store, session, nil)

	_, err := mgr.Refresh(context.Background())
	require.Error(t, err)
	assert.False(t, session.Authenticated())
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix(), "sub": "u1"})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestAccessTokenProactiveRefresh(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "fresh", "refreshToken": "ref2"})
	}))
	defer srv.Close()

	session := NewSession()
	session.SetTokens(signedToken(t, time.Now().Add(10*time.Second)), "ref")
	mgr := NewTokenManager(srv.URL, fileStore(t), session, srv.Client())

	token, err := mgr.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestAccessTokenSkipsRefreshWhenFresh(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer srv.Close()

	fresh := signedToken(t, time.Now().Add(time.Hour))
	session := NewSession()
	session.SetTokens(fresh, "ref")
	mgr := NewTokenManager(srv.URL, fileStore(t), session, srv.Client())

	token, err := mgr.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, token)
	assert.Zero(t, atomic.LoadInt64(&calls), "no refresh expected for a fresh token")
}

func TestAccessTokenOpaqueTokenPassesThrough(t *testing.T) {
	session := NewSession()
	session.SetTokens("opaque-token", "ref")
	mgr := NewTokenManager("http://unused", fileStore(t), session, nil)

	token, err := mgr.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", token)
}

func TestAccessTokenUnauthenticated(t *testing.T) {
	mgr := NewTokenManager("http://unused", fileStore(t), NewSession(), nil)
	_, err := mgr.AccessToken(context.Background())
	require.Error(t, err)
	assert.Equal(t, 401, apierr.From(err).Status)
}
