package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajopay/ajo-cli/internal/api"
	"github.com/ajopay/ajo-cli/internal/apierr"
	"github.com/ajopay/ajo-cli/internal/appctx"
	"github.com/ajopay/ajo-cli/internal/auth"
	"github.com/ajopay/ajo-cli/internal/cache"
	"github.com/ajopay/ajo-cli/internal/config"
	"github.com/ajopay/ajo-cli/internal/kv"
	"github.com/ajopay/ajo-cli/internal/netmon"
	"github.com/ajopay/ajo-cli/internal/offline"
	"github.com/ajopay/ajo-cli/internal/output"
	"github.com/ajopay/ajo-cli/internal/services"
)

// newTestApp wires a full app over an httptest backend, with CLI output
// captured in the returned buffer.
func newTestApp(t *testing.T, handler http.Handler) (*appctx.App, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("AJO_NO_KEYRING", "1")

	cfg := config.Default()
	cfg.BaseURL = srv.URL
	cfg.CacheDir = t.TempDir()

	session := auth.NewSession()
	session.SetTokens("test-access", "test-refresh")
	session.SetUserID("u1")

	store := auth.NewStore(t.TempDir())
	tokens := auth.NewTokenManager(srv.URL, store, session, srv.Client())
	responseCache := cache.New(kv.New(cfg.CacheDir))
	monitor := netmon.New(srv.URL+"/health", 0, nil)
	errlog := apierr.NewLog(10)
	queue := offline.NewQueue(offline.NewStore(t.TempDir()), monitor, errlog, nil)

	client := api.NewClient(api.Options{
		Config:     cfg,
		Session:    session,
		Tokens:     tokens,
		Cache:      responseCache,
		Queue:      queue,
		Monitor:    monitor,
		ErrLog:     errlog,
		HTTPClient: srv.Client(),
	})
	queue.SetReplayer(client)
	require.NoError(t, queue.Initialize(context.Background()))

	svcs := services.New(client)
	svcs.Auth.Bind(session, store)

	buf := &bytes.Buffer{}
	return &appctx.App{
		Config:   cfg,
		Session:  session,
		Store:    store,
		Tokens:   tokens,
		Cache:    responseCache,
		Queue:    queue,
		Monitor:  monitor,
		Client:   client,
		Services: svcs,
		Output:   output.New(output.FormatJSON, buf),
		ErrLog:   errlog,
	}, buf
}

func execute(t *testing.T, cmd *cobra.Command, app *appctx.App, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetContext(appctx.WithApp(context.Background(), app))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func envelope(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	return env
}

func TestGroupsMineListsGroups(t *testing.T) {
	app, buf := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/groups/my-groups", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":"g1","name":"Ajo Circle"},{"id":"g2","name":"Office Pot"}]`))
	}))

	err := execute(t, NewGroupsCmd(), app, "mine")
	require.NoError(t, err)

	env := envelope(t, buf)
	assert.Equal(t, true, env["ok"])
	assert.Equal(t, "2 groups", env["summary"])
}

func TestGroupsJoinWhileOfflineReportsQueued(t *testing.T) {
	app, buf := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected while offline")
	}))
	app.Monitor.SetOnline(false)

	err := execute(t, NewGroupsCmd(), app, "join", "g1")
	require.NoError(t, err, "a queued join is deferred success, not an error")

	env := envelope(t, buf)
	assert.Equal(t, true, env["ok"])
	data, _ := env["data"].(map[string]any)
	assert.NotEmpty(t, data["actionId"])

	st, err := app.Queue.Status()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Count)
}

func TestCommandsRequireAuth(t *testing.T) {
	app, _ := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without a session")
	}))
	app.Session.Clear()

	err := execute(t, NewGroupsCmd(), app, "mine")
	require.Error(t, err)

	e := apierr.From(err)
	assert.Equal(t, 401, e.Status)
	assert.Equal(t, output.ExitAuth, output.ExitCodeFor(e))
}

func TestQueueStatusAndClear(t *testing.T) {
	app, buf := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	app.Monitor.SetOnline(false)

	_, err := app.Client.Post(context.Background(), "/payments", map[string]any{"amount": 1000})
	require.True(t, apierr.From(err).IsQueued())

	require.NoError(t, execute(t, NewQueueCmd(), app, "status"))
	env := envelope(t, buf)
	data, _ := env["data"].(map[string]any)
	assert.Equal(t, float64(1), data["count"])

	// Clearing without --force refuses.
	require.Error(t, execute(t, NewQueueCmd(), app, "clear"))

	buf.Reset()
	require.NoError(t, execute(t, NewQueueCmd(), app, "clear", "--force"))
	st, err := app.Queue.Status()
	require.NoError(t, err)
	assert.Equal(t, 0, st.Count)
}

func TestAPICommandAppliesJQ(t *testing.T) {
	app, buf := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"id":"a"},{"id":"b"}]}`))
	}))

	err := execute(t, NewAPICmd(), app, "get", "/groups", "--jq", ".items | length")
	require.NoError(t, err)

	env := envelope(t, buf)
	assert.Equal(t, float64(2), env["data"])
}

func TestDoctorReportsChecks(t *testing.T) {
	app, buf := newTestApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	err := execute(t, NewDoctorCmd(), app)
	require.NoError(t, err)

	env := envelope(t, buf)
	checks, _ := env["data"].([]any)
	require.Len(t, checks, 5)
	names := make([]string, 0, len(checks))
	for _, c := range checks {
		m, _ := c.(map[string]any)
		names = append(names, m["name"].(string))
	}
	assert.Equal(t, []string{"config", "cache", "credentials", "connectivity", "queue"}, names)
}
