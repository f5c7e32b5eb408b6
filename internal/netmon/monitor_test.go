package netmon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := New(srv.URL+"/health", 0, nil)
	assert.True(t, m.Probe(context.Background()))
	assert.True(t, m.Online())
}

func TestProbeServerErrorStillCountsAsReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := New(srv.URL+"/health", 0, nil)
	assert.True(t, m.Probe(context.Background()), "a 500 means the network is up")
}

func TestProbeOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Nothing listening.

	m := New(srv.URL+"/health", 0, nil)
	assert.False(t, m.Probe(context.Background()))
	assert.False(t, m.Online())
}

func TestSetOnlinePublishesOnTransition(t *testing.T) {
	m := New("http://unused", 0, nil)

	var events int64
	var last atomic.Bool
	require.NoError(t, m.Bus().Subscribe(TopicOnline, func(online bool) {
		atomic.AddInt64(&events, 1)
		last.Store(online)
	}))

	m.SetOnline(false) // transition: online -> offline
	m.SetOnline(false) // no transition
	m.SetOnline(true)  // transition: offline -> online

	// EventBus delivers synchronously for plain Subscribe, but allow a beat.
	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&events) == 2 && last.Load()
	}, time.Second, 10*time.Millisecond)
}
