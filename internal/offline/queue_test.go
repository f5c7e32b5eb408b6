package offline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajopay/ajo-cli/internal/apierr"
	"github.com/ajopay/ajo-cli/internal/netmon"
)

// fakeReplayer records replay order and fails endpoints listed in failing.
type fakeReplayer struct {
	mu      sync.Mutex
	order   []string
	failing map[string]bool
}

func (f *fakeReplayer) Replay(ctx context.Context, action Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = append(f.order, action.Endpoint)
	if f.failing[action.Endpoint] {
		return apierr.Network(errors.New("still down"))
	}
	return nil
}

func (f *fakeReplayer) replayed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

func newTestQueue(t *testing.T) (*Queue, *fakeReplayer) {
	t.Helper()
	q := NewQueue(NewStore(t.TempDir()), nil, apierr.NewLog(10), nil)
	r := &fakeReplayer{failing: map[string]bool{}}
	q.SetReplayer(r)
	return q, r
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	actions, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, actions)

	a := Action{ID: "1", Type: "POST", Endpoint: "/groups/g1/join", Timestamp: 42}
	require.NoError(t, store.Append(a))
	require.NoError(t, store.Append(Action{ID: "2", Type: "DELETE", Endpoint: "/notifications/n1"}))

	actions, err = store.Load()
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "1", actions[0].ID)
	assert.Equal(t, "2", actions[1].ID)
}

func TestEnqueueAssignsIDAndPersists(t *testing.T) {
	q, _ := newTestQueue(t)

	id, err := q.Enqueue(context.Background(), "POST", "/groups/g1/join", json.RawMessage(`{"amount":100}`))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	st, err := q.Status()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Count)
	assert.NotZero(t, st.Oldest)
}

func TestProcessFIFO(t *testing.T) {
	q, r := newTestQueue(t)
	ctx := context.Background()

	for _, ep := range []string{"/a", "/b", "/c"} {
		_, err := q.Enqueue(ctx, "POST", ep, nil)
		require.NoError(t, err)
	}

	require.NoError(t, q.Process(ctx))

	assert.Equal(t, []string{"/a", "/b", "/c"}, r.replayed())
	st, err := q.Status()
	require.NoError(t, err)
	assert.Equal(t, 0, st.Count)
}

func TestProcessRetryCeiling(t *testing.T) {
	q, r := newTestQueue(t)
	ctx := context.Background()
	r.failing["/doomed"] = true

	_, err := q.Enqueue(ctx, "POST", "/doomed", nil)
	require.NoError(t, err)

	// Each pass attempts the action once; it is dropped after exactly 3.
	for pass := 1; pass <= 3; pass++ {
		require.NoError(t, q.Process(ctx))
		st, err := q.Status()
		require.NoError(t, err)
		if pass < 3 {
			assert.Equal(t, 1, st.Count, "pass %d should keep the action", pass)
		} else {
			assert.Equal(t, 0, st.Count, "pass 3 should drop the action")
			assert.Equal(t, int64(1), st.Dropped)
		}
	}

	assert.Len(t, r.replayed(), 3, "never more than 3 attempts")

	// A further pass does not resurrect it.
	require.NoError(t, q.Process(ctx))
	assert.Len(t, r.replayed(), 3)
}

func TestProcessKeepsFailingActionBehindSuccesses(t *testing.T) {
	q, r := newTestQueue(t)
	ctx := context.Background()
	r.failing["/flaky"] = true

	_, err := q.Enqueue(ctx, "POST", "/flaky", nil)
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "POST", "/ok", nil)
	require.NoError(t, err)

	require.NoError(t, q.Process(ctx))

	// Both attempted in order; only the failing one remains.
	assert.Equal(t, []string{"/flaky", "/ok"}, r.replayed())
	pending, err := q.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "/flaky", pending[0].Endpoint)
	assert.Equal(t, 1, pending[0].Retries)
}

func TestProcessKeepsActionEnqueuedMidPass(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	// Replaying the first action enqueues another, the same way a mutation
	// issued while a replay pass runs lands between the pass's snapshot and
	// its final write-back.
	var midPassID string
	q.SetReplayer(replayFunc(func(ctx context.Context, a Action) error {
		if midPassID == "" {
			id, err := q.Enqueue(ctx, "POST", "/payments", nil)
			require.NoError(t, err)
			midPassID = id
		}
		return nil
	}))

	_, err := q.Enqueue(ctx, "POST", "/groups/g1/join", nil)
	require.NoError(t, err)

	require.NoError(t, q.Process(ctx))

	pending, err := q.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1, "the action enqueued during the pass must survive it")
	assert.Equal(t, midPassID, pending[0].ID)
	assert.Equal(t, "/payments", pending[0].Endpoint)

	// The next pass replays it normally.
	require.NoError(t, q.Process(ctx))
	st, err := q.Status()
	require.NoError(t, err)
	assert.Equal(t, 0, st.Count)
}

func TestProcessSingleFlight(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	block := make(chan struct{})
	var attempts int
	var mu sync.Mutex
	q.SetReplayer(replayFunc(func(ctx context.Context, a Action) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		<-block
		return nil
	}))

	_, err := q.Enqueue(ctx, "POST", "/slow", nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_ = q.Process(ctx)
		close(done)
	}()

	// Wait until the first pass is mid-flight, then trigger again.
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, q.Process(ctx), "overlapping trigger must be a no-op")

	close(block)
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, attempts, "the overlapping pass must not double-process")
}

type replayFunc func(ctx context.Context, a Action) error

func (f replayFunc) Replay(ctx context.Context, a Action) error { return f(ctx, a) }

func TestClearQueue(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "POST", "/x", nil)
	require.NoError(t, err)

	require.NoError(t, q.Clear())
	st, err := q.Status()
	require.NoError(t, err)
	assert.Equal(t, 0, st.Count)
}

func TestInitializeReplaysOnReconnect(t *testing.T) {
	monitor := netmon.New("http://unused", 0, nil)
	monitor.SetOnline(false)

	q := NewQueue(NewStore(t.TempDir()), monitor, apierr.NewLog(10), nil)
	r := &fakeReplayer{failing: map[string]bool{}}
	q.SetReplayer(r)

	ctx := context.Background()
	require.NoError(t, q.Initialize(ctx))

	_, err := q.Enqueue(ctx, "POST", "/groups/g1/join", nil)
	require.NoError(t, err)

	// Connectivity returns: the queue should auto-replay.
	monitor.SetOnline(true)

	assert.Eventually(t, func() bool {
		st, err := q.Status()
		return err == nil && st.Count == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"/groups/g1/join"}, r.replayed())
}
