package offline

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ajopay/ajo-cli/internal/apierr"
	"github.com/ajopay/ajo-cli/internal/netmon"
)

// maxRetries is the replay attempt ceiling. An action that has failed this
// many times is dropped: the caller already received its QUEUED response and
// gets no second notification, only a log entry and the Dropped counter.
const maxRetries = 3

// Replayer executes a queued action against the live backend.
// Implemented by the API client.
type Replayer interface {
	Replay(ctx context.Context, action Action) error
}

// Status summarizes the queue.
type Status struct {
	Count   int   `json:"count"`
	Oldest  int64 `json:"oldest,omitempty"` // epoch ms of the oldest pending action
	Dropped int64 `json:"dropped"`          // actions dropped at the retry ceiling this session
}

// Queue is the durable FIFO of pending mutations.
type Queue struct {
	store    *Store
	monitor  *netmon.Monitor
	errlog   *apierr.Log
	logger   *slog.Logger
	replayer Replayer

	mu         sync.Mutex
	processing bool
	dropped    int64

	now func() time.Time
}

// NewQueue creates a queue over store. monitor may be nil in tests.
func NewQueue(store *Store, monitor *netmon.Monitor, errlog *apierr.Log, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	if errlog == nil {
		errlog = apierr.NewLog(0)
	}
	return &Queue{
		store:   store,
		monitor: monitor,
		errlog:  errlog,
		logger:  logger,
		now:     time.Now,
	}
}

// SetReplayer wires the component that executes replayed actions. Set after
// construction because the API client and the queue reference each other.
func (q *Queue) SetReplayer(r Replayer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.replayer = r
}

// Initialize loads the persisted queue and subscribes to connectivity
// transitions so an offline-to-online flip triggers a replay pass.
func (q *Queue) Initialize(ctx context.Context) error {
	if _, err := q.store.Load(); err != nil {
		return err
	}
	if q.monitor != nil {
		if err := q.monitor.Bus().Subscribe(netmon.TopicOnline, func(online bool) {
			if online {
				go func() { _ = q.Process(ctx) }()
			}
		}); err != nil {
			return err
		}
	}
	return nil
}

// Enqueue appends a pending action and returns its ID. If the device looks
// online the queue opportunistically kicks off a replay pass.
func (q *Queue) Enqueue(ctx context.Context, actionType, endpoint string, data json.RawMessage) (string, error) {
	action := Action{
		ID:        uuid.NewString(),
		Type:      actionType,
		Endpoint:  endpoint,
		Data:      data,
		Timestamp: q.now().UnixMilli(),
	}
	if err := q.store.Append(action); err != nil {
		return "", err
	}
	q.logger.Debug("queued offline action", "id", action.ID, "type", actionType, "endpoint", endpoint)

	if q.monitor != nil && q.monitor.Online() {
		go func() { _ = q.Process(ctx) }()
	}
	return action.ID, nil
}

// Process replays pending actions in enqueue order, one attempt per action
// per pass. Overlapping triggers (connectivity event during a manual replay)
// do not double-process: a pass already in flight makes this call a no-op.
func (q *Queue) Process(ctx context.Context) error {
	q.mu.Lock()
	if q.processing || q.replayer == nil {
		q.mu.Unlock()
		return nil
	}
	q.processing = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.processing = false
		q.mu.Unlock()
	}()

	actions, err := q.store.Load()
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		return nil
	}

	// Track outcomes by ID and reconcile against the stored queue at the
	// end: an action enqueued while this pass runs (another process, or a
	// mutation racing the connectivity event) is not in our snapshot and
	// must survive untouched.
	finished := make(map[string]bool)
	retried := make(map[string]int)

	for _, action := range actions {
		if ctx.Err() != nil {
			continue
		}

		err := q.replayer.Replay(ctx, action)
		if err == nil {
			q.logger.Debug("replayed offline action", "id", action.ID, "endpoint", action.Endpoint)
			finished[action.ID] = true
			continue
		}

		action.Retries++
		if action.Retries >= maxRetries {
			q.mu.Lock()
			q.dropped++
			q.mu.Unlock()
			q.errlog.Record("offline-replay-dropped:"+action.Endpoint, err)
			q.logger.Warn("dropping offline action after retry ceiling",
				"id", action.ID, "endpoint", action.Endpoint, "retries", action.Retries)
			finished[action.ID] = true
			continue
		}

		q.errlog.Record("offline-replay:"+action.Endpoint, err)
		retried[action.ID] = action.Retries
	}

	return q.store.Update(func(current []Action) []Action {
		kept := current[:0]
		for _, action := range current {
			if finished[action.ID] {
				continue
			}
			if retries, ok := retried[action.ID]; ok {
				action.Retries = retries
			}
			kept = append(kept, action)
		}
		return kept
	})
}

// Status reports the pending count, the oldest pending timestamp, and the
// number of actions dropped this session.
func (q *Queue) Status() (Status, error) {
	actions, err := q.store.Load()
	if err != nil {
		return Status{}, err
	}

	q.mu.Lock()
	dropped := q.dropped
	q.mu.Unlock()

	st := Status{Count: len(actions), Dropped: dropped}
	if len(actions) > 0 {
		st.Oldest = actions[0].Timestamp
	}
	return st, nil
}

// Pending returns a copy of the queued actions in enqueue order.
func (q *Queue) Pending() ([]Action, error) {
	return q.store.Load()
}

// Clear drops every pending action.
func (q *Queue) Clear() error {
	return q.store.Save(nil)
}
