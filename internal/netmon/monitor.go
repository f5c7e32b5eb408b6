// Package netmon tracks backend reachability. It answers the point-in-time
// "are we online" question and publishes transitions on an event bus so the
// offline queue can trigger replay when connectivity returns.
package netmon

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
)

const (
	// TopicOnline is the bus topic for connectivity transitions. The
	// payload is the new online state.
	TopicOnline = "net:online"

	// probeTimeout bounds the connectivity probe.
	probeTimeout = 3 * time.Second
)

// Monitor polls the backend health endpoint and tracks online state.
type Monitor struct {
	probeURL string
	interval time.Duration
	client   *http.Client
	bus      EventBus.Bus

	mu     sync.RWMutex
	online bool

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a monitor probing probeURL every interval.
// The monitor starts out assuming it is online; the first probe corrects it.
func New(probeURL string, interval time.Duration, bus EventBus.Bus) *Monitor {
	if bus == nil {
		bus = EventBus.New()
	}
	return &Monitor{
		probeURL: probeURL,
		interval: interval,
		client:   &http.Client{Timeout: probeTimeout},
		bus:      bus,
		online:   true,
		stop:     make(chan struct{}),
	}
}

// Bus returns the event bus transitions are published on.
func (m *Monitor) Bus() EventBus.Bus {
	return m.bus
}

// Online reports the last known connectivity state.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// SetOnline records a state observed elsewhere (a request that failed to
// reach the server, or a test). Publishes on transition.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	changed := m.online != online
	m.online = online
	m.mu.Unlock()

	if changed {
		m.bus.Publish(TopicOnline, online)
	}
}

// Probe performs one connectivity check against the health endpoint.
// Any HTTP response counts as reachable; only transport failure is offline.
func (m *Monitor) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.probeURL, nil)
	if err != nil {
		return false
	}
	resp, err := m.client.Do(req)
	if err != nil {
		m.SetOnline(false)
		return false
	}
	resp.Body.Close()
	m.SetOnline(true)
	return true
}

// Start launches the background poll loop. Returns immediately.
func (m *Monitor) Start(ctx context.Context) {
	if m.interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				m.Probe(ctx)
			}
		}
	}()
}

// Stop terminates the poll loop.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}
