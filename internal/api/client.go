// Package api provides the HTTP client façade for the ajo backend. It
// combines the response cache, the offline queue, the token manager, and the
// connectivity monitor: GETs are cache-first with stale fallback, mutations
// queue while offline, 401s trigger one refresh-and-retry, and every failure
// leaves as a normalized *apierr.Error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ajopay/ajo-cli/internal/apierr"
	"github.com/ajopay/ajo-cli/internal/auth"
	"github.com/ajopay/ajo-cli/internal/cache"
	"github.com/ajopay/ajo-cli/internal/config"
	"github.com/ajopay/ajo-cli/internal/netmon"
	"github.com/ajopay/ajo-cli/internal/offline"
	"github.com/ajopay/ajo-cli/internal/version"
)

// Options holds the client's collaborators.
type Options struct {
	Config     *config.Config
	Session    *auth.Session
	Tokens     *auth.TokenManager
	Cache      *cache.Cache
	Queue      *offline.Queue
	Monitor    *netmon.Monitor
	ErrLog     *apierr.Log
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// Client is the API client. It owns no persistent state itself; it
// orchestrates the cache, queue, and credential stores.
type Client struct {
	cfg        *config.Config
	session    *auth.Session
	tokens     *auth.TokenManager
	cache      *cache.Cache
	queue      *offline.Queue
	monitor    *netmon.Monitor
	errlog     *apierr.Log
	logger     *slog.Logger
	httpClient *http.Client
}

// NewClient creates an API client from its collaborators.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errlog := opts.ErrLog
	if errlog == nil {
		errlog = apierr.NewLog(0)
	}
	return &Client{
		cfg:        opts.Config,
		session:    opts.Session,
		tokens:     opts.Tokens,
		cache:      opts.Cache,
		queue:      opts.Queue,
		monitor:    opts.Monitor,
		errlog:     errlog,
		logger:     logger,
		httpClient: httpClient,
	}
}

// GetOption adjusts a single GET call.
type GetOption func(*getOptions)

type getOptions struct {
	useCache   bool
	retryOn401 bool
}

// NoCache bypasses the response cache for this call.
func NoCache() GetOption {
	return func(o *getOptions) { o.useCache = false }
}

// NoAuthRetry disables the one refresh-and-retry on 401.
func NoAuthRetry() GetOption {
	return func(o *getOptions) { o.retryOn401 = false }
}

// Get performs a GET. Cache hits bypass the network entirely; while offline a
// stale entry (TTL ignored) is returned when one exists; a fresh response is
// cached under the configured TTL.
func (c *Client) Get(ctx context.Context, endpoint string, opts ...GetOption) (json.RawMessage, error) {
	o := getOptions{useCache: true, retryOn401: true}
	for _, opt := range opts {
		opt(&o)
	}

	endpoint = normalize(endpoint)
	key := cache.Key(http.MethodGet, endpoint)

	if o.useCache && c.cfg.CacheEnabled {
		if data := c.cache.Get(key); data != nil {
			c.logger.Debug("cache hit", "endpoint", endpoint)
			return data, nil
		}
	}

	if c.monitor != nil && !c.monitor.Online() {
		if stale := c.cache.GetStale(key); stale != nil {
			c.logger.Debug("offline, serving stale cache", "endpoint", endpoint)
			return stale, nil
		}
		err := apierr.Network(fmt.Errorf("offline: %s unreachable", endpoint))
		c.errlog.Record("GET "+endpoint, err)
		return nil, err
	}

	data, err := c.authedRequest(ctx, http.MethodGet, endpoint, nil, o.retryOn401)
	if err != nil {
		if stale := c.cache.GetStale(key); stale != nil {
			c.logger.Debug("request failed, serving stale cache", "endpoint", endpoint, "err", err)
			return stale, nil
		}
		c.errlog.Record("GET "+endpoint, err)
		return nil, err
	}

	if c.cfg.CacheEnabled {
		if err := c.cache.Set(key, data, c.cfg.CacheTTL.Duration()); err != nil {
			c.logger.Warn("cache write failed", "endpoint", endpoint, "err", err)
		}
	}
	return data, nil
}

// Post performs a POST, queueing it when offline.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	return c.mutate(ctx, http.MethodPost, endpoint, body)
}

// Put performs a PUT, queueing it when offline.
func (c *Client) Put(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	return c.mutate(ctx, http.MethodPut, endpoint, body)
}

// Delete performs a DELETE, queueing it when offline.
func (c *Client) Delete(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return c.mutate(ctx, http.MethodDelete, endpoint, nil)
}

// mutate runs a mutating request. Auth endpoints are never queued: a login
// that silently defers would leave the user unsure whether they are signed
// in, so those fail fast instead.
func (c *Client) mutate(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	endpoint = normalize(endpoint)

	var payload json.RawMessage
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		payload = raw
	}

	if c.monitor != nil && !c.monitor.Online() {
		if isAuthEndpoint(endpoint) {
			err := apierr.Network(fmt.Errorf("offline: %s requires a connection", endpoint))
			c.errlog.Record(method+" "+endpoint, err)
			return nil, err
		}
		return nil, c.enqueue(ctx, method, endpoint, payload)
	}

	data, err := c.authedRequest(ctx, method, endpoint, payload, !isAuthEndpoint(endpoint))
	if err != nil {
		// Connectivity dropped mid-flight: hand retryable mutations to the
		// queue so they replay once we're back.
		e := apierr.From(err)
		if e.Status == 0 && e.Code == apierr.CodeNetwork && !isAuthEndpoint(endpoint) && apierr.IsRetryable(e) {
			return nil, c.enqueue(ctx, method, endpoint, payload)
		}
		c.errlog.Record(method+" "+endpoint, err)
		return nil, err
	}

	if c.cfg.CacheEnabled {
		if err := c.cache.InvalidateSegment(cache.FirstSegment(endpoint)); err != nil {
			c.logger.Warn("cache invalidation failed", "endpoint", endpoint, "err", err)
		}
	}
	return data, nil
}

func (c *Client) enqueue(ctx context.Context, method, endpoint string, payload json.RawMessage) error {
	id, err := c.queue.Enqueue(ctx, method, endpoint, payload)
	if err != nil {
		queueErr := apierr.Network(fmt.Errorf("offline and failed to queue: %w", err))
		c.errlog.Record(method+" "+endpoint, queueErr)
		return queueErr
	}
	c.logger.Info("action queued for replay", "method", method, "endpoint", endpoint, "actionId", id)
	return apierr.Queued(id)
}

// Replay executes a queued action against the live backend. Failures are
// returned to the queue (which owns the retry ceiling) rather than being
// re-queued here.
func (c *Client) Replay(ctx context.Context, action offline.Action) error {
	endpoint := normalize(action.Endpoint)
	_, err := c.authedRequest(ctx, action.Type, endpoint, action.Data, true)
	if err != nil {
		return err
	}
	if c.cfg.CacheEnabled {
		_ = c.cache.InvalidateSegment(cache.FirstSegment(endpoint))
	}
	return nil
}

// authedRequest performs the request with current auth headers, refreshing
// and retrying exactly once on 401 when retryOn401 is set. Repeated 401s
// propagate: there is never more than one refresh per call.
func (c *Client) authedRequest(ctx context.Context, method, endpoint string, body json.RawMessage, retryOn401 bool) (json.RawMessage, error) {
	data, err := c.send(ctx, method, endpoint, body)
	if err == nil {
		return data, nil
	}

	e := apierr.From(err)
	if e.Status != http.StatusUnauthorized || !retryOn401 || isAuthEndpoint(endpoint) || c.tokens == nil {
		return nil, err
	}

	if _, refreshErr := c.tokens.Refresh(ctx); refreshErr != nil {
		return nil, refreshErr
	}
	return c.send(ctx, method, endpoint, body)
}

// send executes one HTTP round trip and normalizes the outcome.
func (c *Client) send(ctx context.Context, method, endpoint string, body json.RawMessage) (json.RawMessage, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+endpoint, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if token := c.accessToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("request", "method", method, "endpoint", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.monitor != nil {
			c.monitor.SetOnline(false)
		}
		return nil, apierr.Network(err)
	}
	defer resp.Body.Close()

	if c.monitor != nil {
		c.monitor.SetOnline(true)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.Network(err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if len(respBody) == 0 {
			respBody = []byte("null")
		}
		return respBody, nil
	}

	return nil, normalizeHTTPError(resp, respBody)
}

// accessToken returns the bearer token for the request, or "" for
// unauthenticated calls. A proactive-refresh failure surfaces as a 401 from
// the server on this request, which the caller handles.
func (c *Client) accessToken(ctx context.Context) string {
	if c.session == nil || !c.session.Authenticated() {
		return ""
	}
	if c.tokens != nil {
		if token, err := c.tokens.AccessToken(ctx); err == nil {
			return token
		}
		return ""
	}
	return c.session.AccessToken()
}

// normalizeHTTPError maps a non-2xx response to the normalized error shape,
// carrying a server-supplied message/code/details when the body parses.
func normalizeHTTPError(resp *http.Response, body []byte) *apierr.Error {
	var serverErr struct {
		Message string         `json:"message"`
		Error   string         `json:"error"`
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	_ = json.Unmarshal(body, &serverErr)

	msg := serverErr.Message
	if msg == "" {
		msg = serverErr.Error
	}

	details := serverErr.Details
	if resp.StatusCode == http.StatusTooManyRequests {
		if after := parseRetryAfter(resp.Header.Get("Retry-After")); after > 0 {
			if details == nil {
				details = make(map[string]any)
			}
			details["retryAfter"] = after
		}
	}

	return apierr.HTTP(resp.StatusCode, msg, serverErr.Code, details)
}

// parseRetryAfter parses the Retry-After header value.
func parseRetryAfter(header string) int {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return seconds
	}
	return 0
}

// normalize ensures the endpoint starts with /.
func normalize(endpoint string) string {
	if !strings.HasPrefix(endpoint, "/") {
		return "/" + endpoint
	}
	return endpoint
}

// isAuthEndpoint reports whether the endpoint belongs to the auth flows,
// which must fail fast rather than queue or trigger refresh loops.
func isAuthEndpoint(endpoint string) bool {
	return strings.Contains(normalize(endpoint), "/auth/")
}
