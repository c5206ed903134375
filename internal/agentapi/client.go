// Package agentapi talks to the two HTTP APIs fleetdash depends on: the
// central Fleet API that lists agents, and the File API each agent serves.
package agentapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rileyhilliard/fleetdash/internal/config"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/telemetry"
)

const (
	defaultTimeout         = 15 * time.Second
	defaultTransferTimeout = 10 * time.Minute
	defaultUserAgent       = "fleetdash/dev"

	// RequestIDHeader carries a per-request UUID for correlating logs.
	RequestIDHeader = "X-Request-ID"
)

// Options are shared by every client created from one config.
type Options struct {
	// HTTPClient defaults to a plain http.Client. Timeouts are applied per
	// request through the context, not through Client.Timeout.
	HTTPClient *http.Client

	// Timeout bounds unary requests.
	Timeout time.Duration

	// TransferTimeout bounds uploads and downloads.
	TransferTimeout time.Duration

	// Limiter throttles requests per host. Nil disables limiting.
	Limiter *HostLimiter

	// UserAgent is sent on every request, e.g. "fleetdash/1.2.0".
	UserAgent string

	Logger logger.Logger
}

// OptionsFromConfig builds Options from the http config section.
// The returned limiter is meant to be shared by all clients.
func OptionsFromConfig(h config.HTTPConfig, version string) Options {
	if version == "" {
		version = "dev"
	}
	return Options{
		Timeout:         h.Timeout,
		TransferTimeout: h.TransferTimeout,
		Limiter:         NewHostLimiter(h.RateLimit, h.Burst),
		UserAgent:       "fleetdash/" + version,
		Logger:          logger.NewEnvLogger("[http]"),
	}
}

func (o Options) withDefaults() Options {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.TransferTimeout <= 0 {
		o.TransferTimeout = defaultTransferTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	o.Logger = logger.OrDefault(o.Logger)
	return o
}

// client is the request plumbing shared by FleetClient and FileClient.
type client struct {
	baseURL string
	host    string
	opts    Options
}

func newClient(baseURL string, opts Options) (*client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", baseURL)
	}
	return &client{
		baseURL: baseURL,
		host:    u.Host,
		opts:    opts.withDefaults(),
	}, nil
}

// BaseURL returns the URL requests are made against.
func (c *client) BaseURL() string {
	return c.baseURL
}

type request struct {
	op          string // human name used in errors, e.g. "list files"
	endpoint    string // metric label
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	longLived   bool
}

func (r request) url(base string) string {
	u := base + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	return u
}

// do sends r and returns the response for a 2xx status. The caller must close
// the body and then call cancel. Non-2xx responses come back as *HTTPError.
func (c *client) do(ctx context.Context, r request) (*http.Response, context.CancelFunc, error) {
	target := r.url(c.baseURL)

	if err := c.opts.Limiter.Wait(ctx, c.host); err != nil {
		return nil, nil, &TransportError{Op: r.op, URL: target, Err: err}
	}

	timeout := c.opts.Timeout
	if r.longLived {
		timeout = c.opts.TransferTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)

	req, err := http.NewRequestWithContext(reqCtx, r.method, target, r.body)
	if err != nil {
		cancel()
		return nil, nil, &TransportError{Op: r.op, URL: target, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	start := time.Now()
	resp, err := c.opts.HTTPClient.Do(req)
	elapsed := time.Since(start)
	telemetry.ObserveRequest(r.endpoint, elapsed)

	if err != nil {
		cancel()
		c.opts.Logger.Debug("%s %s failed after %s [%s]: %v", r.method, target, elapsed, requestID, err)
		return nil, nil, &TransportError{Op: r.op, URL: target, Err: err}
	}
	c.opts.Logger.Debug("%s %s -> %d in %s [%s]", r.method, target, resp.StatusCode, elapsed, requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4*maxErrorBody))
		resp.Body.Close() //nolint:errcheck
		cancel()
		return nil, nil, &HTTPError{
			Op:         r.op,
			URL:        target,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(payload),
		}
	}
	return resp, cancel, nil
}

// doJSON sends r and decodes a JSON body into out. A nil out discards the body.
func (c *client) doJSON(ctx context.Context, r request, out any) error {
	resp, cancel, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	defer cancel()
	defer resp.Body.Close() //nolint:errcheck

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: r.op, URL: r.url(c.baseURL), Err: err}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &DecodeError{Op: r.op, URL: r.url(c.baseURL), Err: err}
	}
	return nil
}

// errorDetail pulls a message out of an error body. FastAPI-style servers
// send {"detail": "..."}; anything else is returned trimmed.
func errorDetail(payload []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		var s string
		if len(body.Detail) > 0 && json.Unmarshal(body.Detail, &s) == nil && s != "" {
			return trimBody([]byte(s))
		}
		if len(body.Detail) > 0 {
			return trimBody(body.Detail)
		}
		if body.Error != "" {
			return trimBody([]byte(body.Error))
		}
	}
	return trimBody(payload)
}
