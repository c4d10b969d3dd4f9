package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrForbidden matches any StatusError carrying HTTP 403.
var ErrForbidden = errors.New("forbidden")

const maxBodyBytes = 4 << 20

// StatusError is returned for every non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrForbidden && e.StatusCode == http.StatusForbidden
}

// Paths holds the backend endpoints relative to the base URL.
type Paths struct {
	Session string
	Tickets string
	Login   string
	Logout  string
	Stream  string
}

func DefaultPaths() Paths {
	return Paths{
		Session: "/usuario/me",
		Tickets: "/tickets/listar",
		Login:   "/usuario/auth",
		Logout:  "/usuario/logout",
		Stream:  "/sse/subscribe",
	}
}

// Client is the single shared HTTP client for the backend. Cookies set by
// the backend are kept in a jar and sent on every request. Nothing is
// retried; callers decide.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	paths   Paths
	timeout time.Duration
	logger  *logrus.Logger

	mu          sync.RWMutex
	onForbidden func()
}

type Option func(*Client)

// WithTimeout bounds every request except the event stream.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

func WithPaths(paths Paths) Option {
	return func(c *Client) { c.paths = paths }
}

func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient replaces the underlying client. A cookie jar is added if
// the client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: parsed,
		http:    &http.Client{},
		paths:   DefaultPaths(),
		timeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// SetForbiddenHandler registers the hook run after any 403 response. The
// session owner uses it to expire the cached session.
func (c *Client) SetForbiddenHandler(fn func()) {
	c.mu.Lock()
	c.onForbidden = fn
	c.mu.Unlock()
}

// HTTPClient exposes the credentialed client so the event stream shares
// the same cookies.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

func (c *Client) StreamURL() string {
	return c.resolve(c.paths.Stream, nil)
}

func (c *Client) resolve(path string, query url.Values) string {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, query), reader)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	fields := logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithFields(fields).WithError(err).Error("Request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.logger.WithFields(fields).WithError(err).Error("Failed to read response body")
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fields["status"] = resp.StatusCode
		fields["body"] = string(data)
		c.logger.WithFields(fields).Error("Request returned error status")

		if resp.StatusCode == http.StatusForbidden {
			c.mu.RLock()
			hook := c.onForbidden
			c.mu.RUnlock()
			if hook != nil {
				hook()
			}
		}
		return nil, &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(data)}
	}

	c.logger.WithFields(fields).WithField("status", resp.StatusCode).Debug("Request completed")
	return data, nil
}

// Pagination query helper shared by listing endpoints.
func pageQuery(page, size int) url.Values {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))
	return query
}
