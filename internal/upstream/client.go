// Package upstream implements the client for the remote student
// performance REST API. The client owns all outbound traffic: no other
// package talks to the network.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/spt-web/internal/models"
	appErrors "github.com/noah-isme/spt-web/pkg/errors"
)

// TokenSource resolves the bearer token for the current request. It is
// consulted fresh on every call so login and logout take effect without
// rebuilding the client. An empty string means no token is attached.
type TokenSource func(ctx context.Context) string

// Observer receives timing for each upstream call. Implemented by the
// metrics service; nil disables instrumentation.
type Observer interface {
	ObserveUpstream(method, path string, status int, duration time.Duration)
}

// Config tunes the client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client wraps verb-based calls against the fixed upstream base URL.
// It performs no retries and no response caching; any non-2xx status or
// transport error is returned to the caller as a typed error.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	observer   Observer
	logger     *zap.Logger
}

// NewClient constructs a Client. tokens may be nil for token-less use.
func NewClient(cfg Config, tokens TokenSource, observer Observer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
		observer:   observer,
		logger:     logger,
	}
}

// Login authenticates and returns the issued bearer token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/login", "/login", creds, &out); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return out.Token, nil
}

// Register creates a new account. The response body is unused.
func (c *Client) Register(ctx context.Context, reg models.Registration) error {
	if err := c.do(ctx, http.MethodPost, "/register", "/register", reg, nil); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// ListStudents fetches the full student list.
func (c *Client) ListStudents(ctx context.Context) ([]models.Student, error) {
	var out []models.Student
	if err := c.do(ctx, http.MethodGet, "/students", "/students", nil, &out); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return out, nil
}

// GetPerformance fetches one student's score history in server order.
func (c *Client) GetPerformance(ctx context.Context, studentID string) ([]models.ScoreRecord, error) {
	path := "/performance/" + url.PathEscape(studentID)
	var out []models.ScoreRecord
	if err := c.do(ctx, http.MethodGet, path, "/performance/:id", nil, &out); err != nil {
		return nil, fmt.Errorf("get performance %s: %w", studentID, err)
	}
	return out, nil
}

// CreateStudent adds a student. Callers reload the list afterwards.
func (c *Client) CreateStudent(ctx context.Context, student models.NewStudent) error {
	if err := c.do(ctx, http.MethodPost, "/students", "/students", student, nil); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// DeleteStudent removes a student by ID.
func (c *Client) DeleteStudent(ctx context.Context, id string) error {
	path := "/students/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodDelete, path, "/students/:id", nil, nil); err != nil {
		return fmt.Errorf("delete student %s: %w", id, err)
	}
	return nil
}

// AddPerformance records a new score for one student.
func (c *Client) AddPerformance(ctx context.Context, score models.NewScore) error {
	if err := c.do(ctx, http.MethodPost, "/performance", "/performance", score, nil); err != nil {
		return fmt.Errorf("add performance: %w", err)
	}
	return nil
}

// do performs a single request. The bearer token is read from the
// token source at call time, never cached. route is the path template
// reported to the observer; metric labels must not carry raw IDs.
func (c *Client) do(ctx context.Context, method, path, route string, body, result interface{}) error {
	fullURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		if token := c.tokens(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, route, 0, start)
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "upstream request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(method, route, resp.StatusCode, start)
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read upstream response")
	}

	c.observe(method, route, resp.StatusCode, start)

	if resp.StatusCode >= 400 {
		return c.statusError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "unmarshal upstream response")
		}
	}

	return nil
}

func (c *Client) statusError(status int, body []byte) error {
	cause := fmt.Errorf("status %d: %s", status, truncate(body, 256))
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return appErrors.Wrap(cause, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "upstream rejected credentials")
	case http.StatusNotFound:
		return appErrors.Wrap(cause, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "upstream resource not found")
	default:
		return appErrors.Wrap(cause, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "upstream request failed")
	}
}

func (c *Client) observe(method, route string, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstream(method, route, status, time.Since(start))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
