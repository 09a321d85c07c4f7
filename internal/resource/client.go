// Package resource is the generic access layer over the REST backend: list, get-one,
// create and update parameterized by entity type, filter shape and relation vocabulary.
package resource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"StockDesk/internal/config"
	"StockDesk/internal/logger"

	"github.com/google/uuid"
)

// Doer is the HTTP abstraction the façade talks to; *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

type Client struct {
	baseURL string
	doer    Doer
	headers http.Header
	newID   func() string
}

type ClientOption func(*Client)

func WithToken(token string) ClientOption {
	return func(c *Client) {
		if token != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.headers.Set(key, value) }
}

func NewClient(baseURL string, doer Doer, opts ...ClientOption) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    doer,
		headers: http.Header{"Accept": []string{"application/json"}},
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig builds a client whose timeout is the only timeout in play.
func NewClientFromConfig(cfg config.APIConfig) *Client {
	return NewClient(cfg.BaseURL, &http.Client{Timeout: cfg.Timeout}, WithToken(cfg.Token))
}

// Audit tags a write with out-of-band module/action headers without touching the body.
type Audit struct {
	Module string
	Action string
}

func (a Audit) apply(h http.Header) {
	if a.Module != "" {
		h.Set("X-Audit-Module", a.Module)
	}
	if a.Action != "" {
		h.Set("X-Audit-Action", a.Action)
	}
}

// Path joins a resource path and an id: Path("warehouses", 7) == "warehouses/7".
func Path(resource string, id any) string {
	return strings.TrimRight(resource, "/") + "/" + url.PathEscape(fmt.Sprint(id))
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	audit       []Audit
}

// do returns the raw 2xx body or an *Error.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	target := c.baseURL + "/" + strings.TrimLeft(r.path, "/")
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return nil, &Error{Message: "invalid request: " + err.Error(), Cause: err}
	}
	for k, vals := range c.headers {
		req.Header[k] = append([]string(nil), vals...)
	}
	req.Header.Set("X-Request-ID", c.newID())
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	for _, a := range r.audit {
		a.apply(req.Header)
	}

	logger.Debug("resource_request", map[string]any{
		"method":     r.method,
		"url":        target,
		"request_id": req.Header.Get("X-Request-ID"),
	})

	resp, err := c.doer.Do(req)
	if err != nil {
		logger.Warn("resource_transport_failed", map[string]any{
			"method": r.method,
			"url":    target,
			"error":  err.Error(),
		})
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := responseError(resp.StatusCode, body)
		logger.Warn("resource_request_failed", map[string]any{
			"method":  r.method,
			"url":     target,
			"status":  resp.StatusCode,
			"message": rerr.Message,
		})
		return nil, rerr
	}
	return body, nil
}
