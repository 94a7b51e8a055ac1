// Package contactform collects contact form entries and submits them to the
// contact endpoint as JSON.
package contactform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
)

const DefaultPath = "/api/contact"

var (
	// ErrSubmissionRejected means the endpoint answered without a truthy
	// success flag.
	ErrSubmissionRejected = errors.New("contactform: submission rejected")
	// ErrInvalidResponse means the endpoint answer was not JSON.
	ErrInvalidResponse = errors.New("contactform: invalid response")
)

// Response is the decoded endpoint answer.
type Response struct {
	StatusCode int
	Success    bool
	Body       map[string]any
}

// Collector owns one form and reports every submit outcome through exactly
// one of its hooks.
type Collector struct {
	form       Form
	endpoint   string
	httpClient *http.Client
	onSuccess  func(*Response)
	onFailure  func(error)
}

// Option configures a Collector.
type Option func(*Collector)

// WithHTTPClient overrides the client used for submissions. The default
// client has no timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Collector) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// OnSuccess registers the hook called before the form is reset.
func OnSuccess(fn func(*Response)) Option {
	return func(c *Collector) {
		c.onSuccess = fn
	}
}

// OnFailure registers the hook called when a submit does not succeed. The
// form is left untouched.
func OnFailure(fn func(error)) Option {
	return func(c *Collector) {
		c.onFailure = fn
	}
}

func New(form Form, endpoint string, opts ...Option) *Collector {
	c := &Collector{
		form:       form,
		endpoint:   endpoint,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveEndpoint resolves path, DefaultPath when empty, against base.
func ResolveEndpoint(base, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	baseURL, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return "", fmt.Errorf("base url %q must be absolute", base)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse path: %w", err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}

func (c *Collector) Endpoint() string {
	return c.endpoint
}

// Submit sends the current form contents once. On success the form is
// reset; on failure it is kept so the user can resubmit.
func (c *Collector) Submit(ctx context.Context) (*Response, error) {
	payload := Collect(c.form.Entries())

	resp, err := c.post(ctx, payload.Flatten())
	if err != nil {
		if c.onFailure != nil {
			c.onFailure(err)
		}
		return resp, err
	}

	if c.onSuccess != nil {
		c.onSuccess(resp)
	}
	c.form.Reset()
	return resp, nil
}

func (c *Collector) post(ctx context.Context, fields map[string]string) (*Response, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer res.Body.Close()

	resp := &Response{StatusCode: res.StatusCode}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return resp, fmt.Errorf("read response: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return resp, fmt.Errorf("%w: status %d: %v", ErrInvalidResponse, res.StatusCode, err)
	}

	resp.Body, _ = decoded.(map[string]any)
	resp.Success = truthy(resp.Body["success"])
	if !resp.Success {
		return resp, fmt.Errorf("%w: status %d%s", ErrSubmissionRejected, res.StatusCode, rejectionReason(resp.Body))
	}
	return resp, nil
}

// truthy follows JavaScript truthiness for decoded JSON values.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		return true
	}
}

func rejectionReason(body map[string]any) string {
	code, _ := body["error"].(string)
	message, _ := body["message"].(string)
	switch {
	case code != "" && message != "":
		return fmt.Sprintf(": %s: %s", code, message)
	case code != "":
		return ": " + code
	case message != "":
		return ": " + message
	}
	return ""
}
