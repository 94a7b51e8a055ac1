package mailer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
)

// DeliveryError is returned when the delivery API answers with a non-2xx
// status. Body holds the downstream response exactly as received.
type DeliveryError struct {
	Provider string
	Status   int
	Body     string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed (%d): %v", e.Provider, e.Status, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

type responseCaptureKey struct{}

type responseCapture struct {
	status int
	body   []byte
}

// capturingTransport keeps a copy of failed response bodies for the request
// that asked for it; resend-go only surfaces the parsed message otherwise.
type capturingTransport struct {
	base http.RoundTripper
}

func (t *capturingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	capture, ok := req.Context().Value(responseCaptureKey{}).(*responseCapture)
	if !ok || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return resp, nil
	}

	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("read error response: %w", readErr)
	}
	capture.status = resp.StatusCode
	capture.body = body
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// ResendProvider sends emails via the Resend API.
type ResendProvider struct {
	client *resend.Client
}

// ResendOption customizes a ResendProvider.
type ResendOption func(*resend.Client)

// WithBaseURL points the client at a different API host.
func WithBaseURL(base *url.URL) ResendOption {
	return func(c *resend.Client) {
		if base == nil {
			return
		}
		u := *base
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		c.BaseURL = &u
	}
}

// NewResendProvider creates a new Resend provider with the given API key.
// The underlying HTTP client has no timeout of its own; callers bound the
// call through the context they pass to Send.
func NewResendProvider(apiKey string, opts ...ResendOption) *ResendProvider {
	httpClient := &http.Client{
		Transport: &capturingTransport{base: http.DefaultTransport},
	}
	client := resend.NewCustomClient(httpClient, strings.TrimSpace(apiKey))
	for _, opt := range opts {
		opt(client)
	}
	return &ResendProvider{client: client}
}

// Name returns the provider name.
func (r *ResendProvider) Name() string {
	return "resend"
}

// Send sends an email via the Resend API.
func (r *ResendProvider) Send(ctx context.Context, msg Message) (SendResult, error) {
	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	if msg.Text != "" {
		params.Text = msg.Text
	}

	capture := &responseCapture{}
	sent, err := r.client.Emails.SendWithContext(context.WithValue(ctx, responseCaptureKey{}, capture), params)
	if err != nil {
		if capture.status != 0 {
			return SendResult{}, &DeliveryError{
				Provider: r.Name(),
				Status:   capture.status,
				Body:     string(capture.body),
				Err:      err,
			}
		}
		return SendResult{}, fmt.Errorf("resend send failed: %w", err)
	}

	return SendResult{ProviderMessageID: sent.Id}, nil
}
