package contactform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

type endpointStub struct {
	mu       sync.Mutex
	calls    int
	payloads []map[string]string
	headers  []http.Header
}

func newEndpoint(t *testing.T, status int, body string) (*httptest.Server, *endpointStub) {
	t.Helper()
	stub := &endpointStub{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, http.MethodPost, r.Method)

		stub.mu.Lock()
		stub.calls++
		stub.payloads = append(stub.payloads, payload)
		stub.headers = append(stub.headers, r.Header.Clone())
		stub.mu.Unlock()

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, stub
}

type outcome struct {
	successes []*Response
	failures  []error
}

func (o *outcome) options() []Option {
	return []Option{
		OnSuccess(func(r *Response) { o.successes = append(o.successes, r) }),
		OnFailure(func(err error) { o.failures = append(o.failures, err) }),
	}
}

func sampleForm() *Values {
	return NewValues(
		Entry{Name: "Full Name / Company", Value: "Acme"},
		Entry{Name: "Email", Value: "a@x.com"},
		Entry{Name: "Goals[]", Value: "Speed"},
		Entry{Name: "Goals[]", Value: "SEO"},
	)
}

func TestSubmitSuccessResetsForm(t *testing.T) {
	srv, stub := newEndpoint(t, http.StatusOK, `{"success":true}`)
	form := sampleForm()
	var got outcome

	c := New(form, srv.URL+DefaultPath, append(got.options(), WithHTTPClient(srv.Client()))...)
	resp, err := c.Submit(context.Background())

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, got.successes, 1)
	assert.Empty(t, got.failures)
	assert.Equal(t, 0, form.Len(), "form must be cleared after success")

	require.Equal(t, 1, stub.calls)
	want := map[string]string{
		"Full Name / Company": "Acme",
		"Email":               "a@x.com",
		"Goals":               "Speed, SEO",
	}
	if diff := cmp.Diff(want, stub.payloads[0]); diff != "" {
		t.Fatalf("submitted payload mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "application/json", stub.headers[0].Get("Content-Type"))
}

func TestSubmitTruthySuccessValues(t *testing.T) {
	for _, body := range []string{`{"success":1}`, `{"success":"yes"}`, `{"success":{}}`, `{"success":[]}`} {
		t.Run(body, func(t *testing.T) {
			srv, _ := newEndpoint(t, http.StatusOK, body)
			form := sampleForm()

			_, err := New(form, srv.URL, WithHTTPClient(srv.Client())).Submit(context.Background())

			require.NoError(t, err)
			assert.Equal(t, 0, form.Len())
		})
	}
}

func TestSubmitRejectedKeepsForm(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "false flag", status: http.StatusOK, body: `{"success":false}`},
		{name: "zero flag", status: http.StatusOK, body: `{"success":0}`},
		{name: "empty string flag", status: http.StatusOK, body: `{"success":""}`},
		{name: "missing flag", status: http.StatusOK, body: `{}`},
		{name: "non object", status: http.StatusOK, body: `true`},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"missing_my_email","message":"Server misconfigured"}`},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"invalid_payload"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, stub := newEndpoint(t, tt.status, tt.body)
			form := sampleForm()
			var got outcome

			c := New(form, srv.URL, append(got.options(), WithHTTPClient(srv.Client()))...)
			resp, err := c.Submit(context.Background())

			require.ErrorIs(t, err, ErrSubmissionRejected)
			require.NotNil(t, resp)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Empty(t, got.successes)
			require.Len(t, got.failures, 1)
			assert.ErrorIs(t, got.failures[0], ErrSubmissionRejected)
			assert.Equal(t, 4, form.Len(), "form must be preserved after failure")
			assert.Equal(t, 1, stub.calls, "submissions are never retried")
		})
	}
}

func TestSubmitRejectionCarriesServerReason(t *testing.T) {
	srv, _ := newEndpoint(t, http.StatusInternalServerError, `{"error":"delivery_failed","message":"Failed to send email"}`)

	_, err := New(sampleForm(), srv.URL, WithHTTPClient(srv.Client())).Submit(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "delivery_failed")
	assert.Contains(t, err.Error(), "status 500")
}

func TestSubmitInvalidResponse(t *testing.T) {
	srv, _ := newEndpoint(t, http.StatusBadGateway, "<html>Bad Gateway</html>")
	form := sampleForm()
	var got outcome

	resp, err := New(form, srv.URL, append(got.options(), WithHTTPClient(srv.Client()))...).Submit(context.Background())

	require.ErrorIs(t, err, ErrInvalidResponse)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.Len(t, got.failures, 1)
	assert.Empty(t, got.successes)
	assert.Equal(t, 4, form.Len())
}

func TestSubmitTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	form := sampleForm()
	var got outcome

	resp, err := New(form, endpoint, got.options()...).Submit(context.Background())

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.False(t, errors.Is(err, ErrSubmissionRejected))
	assert.False(t, errors.Is(err, ErrInvalidResponse))
	require.Len(t, got.failures, 1)
	assert.Equal(t, 4, form.Len())
}

func TestSubmitHonoursContext(t *testing.T) {
	srv, stub := newEndpoint(t, http.StatusOK, `{"success":true}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	form := sampleForm()
	_, err := New(form, srv.URL, WithHTTPClient(srv.Client())).Submit(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, stub.calls)
	assert.Equal(t, 4, form.Len())
}

func TestSubmitWithoutHooks(t *testing.T) {
	srv, _ := newEndpoint(t, http.StatusOK, `{"success":false}`)

	_, err := New(sampleForm(), srv.URL, WithHTTPClient(srv.Client())).Submit(context.Background())

	assert.ErrorIs(t, err, ErrSubmissionRejected)
}

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{base: "https://example.com", path: "", want: "https://example.com/api/contact"},
		{base: "https://example.com/", path: "/send", want: "https://example.com/send"},
		{base: "http://localhost:8080/portfolio/", path: "api/contact", want: "http://localhost:8080/portfolio/api/contact"},
	}
	for _, tt := range tests {
		got, err := ResolveEndpoint(tt.base, tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ResolveEndpoint("example.com", "")
	assert.Error(t, err)
}

func TestTruthy(t *testing.T) {
	for _, v := range []any{true, 1.0, -2.5, "x", map[string]any{}, []any{}} {
		assert.True(t, truthy(v), "%#v", v)
	}
	for _, v := range []any{nil, false, 0.0, ""} {
		assert.False(t, truthy(v), "%#v", v)
	}
}
