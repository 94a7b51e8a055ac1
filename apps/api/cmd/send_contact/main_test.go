package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldFlags(t *testing.T) {
	got, err := parseFieldFlags([]string{"Full Name / Company=Acme", " Email = a@x.com ", "Notes=a=b"})
	require.NoError(t, err)

	want := map[string]string{
		"Full Name / Company": "Acme",
		"Email":               "a@x.com",
		"Notes":               "a=b",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"Email", "=value", "Goals=Speed"} {
		_, err := parseFieldFlags([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestBuildConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contact.yaml")
	content := "endpoint: /api/contact\nfields:\n  Email: file@x.com\n  Budget: \"1000\"\ngoals: [Speed]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := buildConfig(path, "", []string{"Email=flag@x.com"}, []string{"SEO"})
	require.NoError(t, err)

	assert.Equal(t, "/api/contact", cfg.Endpoint)
	assert.Equal(t, map[string]string{"Email": "flag@x.com", "Budget": "1000"}, cfg.Fields)
	assert.Equal(t, []string{"SEO"}, cfg.Goals)
}

func TestRunSendContactSubmitsForm(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/contact", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{
		"--base-url", srv.URL,
		"--field", "Full Name / Company=Acme",
		"--field", "Email=a@x.com",
		"--goal", "Speed",
		"--goal", "SEO",
	})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		fieldFlags, goalFlags = nil, nil
	})

	require.NoError(t, rootCmd.Execute())

	want := map[string]string{
		"Full Name / Company": "Acme",
		"Email":               "a@x.com",
		"Goals":               "Speed, SEO",
	}
	if diff := cmp.Diff(want, received); diff != "" {
		t.Fatalf("submitted payload mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, stdout.String(), "Thank you")
	assert.Empty(t, stderr.String())
}
