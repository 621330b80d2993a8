package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smnsjas/go-panos/client"
	"github.com/smnsjas/go-panos/xmlapi"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PANOS_URL", "PANOS_USERNAME", "PANOS_PASSWORD", "PANOS_PROXY", "PANOS_INSECURE", "PANOS_TIMEOUT", "PANOS_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func newDevice(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("password") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`<response status="error" code="403"><result><msg>Invalid Credential</msg></result></response>`))
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_PrintsKey(t *testing.T) {
	clearEnv(t)
	srv := newDevice(t, http.StatusOK, `<response status="success"><result><key>abcd1234</key></result></response>`)

	stdout, _, err := execute(t, "--url", srv.URL, "--user", "admin", "--password", "secret")
	require.NoError(t, err)
	assert.Equal(t, "abcd1234\n", stdout)
}

func TestRun_PasswordFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PANOS_PASSWORD", "secret")
	srv := newDevice(t, http.StatusOK, `<response status="success"><result><key>abcd1234</key></result></response>`)

	stdout, _, err := execute(t, "--url", srv.URL, "-u", "admin")
	require.NoError(t, err)
	assert.Equal(t, "abcd1234\n", stdout)
}

func TestRun_PasswordPrompt(t *testing.T) {
	clearEnv(t)
	srv := newDevice(t, http.StatusOK, `<response status="success"><result><key>abcd1234</key></result></response>`)

	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	prompted := false
	readPassword = func(io.Writer) (string, error) {
		prompted = true
		return "secret", nil
	}

	stdout, _, err := execute(t, "--url", srv.URL, "--user", "admin")
	require.NoError(t, err)
	assert.True(t, prompted)
	assert.Equal(t, "abcd1234\n", stdout)
}

func TestRun_ConfigFile(t *testing.T) {
	clearEnv(t)
	srv := newDevice(t, http.StatusOK, `<response status="success"><result><key>abcd1234</key></result></response>`)

	path := filepath.Join(t.TempDir(), "panos.yaml")
	require.NoError(t, os.WriteFile(path, []byte("url: "+srv.URL+"\nusername: admin\npassword: secret\n"), 0600))

	stdout, _, err := execute(t, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "abcd1234\n", stdout)
}

func TestRun_AuthenticationFailure(t *testing.T) {
	clearEnv(t)
	srv := newDevice(t, http.StatusOK, "")

	stdout, _, err := execute(t, "--url", srv.URL, "--user", "admin", "--password", "wrong")
	require.Error(t, err)
	assert.Empty(t, stdout)
	assert.True(t, client.IsAuthenticationError(err))
	assert.Equal(t, exitAuth, exitCode(err))
}

func TestRun_LogFileIsRedacted(t *testing.T) {
	clearEnv(t)
	srv := newDevice(t, http.StatusOK, `<response status="success"><result><key>abcd1234</key></result></response>`)
	logPath := filepath.Join(t.TempDir(), "panos.log")

	_, _, err := execute(t, "--url", srv.URL, "--user", "admin", "--password", "secret",
		"--log-level", "debug", "--log-file", logPath)
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	logs := string(data)
	assert.Contains(t, logs, "SecurityEvent")
	assert.NotContains(t, logs, "password=secret")
	assert.NotContains(t, logs, "abcd1234")
}

func TestRun_MissingSettings(t *testing.T) {
	clearEnv(t)

	_, _, err := execute(t, "--user", "admin")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "url"))
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestRun_InvalidLogLevel(t *testing.T) {
	clearEnv(t)

	_, _, err := execute(t, "--url", "https://fw", "--user", "admin", "--password", "x", "--log-level", "loud")
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{&usageError{err: errors.New("x")}, exitUsage},
		{&client.ConfigError{Field: "url"}, exitConfig},
		{&client.TransportError{Op: "keygen", Err: errors.New("x")}, exitTransport},
		{&xmlapi.ProtocolError{Reason: "x"}, exitProtocol},
		{&client.AuthenticationError{Status: xmlapi.StatusError}, exitAuth},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "exitCode(%v)", tt.err)
	}
}
