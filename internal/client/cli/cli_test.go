package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, handler http.Handler) (*App, string) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	cfg := &config.Config{
		ServerEndpointAddr: ts.URL,
		SessionPath:        filepath.Join(dir, "session.json"),
		OutputDir:          dir,
		RequestTimeout:     5 * time.Second,
	}
	app, err := NewApp(cfg)
	require.NoError(t, err)
	return app, dir
}

func runCommand(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := app.newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func stubServer(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "u1", "email": "alice@example.com"})
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "acc", "refreshToken": "ref"})
	})
	mux.HandleFunc("/assets", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{
				"originalName": "report.pdf",
				"contentHash":  "deadbeef",
				"sizeBytes":    5,
				"state":        "active",
				"uploadedAt":   "2026-03-01T12:00:00Z",
			},
		})
	})
	mux.HandleFunc("/delete", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"message": `File "report.pdf" moved to bin`})
	})
	return mux
}

func withStubbedPassword(t *testing.T, password string) {
	t.Helper()
	orig := readPassword
	readPassword = func(fd int) ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() { readPassword = orig })
}

func TestCLI_RegisterAndLogin(t *testing.T) {
	app, _ := newTestApp(t, stubServer(t))
	withStubbedPassword(t, "pass123")

	out, err := runCommand(t, app, "register", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered alice@example.com")

	out, err = runCommand(t, app, "login", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as alice@example.com")

	// session landed on disk
	_, err = os.Stat(app.config.SessionPath)
	require.NoError(t, err)

	out, err = runCommand(t, app, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	_, err = os.Stat(app.config.SessionPath)
	assert.True(t, os.IsNotExist(err))
}

func TestCLI_ListRendersTable(t *testing.T) {
	app, _ := newTestApp(t, stubServer(t))
	withStubbedPassword(t, "pass123")

	_, err := runCommand(t, app, "login", "alice@example.com")
	require.NoError(t, err)

	out, err := runCommand(t, app, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "report.pdf")
	assert.Contains(t, out, "deadbeef")
	assert.Contains(t, out, "active")
}

func TestCLI_ListWithoutSession(t *testing.T) {
	app, _ := newTestApp(t, stubServer(t))

	_, err := runCommand(t, app, "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestCLI_Delete(t *testing.T) {
	app, _ := newTestApp(t, stubServer(t))
	withStubbedPassword(t, "pass123")

	_, err := runCommand(t, app, "login", "alice@example.com")
	require.NoError(t, err)

	out, err := runCommand(t, app, "delete", "deadbeef")
	require.NoError(t, err)
	assert.Contains(t, out, "moved to bin")
}

func TestCLI_UploadMissingFile(t *testing.T) {
	app, _ := newTestApp(t, stubServer(t))
	withStubbedPassword(t, "pass123")

	_, err := runCommand(t, app, "login", "alice@example.com")
	require.NoError(t, err)

	_, err = runCommand(t, app, "upload", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}
