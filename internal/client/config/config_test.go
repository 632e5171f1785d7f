package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:3001", c.ServerEndpointAddr)
	assert.Equal(t, ".filekeeper-session.json", c.SessionPath)
	assert.Equal(t, ".", c.OutputDir)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	b, err := json.Marshal(map[string]any{
		"server_endpoint_addr": "http://files.example:8080",
		"session_path":         "sess.json",
		"request_timeout":      "5s",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))

	t.Run("overlays named fields, keeps defaults", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "http://files.example:8080", cfg.ServerEndpointAddr)
		assert.Equal(t, "sess.json", cfg.SessionPath)
		assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
		assert.Equal(t, ".", cfg.OutputDir)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "http://127.0.0.1:3001", cfg.ServerEndpointAddr)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ nope`), 0o600))
		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
