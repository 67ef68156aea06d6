package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joncooperworks/keypair/crypto/keystore"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, keystore.BackendOS, cfg.Backend)
	assert.Equal(t, keystore.DefaultServiceName, cfg.ServiceName)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Empty(t, cfg.AppID)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keypair.yaml")
	yaml := `app_id: com.example.app
backend: file
file_dir: /var/lib/keypair
service_name: example
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "com.example.app", cfg.AppID)
	assert.Equal(t, keystore.BackendFile, cfg.Backend)
	assert.Equal(t, "/var/lib/keypair", cfg.FileDir)
	assert.Equal(t, "example", cfg.ServiceName)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keypair.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app_id: from.file\n"), 0600))

	t.Setenv("KEYPAIR_APP_ID", "from.env")
	t.Setenv("KEYPAIR_BACKEND", "memory")
	t.Setenv("KEYPAIR_LOG_LEVEL", "warn")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "from.env", cfg.AppID)
	assert.Equal(t, keystore.BackendMemory, cfg.Backend)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Backend: "os"}, false},
		{"no-backend", Config{}, true},
		{"file-without-dir", Config{Backend: "file"}, true},
		{"bad-level", Config{Backend: "os", Log: LogConfig{Level: "loud"}}, true},
		{"bad-format", Config{Backend: "os", Log: LogConfig{Format: "xml"}}, true},
		{"json-format", Config{Backend: "os", Log: LogConfig{Level: "error", Format: "JSON"}}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKeystoreOptions(t *testing.T) {
	prompt := func(string) (string, error) { return "prompted", nil }

	cfg := &Config{Backend: "file", FileDir: "/tmp/k", ServiceName: "svc"}
	opts := cfg.KeystoreOptions(prompt)
	assert.Equal(t, "file", opts.Backend)
	assert.Equal(t, "/tmp/k", opts.FileDir)
	assert.Empty(t, opts.Passphrase)
	pw, err := opts.FilePasswordFunc("password")
	require.NoError(t, err)
	assert.Equal(t, "prompted", pw)

	cfg.Passphrase = "secret"
	opts = cfg.KeystoreOptions(prompt)
	assert.Equal(t, []byte("secret"), opts.Passphrase)
	pw, err = opts.FilePasswordFunc("password")
	require.NoError(t, err)
	assert.Equal(t, "secret", pw)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Log: LogConfig{Level: "warn", Format: "json"}}
	logger := cfg.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "tag", "com.example.app")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"tag":"com.example.app"`)
}
