package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joncooperworks/keypair/config"
	"github.com/joncooperworks/keypair/keypair"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func fileArgs(t *testing.T) []string {
	t.Helper()
	t.Setenv("KEYPAIR_PASSPHRASE", "test-passphrase")
	return []string{"--backend", "file", "--file-dir", t.TempDir(), "--app-id", "com.example.app"}
}

func TestSelfTestCommand(t *testing.T) {
	out, err := run(t, "", "--backend", "memory", "--app-id", "com.example.app", "selftest")
	require.NoError(t, err)
	assert.Contains(t, out, "KeyPair::test OK")
}

func TestSelfTestCommandWithoutAppID(t *testing.T) {
	out, err := run(t, "", "--backend", "memory", "selftest")
	require.Error(t, err)
	assert.ErrorIs(t, err, keypair.ErrTagUnavailable)
	assert.Contains(t, out, "KeyPair::test FAILED")
}

func TestEncryptDecryptCommands(t *testing.T) {
	args := fileArgs(t)

	ciphertext, err := run(t, "attack at dawn", append(args, "encrypt")...)
	require.NoError(t, err)
	require.NotEmpty(t, strings.TrimSpace(ciphertext))

	plaintext, err := run(t, ciphertext, append(args, "decrypt")...)
	require.NoError(t, err)
	assert.Equal(t, "attack at dawn", plaintext)
}

func TestDecryptRejectsBadInput(t *testing.T) {
	_, err := run(t, "not base64!", "--backend", "memory", "--app-id", "com.example.app", "decrypt")
	assert.Error(t, err)
}

func TestCreateShowAndList(t *testing.T) {
	args := fileArgs(t)

	out, err := run(t, "", append(args, "create")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Tag: com.example.app")

	out, err = run(t, "", append(args, "show")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Algorithm: rsa-2048")
	assert.Contains(t, out, "Encryption: rsa-oaep-sha512")

	out, err = run(t, "", append(args, "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Keys in keystore (1):")
	assert.Contains(t, out, "com.example.app (rsa-2048)")
}

func TestListEmptyKeystore(t *testing.T) {
	out, err := run(t, "", "--backend", "memory", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No keys found in keystore")
}

func TestBackendsCommand(t *testing.T) {
	out, err := run(t, "", "backends")
	require.NoError(t, err)
	for _, name := range []string{"file", "memory", "os"} {
		assert.Contains(t, out, name)
	}
}

func TestMetricsFlag(t *testing.T) {
	out, err := run(t, "", "--backend", "memory", "--app-id", "com.example.app", "--metrics", "selftest")
	require.NoError(t, err)
	assert.Contains(t, out, `keypair_self_tests_total{status="success"} 1`)
	assert.Contains(t, out, `keypair_generations_total{status="success"} 1`)
}

func TestUnknownBackend(t *testing.T) {
	_, err := run(t, "", "--backend", "nope", "--app-id", "com.example.app", "show")
	assert.Error(t, err)
}

func TestConfigFlagsBound(t *testing.T) {
	root := newRootCmd()
	for key, name := range configFlags {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "flag %q for config key %q", name, key)
	}
}

func TestBindFlagsRejectsUnknownFlag(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.PersistentFlags().String("backend", "", "")

	err := bindFlags(viper.New(), cmd, map[string]string{"backend": "backnd"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backnd")
}

func TestFlagOverridesConfig(t *testing.T) {
	v := config.New()
	cmd := &cobra.Command{Use: "test"}
	cmd.PersistentFlags().String("app-id", "", "")
	require.NoError(t, bindFlags(v, cmd, map[string]string{"app_id": "app-id"}))
	require.NoError(t, cmd.PersistentFlags().Set("app-id", "from.flag"))

	cfg, err := config.Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "from.flag", cfg.AppID)
}
