package keypair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joncooperworks/keypair/crypto/keystore"
)

func TestDeriveTag(t *testing.T) {
	tag, err := DeriveTag("com.example.app")
	require.NoError(t, err)
	assert.Equal(t, keystore.Tag("com.example.app"), tag)

	again, err := DeriveTag("com.example.app")
	require.NoError(t, err)
	assert.Equal(t, tag, again)

	_, err = DeriveTag("")
	assert.ErrorIs(t, err, ErrTagUnavailable)
}

func TestManagerConfig(t *testing.T) {
	m := NewManager(keystore.NewMemoryFaultyKeystore(), "com.example.app")
	cfg, err := m.Config()
	require.NoError(t, err)

	assert.Equal(t, keystore.KeyTypeRSA, cfg.KeyType)
	assert.Equal(t, 2048, cfg.Bits)
	assert.True(t, cfg.Permanent)
	assert.False(t, cfg.Exportable)
}
