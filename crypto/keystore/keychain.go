//go:build darwin
// +build darwin

package keystore

import "github.com/99designs/keyring"

// platformConfig keeps items in the macOS Keychain as device-only entries
// readable while the user session is unlocked.
func platformConfig(cfg *keyring.Config, opts Options) {
	cfg.AllowedBackends = []keyring.BackendType{keyring.KeychainBackend}
	cfg.KeychainName = opts.KeychainName // Empty = default login keychain
	cfg.KeychainTrustApplication = true
	cfg.KeychainSynchronizable = false
	cfg.KeychainAccessibleWhenUnlocked = true
}
