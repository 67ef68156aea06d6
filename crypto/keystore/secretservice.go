//go:build !darwin && !windows
// +build !darwin,!windows

package keystore

import "github.com/99designs/keyring"

// platformConfig prefers the desktop Secret Service and falls back to the
// kernel keyring when no session bus is available.
func platformConfig(cfg *keyring.Config, opts Options) {
	cfg.AllowedBackends = []keyring.BackendType{
		keyring.SecretServiceBackend,
		keyring.KWalletBackend,
		keyring.KeyCtlBackend,
	}
	cfg.LibSecretCollectionName = opts.serviceName()
	cfg.KWalletAppID = opts.serviceName()
	cfg.KWalletFolder = opts.serviceName()
	cfg.KeyCtlScope = "user"
}
