//go:build windows
// +build windows

package keystore

import "github.com/99designs/keyring"

// platformConfig stores items in the Windows Credential Manager.
func platformConfig(cfg *keyring.Config, opts Options) {
	cfg.AllowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	cfg.WinCredPrefix = opts.serviceName()
}
