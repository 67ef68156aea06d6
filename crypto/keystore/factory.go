package keystore

import (
	"fmt"

	"github.com/99designs/keyring"
)

const (
	// BackendOS is the platform's native credential store.
	BackendOS = "os"
	// BackendFile is keyring's encrypted file store.
	BackendFile = "file"
	// BackendMemory keeps keys in process memory only.
	BackendMemory = "memory"

	DefaultServiceName = "keypair"
)

// Options selects and configures a keystore backend.
type Options struct {
	// Backend is a registered backend name. Empty selects BackendOS.
	Backend string
	// ServiceName scopes keyring items. Defaults to DefaultServiceName.
	ServiceName string
	// KeychainName selects a non-default macOS keychain.
	KeychainName string
	// FileDir is the directory used by the file backend.
	FileDir string
	// FilePasswordFunc supplies the file backend's password.
	FilePasswordFunc keyring.PromptFunc
	// Passphrase, when set, PKCS#8-encrypts keys before they reach the keyring.
	Passphrase []byte
}

func init() {
	RegisterKeystore(BackendOS, newOSKeystore)
	RegisterKeystore(BackendFile, newFileKeystore)
	RegisterKeystore(BackendMemory, newMemoryKeystore)
}

// NewKeystore creates the keystore named by opts.Backend.
// Uses the registry to find the appropriate factory.
func NewKeystore(opts Options) (Keystore, error) {
	name := opts.Backend
	if name == "" {
		name = BackendOS
	}
	factory, err := GetKeystoreFactory(name)
	if err != nil {
		return nil, err
	}
	return factory(opts)
}

func (o Options) serviceName() string {
	if o.ServiceName == "" {
		return DefaultServiceName
	}
	return o.ServiceName
}

func newOSKeystore(opts Options) (Keystore, error) {
	cfg := keyring.Config{
		ServiceName: opts.serviceName(),
	}
	platformConfig(&cfg, opts)

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return NewKeyringKeystore(ring, opts.Passphrase), nil
}

func newFileKeystore(opts Options) (Keystore, error) {
	if opts.FileDir == "" {
		return nil, fmt.Errorf("file backend requires a directory")
	}
	passwordFunc := opts.FilePasswordFunc
	if passwordFunc == nil {
		passwordFunc = keyring.TerminalPrompt
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:      opts.serviceName(),
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          opts.FileDir,
		FilePasswordFunc: passwordFunc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open file keyring: %w", err)
	}
	return NewKeyringKeystore(ring, opts.Passphrase), nil
}

func newMemoryKeystore(opts Options) (Keystore, error) {
	return NewKeyringKeystore(keyring.NewArrayKeyring(nil), opts.Passphrase), nil
}
