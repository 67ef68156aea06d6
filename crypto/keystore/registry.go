package keystore

import (
	"fmt"
	"sort"
	"sync"
)

// KeystoreFactory is a function that creates a new Keystore instance.
//
// Factory functions are registered with RegisterKeystore and are called by
// NewKeystore when a keystore for that backend name is requested.
type KeystoreFactory func(opts Options) (Keystore, error)

var (
	// registry stores keystore factories by backend name
	registry = make(map[string]KeystoreFactory)
	// registryMu protects concurrent access to the registry
	registryMu sync.RWMutex
)

// RegisterKeystore registers a keystore factory under a backend name.
//
// This should be called from init() functions in backend implementations.
// Registering an existing name replaces the previous factory.
//
// Example:
//
//	func init() {
//	    RegisterKeystore("file", newFileKeystore)
//	}
func RegisterKeystore(name string, factory KeystoreFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// GetKeystoreFactory retrieves the keystore factory registered under name.
//
// Returns an error wrapping ErrUnknownBackend if nothing is registered.
func GetKeystoreFactory(name string) (KeystoreFactory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: no keystore factory registered for %q", ErrUnknownBackend, name)
	}
	return factory, nil
}

// ListRegisteredBackends returns all registered backend names in sorted order.
func ListRegisteredBackends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
