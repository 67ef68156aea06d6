package keypair

import (
	"strings"

	"github.com/joncooperworks/keypair/crypto/keystore"
)

// DeriveTag derives the keystore tag from an application identifier.
// The tag is the identifier's UTF-8 bytes, so the same identifier always
// names the same key entry.
func DeriveTag(identifier string) (keystore.Tag, error) {
	if strings.TrimSpace(identifier) == "" {
		return nil, ErrTagUnavailable
	}
	return keystore.Tag(identifier), nil
}
