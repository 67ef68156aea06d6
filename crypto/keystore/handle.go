package keystore

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Tag is the opaque byte identifier naming a key entry in the keystore.
type Tag []byte

// String renders the tag as text when it is printable UTF-8, hex otherwise.
func (t Tag) String() string {
	if utf8.Valid(t) {
		return string(t)
	}
	return hex.EncodeToString(t)
}

// itemName returns the keyring item key for a tag, key type and key size.
// Format: <hex(tag)>/<keytype>-<bits>
func itemName(tag Tag, keyType KeyType, bits int) string {
	return fmt.Sprintf("%s/%s-%d", hex.EncodeToString(tag), keyType, bits)
}

// parseItemName reverses itemName. ok is false for items this package did not write.
func parseItemName(name string) (info KeyInfo, ok bool) {
	tagHex, rest, found := strings.Cut(name, "/")
	if !found {
		return KeyInfo{}, false
	}
	kt, bitsStr, found := strings.Cut(rest, "-")
	if !found {
		return KeyInfo{}, false
	}
	tag, err := hex.DecodeString(tagHex)
	if err != nil || len(tag) == 0 {
		return KeyInfo{}, false
	}
	bits, err := strconv.Atoi(bitsStr)
	if err != nil || bits <= 0 {
		return KeyInfo{}, false
	}
	return KeyInfo{Name: name, Tag: tag, KeyType: KeyType(kt), Bits: bits}, true
}

// keyRef is the part shared by both handle kinds. It locates the key and
// pins it to one specific key by fingerprint.
type keyRef struct {
	item        string
	tag         string
	keyType     KeyType
	bits        int
	fingerprint string
}

// PrivateKeyHandle is an opaque reference to a private key held by a
// keystore. It is only meaningful to the keystore that issued it and never
// carries private key material.
type PrivateKeyHandle struct {
	ref keyRef
}

// Valid reports whether the handle was issued by a keystore.
func (h PrivateKeyHandle) Valid() bool { return h.ref.item != "" }

// Tag returns the tag the key is stored under.
func (h PrivateKeyHandle) Tag() Tag { return Tag(h.ref.tag) }

// Bits returns the key size.
func (h PrivateKeyHandle) Bits() int { return h.ref.bits }

// Fingerprint is the hex SHA-256 of the key's PKIX public key encoding.
// Two handles with equal fingerprints reference the same key material.
func (h PrivateKeyHandle) Fingerprint() string { return h.ref.fingerprint }

// PublicKeyHandle is an opaque reference to the public half of a key pair.
type PublicKeyHandle struct {
	ref keyRef
	key *rsa.PublicKey
}

// Valid reports whether the handle was issued by a keystore.
func (h PublicKeyHandle) Valid() bool { return h.ref.item != "" && h.key != nil }

// Tag returns the tag the key is stored under.
func (h PublicKeyHandle) Tag() Tag { return Tag(h.ref.tag) }

// Bits returns the key size.
func (h PublicKeyHandle) Bits() int { return h.ref.bits }

// Fingerprint is the hex SHA-256 of the key's PKIX public key encoding.
func (h PublicKeyHandle) Fingerprint() string { return h.ref.fingerprint }

// fingerprint computes the SHA-256 fingerprint of an RSA public key.
func fingerprint(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:]), nil
}
