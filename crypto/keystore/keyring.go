package keystore

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"sort"
	"sync"

	"github.com/99designs/keyring"
)

// MinRSABits is the smallest RSA modulus the keystore will generate.
const MinRSABits = 2048

const itemDescription = "keypair application key"

// KeyringKeystore implements Keystore on top of a keyring.Keyring. Private
// keys are stored as PKCS#8 PEM items and reloaded for every private-key
// operation; they are never returned to callers.
//
// Thread-safe: every keyring access holds mu. GenerateKey takes it
// exclusively so check-then-set generates a tag at most once per
// KeyringKeystore.
type KeyringKeystore struct {
	ring       keyring.Keyring
	passphrase []byte

	mu sync.RWMutex
}

// NewKeyringKeystore wraps an open keyring. A non-empty passphrase encrypts
// stored keys with PKCS#8 PBES2 on top of whatever the keyring backend does.
func NewKeyringKeystore(ring keyring.Keyring, passphrase []byte) *KeyringKeystore {
	var pp []byte
	if len(passphrase) > 0 {
		pp = append([]byte(nil), passphrase...)
	}
	return &KeyringKeystore{ring: ring, passphrase: pp}
}

// LookupKey locates the private key stored for tag.
func (k *KeyringKeystore) LookupKey(tag Tag, keyType KeyType, bits int) (PrivateKeyHandle, error) {
	if len(tag) == 0 {
		return PrivateKeyHandle{}, fmt.Errorf("%w: empty tag", ErrInvalidConfig)
	}
	name := itemName(tag, keyType, bits)
	key, err := k.loadKey(name)
	if err != nil {
		return PrivateKeyHandle{}, err
	}
	if key.N.BitLen() != bits {
		return PrivateKeyHandle{}, fmt.Errorf("%w: stored key is %d bits, want %d", ErrBackend, key.N.BitLen(), bits)
	}
	fp, err := fingerprint(&key.PublicKey)
	if err != nil {
		return PrivateKeyHandle{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return PrivateKeyHandle{ref: keyRef{
		item:        name,
		tag:         string(tag),
		keyType:     keyType,
		bits:        bits,
		fingerprint: fp,
	}}, nil
}

// GenerateKey generates an RSA key pair and stores it under cfg.Tag.
// An existing key for the same tag, type and size is left untouched.
func (k *KeyringKeystore) GenerateKey(cfg KeyPairConfig) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	name := itemName(cfg.Tag, cfg.KeyType, cfg.Bits)
	_, err := k.ring.Get(name)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, keyring.ErrKeyNotFound):
		return fmt.Errorf("%w: failed to check for existing key: %v", ErrBackend, err)
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, cfg.Bits)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key: %w", err)
	}

	data, err := encodePrivateKey(privateKey, k.passphrase)
	if err != nil {
		return err
	}

	err = k.ring.Set(keyring.Item{
		Key:         name,
		Data:        data,
		Label:       cfg.Tag.String(),
		Description: itemDescription,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to store key in keyring: %v", ErrBackend, err)
	}
	return nil
}

// PublicKey derives the public key handle for priv.
func (k *KeyringKeystore) PublicKey(priv PrivateKeyHandle) (PublicKeyHandle, error) {
	key, err := k.privateKeyFor(priv)
	if err != nil {
		return PublicKeyHandle{}, err
	}
	pub := key.PublicKey
	return PublicKeyHandle{ref: priv.ref, key: &pub}, nil
}

// IsAlgorithmSupported reports whether alg can be used for op with this key.
func (k *KeyringKeystore) IsAlgorithmSupported(pub PublicKeyHandle, op Operation, alg Algorithm) bool {
	if !pub.Valid() || pub.ref.keyType != KeyTypeRSA {
		return false
	}
	// A public key can only encrypt.
	if op != OperationEncrypt {
		return false
	}
	switch alg {
	case RSAEncryptionPKCS1:
		return true
	case RSAEncryptionOAEPSHA256, RSAEncryptionOAEPSHA512:
		h, _ := oaepHash(alg)
		// OAEP needs room for two hashes plus two bytes.
		return pub.key.Size() > 2*h.Size()+2
	default:
		return false
	}
}

// Encrypt encrypts plaintext to pub with alg.
func (k *KeyringKeystore) Encrypt(pub PublicKeyHandle, alg Algorithm, plaintext []byte) ([]byte, error) {
	if !pub.Valid() {
		return nil, ErrInvalidHandle
	}
	if !k.IsAlgorithmSupported(pub, OperationEncrypt, alg) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
	if limit := maxPlaintext(pub.key, alg); len(plaintext) > limit {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrMessageTooLong, len(plaintext), limit)
	}

	if alg == RSAEncryptionPKCS1 {
		ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, pub.key, plaintext)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt: %w", err)
		}
		return ciphertext, nil
	}

	h, _ := oaepHash(alg)
	ciphertext, err := rsa.EncryptOAEP(h, rand.Reader, pub.key, plaintext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt: %w", err)
	}
	return ciphertext, nil
}

// Decrypt decrypts ciphertext with the private key behind priv.
func (k *KeyringKeystore) Decrypt(priv PrivateKeyHandle, alg Algorithm, ciphertext []byte) ([]byte, error) {
	key, err := k.privateKeyFor(priv)
	if err != nil {
		return nil, err
	}

	switch alg {
	case RSAEncryptionPKCS1:
		plaintext, err := rsa.DecryptPKCS1v15(nil, key, ciphertext)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt: %w", err)
		}
		return plaintext, nil
	case RSAEncryptionOAEPSHA256, RSAEncryptionOAEPSHA512:
		h, _ := oaepHash(alg)
		plaintext, err := rsa.DecryptOAEP(h, nil, key, ciphertext, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt: %w", err)
		}
		return plaintext, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
}

// ListKeys returns the key entries written by this package, sorted by name.
func (k *KeyringKeystore) ListKeys() ([]KeyInfo, error) {
	k.mu.RLock()
	names, err := k.ring.Keys()
	k.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list keys from keyring: %v", ErrBackend, err)
	}
	sort.Strings(names)

	infos := make([]KeyInfo, 0, len(names))
	for _, name := range names {
		if info, ok := parseItemName(name); ok {
			infos = append(infos, info)
		}
	}
	return infos, nil
}

// privateKeyFor reloads the key behind a handle and checks it is still the
// same key the handle was issued for.
func (k *KeyringKeystore) privateKeyFor(priv PrivateKeyHandle) (*rsa.PrivateKey, error) {
	if !priv.Valid() {
		return nil, ErrInvalidHandle
	}
	key, err := k.loadKey(priv.ref.item)
	if err != nil {
		return nil, err
	}
	fp, err := fingerprint(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if fp != priv.ref.fingerprint {
		return nil, ErrKeyMismatch
	}
	return key, nil
}

func (k *KeyringKeystore) loadKey(name string) (*rsa.PrivateKey, error) {
	k.mu.RLock()
	item, err := k.ring.Get(name)
	k.mu.RUnlock()
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
		}
		return nil, fmt.Errorf("%w: failed to get key from keyring: %v", ErrBackend, err)
	}
	key, err := decodePrivateKey(item.Data, k.passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return key, nil
}

func validateConfig(cfg KeyPairConfig) error {
	switch {
	case len(cfg.Tag) == 0:
		return fmt.Errorf("%w: empty tag", ErrInvalidConfig)
	case cfg.KeyType != KeyTypeRSA:
		return fmt.Errorf("%w: key type %q", ErrInvalidConfig, cfg.KeyType)
	case cfg.Bits < MinRSABits:
		return fmt.Errorf("%w: %d bits is below the %d bit minimum", ErrInvalidConfig, cfg.Bits, MinRSABits)
	case !cfg.Permanent:
		return fmt.Errorf("%w: ephemeral keys are not supported", ErrInvalidConfig)
	case cfg.Exportable:
		return fmt.Errorf("%w: exportable keys are not supported", ErrInvalidConfig)
	}
	return nil
}

func oaepHash(alg Algorithm) (hash.Hash, bool) {
	switch alg {
	case RSAEncryptionOAEPSHA512:
		return sha512.New(), true
	case RSAEncryptionOAEPSHA256:
		return sha256.New(), true
	}
	return nil, false
}

// maxPlaintext is the largest message the padding scheme accepts for key.
func maxPlaintext(key *rsa.PublicKey, alg Algorithm) int {
	if alg == RSAEncryptionPKCS1 {
		return key.Size() - 11
	}
	h, _ := oaepHash(alg)
	return key.Size() - 2*h.Size() - 2
}
