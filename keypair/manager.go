// Package keypair manages the single application-scoped RSA key pair: it
// finds the key by a tag derived from the application identifier, generates
// it on first use and hands out public and private key handles.
package keypair

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/joncooperworks/keypair/crypto/keystore"
	"github.com/joncooperworks/keypair/metrics"
)

const (
	// KeyType, KeyBits and Algorithm are fixed for the life of the process.
	KeyType   = keystore.KeyTypeRSA
	KeyBits   = 2048
	Algorithm = keystore.RSAEncryptionOAEPSHA512

	// SelfTestPlaintext is encrypted and decrypted by SelfTest.
	SelfTestPlaintext = "KeyPair::test"
)

// Manager owns the lookup-or-create lifecycle of the application key pair.
//
// Concurrent callers within one process share a single lookup-or-create
// sequence per tag, so a missing key is generated once. Processes sharing a
// keystore are not coordinated: callers that need exactly-once generation
// across processes must hold an external lock around the first PrivateKey call.
type Manager struct {
	store      keystore.Keystore
	identifier string
	capability keystore.Algorithm
	logger     *slog.Logger
	metrics    *metrics.Collector

	flight singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics records lifecycle counters on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(m *Manager) { m.metrics = c }
}

// WithCapabilityAlgorithm sets the algorithm PublicKey requires the key to
// support. Defaults to RSA-OAEP-SHA512.
func WithCapabilityAlgorithm(alg keystore.Algorithm) Option {
	return func(m *Manager) { m.capability = alg }
}

// NewManager creates a Manager for the key pair named by identifier.
// The identifier is only checked when a tag is needed, so an empty one
// surfaces as ErrTagUnavailable from each operation.
func NewManager(store keystore.Keystore, identifier string, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		identifier: identifier,
		capability: Algorithm,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the key pair configuration used for generation.
func (m *Manager) Config() (keystore.KeyPairConfig, error) {
	tag, err := DeriveTag(m.identifier)
	if err != nil {
		return keystore.KeyPairConfig{}, err
	}
	return keystore.KeyPairConfig{
		Tag:       tag,
		KeyType:   KeyType,
		Bits:      KeyBits,
		Permanent: true,
	}, nil
}

// PrivateKey returns the handle of the application's private key, generating
// the key pair if none exists yet.
func (m *Manager) PrivateKey() (keystore.PrivateKeyHandle, error) {
	const op = "private key"

	tag, err := DeriveTag(m.identifier)
	if err != nil {
		return keystore.PrivateKeyHandle{}, newError(KindTagUnavailable, op, nil)
	}

	v, err, _ := m.flight.Do(string(tag), func() (any, error) {
		return m.lookupOrCreate(tag)
	})
	if err != nil {
		return keystore.PrivateKeyHandle{}, err
	}
	return v.(keystore.PrivateKeyHandle), nil
}

func (m *Manager) lookupOrCreate(tag keystore.Tag) (keystore.PrivateKeyHandle, error) {
	const op = "private key"

	handle, err := m.store.LookupKey(tag, KeyType, KeyBits)
	switch {
	case err == nil:
		m.metrics.RecordLookup(metrics.ResultHit)
		return handle, nil
	case !errors.Is(err, keystore.ErrKeyNotFound):
		m.metrics.RecordLookup(metrics.ResultError)
		m.logger.Error("key lookup failed", "tag", tag.String(), "error", err)
		return keystore.PrivateKeyHandle{}, newError(KindLookupFailed, op, err)
	}

	m.metrics.RecordLookup(metrics.ResultMiss)
	m.logger.Info("no key pair found, generating", "tag", tag.String())

	if err := m.CreateKeyPair(); err != nil {
		return keystore.PrivateKeyHandle{}, newError(KindLookupFailed, op, err)
	}

	handle, err = m.store.LookupKey(tag, KeyType, KeyBits)
	if err != nil {
		m.metrics.RecordLookup(metrics.ResultError)
		m.logger.Error("key lookup after generation failed", "tag", tag.String(), "error", err)
		return keystore.PrivateKeyHandle{}, newError(KindLookupFailed, op, err)
	}
	if !handle.Valid() {
		m.metrics.RecordLookup(metrics.ResultError)
		return keystore.PrivateKeyHandle{}, newError(KindLookupFailed, op, keystore.ErrInvalidHandle)
	}
	m.metrics.RecordLookup(metrics.ResultCreated)
	return handle, nil
}

// PublicKey returns the handle of the application's public key. The key must
// support encryption with the manager's capability algorithm.
func (m *Manager) PublicKey() (keystore.PublicKeyHandle, error) {
	const op = "public key"

	priv, err := m.PrivateKey()
	if err != nil {
		return keystore.PublicKeyHandle{}, newError(KindNoPrivateKey, op, err)
	}

	pub, err := m.store.PublicKey(priv)
	if err != nil {
		return keystore.PublicKeyHandle{}, newError(KindDerivationFailed, op, err)
	}
	if pub.Fingerprint() != priv.Fingerprint() {
		return keystore.PublicKeyHandle{}, newError(KindDerivationFailed, op, keystore.ErrKeyMismatch)
	}

	if !m.store.IsAlgorithmSupported(pub, keystore.OperationEncrypt, m.capability) {
		m.logger.Warn("key does not support required algorithm", "algorithm", string(m.capability))
		return keystore.PublicKeyHandle{}, newError(KindUnsupportedAlgorithm, op,
			fmt.Errorf("%s %s", keystore.OperationEncrypt, m.capability))
	}
	return pub, nil
}

// CreateKeyPair asks the keystore to generate the key pair. It does not
// retry and returns no handle; callers look the key up afterwards.
func (m *Manager) CreateKeyPair() error {
	const op = "create key pair"

	cfg, err := m.Config()
	if err != nil {
		return newError(KindTagUnavailable, op, nil)
	}

	err = m.store.GenerateKey(cfg)
	m.metrics.RecordGeneration(err)
	if err != nil {
		m.logger.Error("key pair generation failed", "tag", cfg.Tag.String(), "error", err)
		return newError(KindGenerationFailed, op, err)
	}
	m.logger.Info("key pair generated", "tag", cfg.Tag.String(), "bits", cfg.Bits)
	return nil
}

// SelfTest encrypts SelfTestPlaintext with the public key, decrypts it with
// the private key and checks the result matches exactly.
func (m *Manager) SelfTest() (err error) {
	const op = "self-test"

	defer func() {
		m.metrics.RecordSelfTest(err)
		if err != nil {
			m.logger.Error("self-test FAILED", "error", err)
			return
		}
		m.logger.Info("self-test OK")
	}()

	pub, err := m.PublicKey()
	if err != nil {
		return err
	}
	priv, err := m.PrivateKey()
	if err != nil {
		return err
	}

	ciphertext, err := m.store.Encrypt(pub, Algorithm, []byte(SelfTestPlaintext))
	if err != nil {
		return newError(KindEncryptionFailed, op, err)
	}
	if len(ciphertext) == 0 {
		return newError(KindEncryptionFailed, op, errors.New("empty ciphertext"))
	}

	plaintext, err := m.store.Decrypt(priv, Algorithm, ciphertext)
	if err != nil {
		return newError(KindDecryptionFailed, op, err)
	}

	if !utf8.Valid(plaintext) || !bytes.Equal(plaintext, []byte(SelfTestPlaintext)) {
		return newError(KindRoundTripMismatch, op, nil)
	}
	return nil
}

// Encrypt encrypts plaintext to the application public key with RSA-OAEP-SHA512.
func (m *Manager) Encrypt(plaintext []byte) ([]byte, error) {
	pub, err := m.PublicKey()
	if err != nil {
		return nil, err
	}
	ciphertext, err := m.store.Encrypt(pub, Algorithm, plaintext)
	if err != nil {
		return nil, newError(KindEncryptionFailed, "encrypt", err)
	}
	return ciphertext, nil
}

// Decrypt decrypts ciphertext produced by Encrypt.
func (m *Manager) Decrypt(ciphertext []byte) ([]byte, error) {
	priv, err := m.PrivateKey()
	if err != nil {
		return nil, newError(KindNoPrivateKey, "decrypt", err)
	}
	plaintext, err := m.store.Decrypt(priv, Algorithm, ciphertext)
	if err != nil {
		return nil, newError(KindDecryptionFailed, "decrypt", err)
	}
	return plaintext, nil
}
