package keystore

import "sync/atomic"

// FaultyKeystore wraps a Keystore and injects failures for testing.
// It is exported so tests in other packages can simulate backend errors,
// unsupported algorithms and corrupted decryption.
//
// Set the fault fields before sharing the value between goroutines.
type FaultyKeystore struct {
	inner Keystore

	// LookupErr, when set, is returned by every LookupKey call.
	LookupErr error
	// GenerateErr, when set, is returned by GenerateKey without generating.
	GenerateErr error
	// SkipGenerate makes GenerateKey report success without generating,
	// simulating a backend that silently drops the write.
	SkipGenerate bool
	// PublicKeyErr, when set, is returned by PublicKey.
	PublicKeyErr error
	// Unsupported makes IsAlgorithmSupported report false.
	Unsupported bool
	// EncryptErr and DecryptErr, when set, are returned by Encrypt and Decrypt.
	EncryptErr error
	DecryptErr error
	// CorruptDecrypt flips the first byte of every decrypted plaintext.
	CorruptDecrypt bool

	lookups   atomic.Int64
	generates atomic.Int64
}

// NewFaultyKeystore wraps inner. With no fault fields set it behaves exactly like inner.
func NewFaultyKeystore(inner Keystore) *FaultyKeystore {
	return &FaultyKeystore{inner: inner}
}

// NewMemoryFaultyKeystore wraps a fresh in-memory keystore.
func NewMemoryFaultyKeystore() *FaultyKeystore {
	ks, _ := newMemoryKeystore(Options{})
	return NewFaultyKeystore(ks)
}

// LookupCalls returns how many times LookupKey was called.
func (f *FaultyKeystore) LookupCalls() int { return int(f.lookups.Load()) }

// GenerateCalls returns how many times GenerateKey was called.
func (f *FaultyKeystore) GenerateCalls() int { return int(f.generates.Load()) }

func (f *FaultyKeystore) LookupKey(tag Tag, keyType KeyType, bits int) (PrivateKeyHandle, error) {
	f.lookups.Add(1)
	if f.LookupErr != nil {
		return PrivateKeyHandle{}, f.LookupErr
	}
	return f.inner.LookupKey(tag, keyType, bits)
}

func (f *FaultyKeystore) GenerateKey(cfg KeyPairConfig) error {
	f.generates.Add(1)
	if f.GenerateErr != nil {
		return f.GenerateErr
	}
	if f.SkipGenerate {
		return nil
	}
	return f.inner.GenerateKey(cfg)
}

func (f *FaultyKeystore) PublicKey(priv PrivateKeyHandle) (PublicKeyHandle, error) {
	if f.PublicKeyErr != nil {
		return PublicKeyHandle{}, f.PublicKeyErr
	}
	return f.inner.PublicKey(priv)
}

func (f *FaultyKeystore) IsAlgorithmSupported(pub PublicKeyHandle, op Operation, alg Algorithm) bool {
	if f.Unsupported {
		return false
	}
	return f.inner.IsAlgorithmSupported(pub, op, alg)
}

func (f *FaultyKeystore) Encrypt(pub PublicKeyHandle, alg Algorithm, plaintext []byte) ([]byte, error) {
	if f.EncryptErr != nil {
		return nil, f.EncryptErr
	}
	return f.inner.Encrypt(pub, alg, plaintext)
}

func (f *FaultyKeystore) Decrypt(priv PrivateKeyHandle, alg Algorithm, ciphertext []byte) ([]byte, error) {
	if f.DecryptErr != nil {
		return nil, f.DecryptErr
	}
	plaintext, err := f.inner.Decrypt(priv, alg, ciphertext)
	if err != nil || !f.CorruptDecrypt || len(plaintext) == 0 {
		return plaintext, err
	}
	corrupted := append([]byte(nil), plaintext...)
	corrupted[0] ^= 0xFF
	return corrupted, nil
}

func (f *FaultyKeystore) ListKeys() ([]KeyInfo, error) {
	return f.inner.ListKeys()
}
