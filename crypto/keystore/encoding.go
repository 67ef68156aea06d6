package keystore

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/youmark/pkcs8"
)

const (
	pemTypePrivateKey          = "PRIVATE KEY"
	pemTypeEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
)

// encodePrivateKey encodes an RSA private key as a PKCS#8 PEM block.
// With a passphrase the block is PBES2-encrypted.
func encodePrivateKey(key *rsa.PrivateKey, passphrase []byte) ([]byte, error) {
	var (
		der     []byte
		err     error
		pemType = pemTypePrivateKey
	)
	if len(passphrase) > 0 {
		der, err = pkcs8.MarshalPrivateKey(key, passphrase, nil)
		pemType = pemTypeEncryptedPrivateKey
	} else {
		der, err = x509.MarshalPKCS8PrivateKey(key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	defer zeroize(der)

	return pem.EncodeToMemory(&pem.Block{
		Type:  pemType,
		Bytes: der,
	}), nil
}

// decodePrivateKey parses a PEM block written by encodePrivateKey.
func decodePrivateKey(data, passphrase []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}
	defer zeroize(block.Bytes)

	switch block.Type {
	case pemTypeEncryptedPrivateKey:
		if len(passphrase) == 0 {
			return nil, fmt.Errorf("key is encrypted and no passphrase is configured")
		}
		key, err := pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, passphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt private key: %w", err)
		}
		return key, nil
	case pemTypePrivateKey:
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key is not RSA")
		}
		return rsaKey, nil
	default:
		return nil, fmt.Errorf("unexpected PEM block type %q", block.Type)
	}
}
