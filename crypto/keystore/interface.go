package keystore

// KeyType identifies the asymmetric algorithm family of a stored key.
type KeyType string

const (
	// KeyTypeRSA is the only key family the keystore generates.
	KeyTypeRSA KeyType = "rsa"
)

// Operation is a cryptographic operation a key may be asked to perform.
type Operation int

const (
	OperationEncrypt Operation = iota + 1
	OperationDecrypt
)

func (o Operation) String() string {
	switch o {
	case OperationEncrypt:
		return "encrypt"
	case OperationDecrypt:
		return "decrypt"
	default:
		return "unknown"
	}
}

// Algorithm names an RSA encryption scheme (padding plus hash).
type Algorithm string

const (
	RSAEncryptionOAEPSHA512 Algorithm = "rsa-oaep-sha512"
	RSAEncryptionOAEPSHA256 Algorithm = "rsa-oaep-sha256"
	RSAEncryptionPKCS1      Algorithm = "rsa-pkcs1v15"
)

// KeyPairConfig describes the key pair a keystore is asked to generate.
type KeyPairConfig struct {
	Tag     Tag
	KeyType KeyType
	Bits    int
	// Permanent keys are written to durable storage. Ephemeral keys are rejected.
	Permanent bool
	// Exportable must be false; the keystore never hands out private key bytes.
	Exportable bool
}

// KeyInfo describes a key entry found in the keystore.
type KeyInfo struct {
	Name    string
	Tag     Tag
	KeyType KeyType
	Bits    int
}

// Keystore is the contract for a secure key store holding the application
// key pair. Key material stays inside the keystore; callers only ever
// receive opaque handles.
//
// All methods block until the backing store answers.
type Keystore interface {
	// LookupKey locates an existing private key. It returns an error wrapping
	// ErrKeyNotFound when no key exists, and ErrBackend for store failures.
	LookupKey(tag Tag, keyType KeyType, bits int) (PrivateKeyHandle, error)
	// GenerateKey creates and persists a key pair. Generating a key that
	// already exists for the tag is a no-op.
	GenerateKey(cfg KeyPairConfig) error
	// PublicKey derives the public half of a private key.
	PublicKey(priv PrivateKeyHandle) (PublicKeyHandle, error)
	// IsAlgorithmSupported reports whether the key can perform op with alg.
	IsAlgorithmSupported(pub PublicKeyHandle, op Operation, alg Algorithm) bool
	// Encrypt encrypts plaintext to the public key.
	Encrypt(pub PublicKeyHandle, alg Algorithm, plaintext []byte) ([]byte, error)
	// Decrypt decrypts ciphertext with the private key.
	Decrypt(priv PrivateKeyHandle, alg Algorithm, ciphertext []byte) ([]byte, error)
	// ListKeys returns every key entry the keystore holds.
	ListKeys() ([]KeyInfo, error)
}
