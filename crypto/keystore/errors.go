package keystore

import "errors"

var (
	// ErrKeyNotFound is returned by LookupKey when no key exists for the tag.
	ErrKeyNotFound = errors.New("keystore: key not found")

	// ErrBackend is returned when the backing keyring fails or holds unreadable data.
	ErrBackend = errors.New("keystore: backend error")

	// ErrInvalidHandle is returned for zero-value or foreign handles.
	ErrInvalidHandle = errors.New("keystore: invalid key handle")

	// ErrInvalidConfig is returned when a key pair configuration cannot be honoured.
	ErrInvalidConfig = errors.New("keystore: invalid key pair configuration")

	// ErrUnsupportedAlgorithm is returned when a key cannot use the requested algorithm.
	ErrUnsupportedAlgorithm = errors.New("keystore: unsupported algorithm")

	// ErrKeyMismatch is returned when the stored key no longer matches a handle.
	ErrKeyMismatch = errors.New("keystore: stored key does not match handle")

	// ErrMessageTooLong is returned when plaintext exceeds the padding scheme's limit.
	ErrMessageTooLong = errors.New("keystore: message too long for key and algorithm")

	// ErrUnknownBackend is returned by NewKeystore for unregistered backend names.
	ErrUnknownBackend = errors.New("keystore: unknown backend")
)
