package keypair

import "fmt"

// Kind classifies a key pair failure.
type Kind int

const (
	KindTagUnavailable Kind = iota + 1
	KindLookupFailed
	KindGenerationFailed
	KindNoPrivateKey
	KindDerivationFailed
	KindUnsupportedAlgorithm
	KindEncryptionFailed
	KindDecryptionFailed
	KindRoundTripMismatch
)

var kindNames = map[Kind]string{
	KindTagUnavailable:       "tag unavailable",
	KindLookupFailed:         "lookup failed",
	KindGenerationFailed:     "generation failed",
	KindNoPrivateKey:         "no private key",
	KindDerivationFailed:     "public key derivation failed",
	KindUnsupportedAlgorithm: "unsupported algorithm",
	KindEncryptionFailed:     "encryption failed",
	KindDecryptionFailed:     "decryption failed",
	KindRoundTripMismatch:    "round trip mismatch",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the failure type returned by Manager. Err carries the
// collaborator's diagnostic when there is one.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := "keypair: "
	if e.Op != "" {
		msg += e.Op + ": "
	}
	msg += e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the package sentinels by Kind, so errors.Is(err, ErrLookupFailed)
// holds for any lookup failure regardless of its cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrTagUnavailable       = &Error{Kind: KindTagUnavailable}
	ErrLookupFailed         = &Error{Kind: KindLookupFailed}
	ErrGenerationFailed     = &Error{Kind: KindGenerationFailed}
	ErrNoPrivateKey         = &Error{Kind: KindNoPrivateKey}
	ErrDerivationFailed     = &Error{Kind: KindDerivationFailed}
	ErrUnsupportedAlgorithm = &Error{Kind: KindUnsupportedAlgorithm}
	ErrEncryptionFailed     = &Error{Kind: KindEncryptionFailed}
	ErrDecryptionFailed     = &Error{Kind: KindDecryptionFailed}
	ErrRoundTripMismatch    = &Error{Kind: KindRoundTripMismatch}
)

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
