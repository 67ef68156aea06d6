package keystore

import "runtime"

// zeroize overwrites a byte slice with zeros to clear key encodings from memory
// once they have been parsed or written.
func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b) // Prevent dead code elimination
}
