package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// entropy is a stateless math/rand/v2 Source that reads crypto/rand.
type entropy struct{}

func (entropy) Uint64() uint64 {
	var b [8]byte
	_, _ = crand.Read(b[:]) // never fails; crypto/rand aborts the process instead
	return binary.LittleEndian.Uint64(b[:])
}

type cryptoSource struct{}

// NewCryptoSource returns the production Source: unbiased values drawn from
// the operating system's cryptographic generator. Safe for concurrent use.
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Intn returns a uniform value in [0, n).
//
// Precondition: n > 0; panics otherwise.
func (cryptoSource) Intn(n int) int {
	return rand.New(entropy{}).IntN(n)
}
