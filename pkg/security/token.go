package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const DefaultTokenBytes = 32

// NewOpaqueToken returns n random bytes hex-encoded. Values below
// DefaultTokenBytes are raised to it so every token carries at least 256 bits.
func NewOpaqueToken(n int) (string, error) {
	if n < DefaultTokenBytes {
		n = DefaultTokenBytes
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
