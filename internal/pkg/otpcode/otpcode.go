package otpcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Generator produces a fixed-length numeric one-time code. Injectable so
// tests can substitute a deterministic implementation.
type Generator func(length int) (string, error)

// Generate draws each digit from crypto/rand.
func Generate(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate otp code: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
