package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Verification code settings (overridable through config where it matters).
const (
	CodeLength  = 6
	CodeTTL     = 10 * time.Minute
	MaxAttempts = 3
)

// Codes expire against Beijing time, matching the rest of the product.
var CodeZone = time.FixedZone("Asia/Shanghai", 8*60*60)

// GenerateCode returns a uniformly random numeric code of the given length,
// leading zeros kept. Non-positive lengths fall back to CodeLength.
// Collisions across emails are fine; the one-active-code rule handles the rest.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		length = CodeLength
	}
	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}

// CodeExpiry returns the absolute expiry for a code issued at now.
func CodeExpiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = CodeTTL
	}
	return now.In(CodeZone).Add(ttl)
}
