package idgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const idCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSecureID returns a collision-resistant identifier of the form
// "<prefix>_<random>", where the random suffix is drawn from crypto/rand over
// lowercase alphanumerics. The suffix carries no timing or sequence
// information.
func GenerateSecureID(prefix string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("idgen: length must be positive, got %d", length)
	}

	suffix := make([]byte, length)
	max := big.NewInt(int64(len(idCharset)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("idgen: read random: %w", err)
		}
		suffix[i] = idCharset[n.Int64()]
	}

	return prefix + "_" + string(suffix), nil
}

// GenerateConversationID returns a fresh conversation identifier.
func GenerateConversationID() (string, error) {
	return GenerateSecureID("conv", 16)
}

// GenerateTurnID returns a fresh turn identifier.
func GenerateTurnID() (string, error) {
	return GenerateSecureID("turn", 16)
}
