package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomToken returns 32 random bytes hex encoded. Used for email
// verification and password reset links.
func RandomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
