// Package auth handles the family PIN: hashing, verification with the
// legacy plaintext migration, failed-attempt lockout and the login flow.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/kidzy-family/kidzy/internal/domain"
)

const (
	scheme  = "sha256"
	saltLen = 16

	minPINLen = 4
	maxPINLen = 12
)

// ValidatePIN checks a new PIN is 4 to 12 digits.
func ValidatePIN(pin string) error {
	if len(pin) < minPINLen || len(pin) > maxPINLen {
		return domain.Invalid("pin", fmt.Sprintf("must be %d to %d digits", minPINLen, maxPINLen))
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return domain.Invalid("pin", "must contain digits only")
		}
	}
	return nil
}

// HashPIN returns "sha256$<salt-hex>$<digest-hex>" with a fresh random salt.
func HashPIN(pin string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return encode(salt, pin), nil
}

func encode(salt []byte, pin string) string {
	return scheme + "$" + hex.EncodeToString(salt) + "$" + hex.EncodeToString(digest(salt, pin))
}

func digest(salt []byte, pin string) []byte {
	h := sha256.New()
	h.Write(salt)
	h.Write([]byte(pin))
	return h.Sum(nil)
}

// IsLegacy reports whether stored is a plaintext PIN from before hashing.
// Hashed credentials are far longer than any valid PIN.
func IsLegacy(stored string) bool {
	return len(stored) <= maxPINLen && !strings.HasPrefix(stored, scheme+"$")
}

// VerifyPIN checks pin against the stored credential. legacy reports that
// the credential is plaintext and should be replaced after a match.
func VerifyPIN(stored, pin string) (ok, legacy bool) {
	if IsLegacy(stored) {
		return subtle.ConstantTimeCompare([]byte(stored), []byte(pin)) == 1, true
	}
	parts := strings.Split(stored, "$")
	if len(parts) != 3 || parts[0] != scheme {
		return false, false
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false, false
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil {
		return false, false
	}
	return subtle.ConstantTimeCompare(want, digest(salt, pin)) == 1, false
}
