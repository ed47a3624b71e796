package secure

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// sessionTokenBytes is fixed: session and refresh tokens are always 64
// random bytes, i.e. 128 hex characters. Callers validating token shape
// rely on exactly this length.
const sessionTokenBytes = 64

// GenerateSecureToken returns n cryptographically random bytes hex-encoded
// (2n characters).
func GenerateSecureToken(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("token length must be positive, got %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateSessionToken returns a 128-hex-character session token.
func GenerateSessionToken() (string, error) {
	return GenerateSecureToken(sessionTokenBytes)
}

// GenerateRefreshToken returns a 128-hex-character refresh token. The token
// carries no self-describing structure; its purpose is known only to the
// caller that issued it.
func GenerateRefreshToken() (string, error) {
	return GenerateSecureToken(sessionTokenBytes)
}

// ValidTokenShape reports whether s looks like a session or refresh token:
// exactly 128 lowercase hex characters.
func ValidTokenShape(s string) bool {
	if len(s) != 2*sessionTokenBytes {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
