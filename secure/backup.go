package secure

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// backupCodeBytes gives 8 uppercase hex characters per code, short enough
// for a human to type during account recovery.
const backupCodeBytes = 4

// GenerateBackupCodes returns count independent one-time recovery codes.
// Codes are generated together at 2FA enrollment but share no state: each is
// its own random draw.
func GenerateBackupCodes(count int) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("backup code count must be positive, got %d", count)
	}
	codes := make([]string, count)
	for i := range codes {
		b := make([]byte, backupCodeBytes)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		codes[i] = strings.ToUpper(hex.EncodeToString(b))
	}
	return codes, nil
}

// HashBackupCodes hashes each code independently, so a compromise of the
// stored hashes reveals nothing about the unused codes.
func HashBackupCodes(codes []string) []string {
	hashes := make([]string, len(codes))
	for i, code := range codes {
		hashes[i] = hashBackupCode(code)
	}
	return hashes
}

// VerifyBackupCode reports whether code matches any of the stored hashes.
// Every candidate is compared in constant time and the scan never stops
// early, so timing does not reveal which stored code matched.
func VerifyBackupCode(code string, hashedCodes []string) bool {
	candidate := []byte(hashBackupCode(code))
	matched := 0
	for _, h := range hashedCodes {
		matched |= subtle.ConstantTimeCompare(candidate, []byte(h))
	}
	return matched == 1
}

func hashBackupCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
