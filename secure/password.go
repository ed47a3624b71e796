// Package secure provides the credential and token utilities used by the
// dispatch pipeline: password hashing, strength scoring, secure random
// tokens, backup codes, HMAC signing and authenticated encryption.
package secure

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/layer-3/mailgate/core"
)

// Argon2Params tune the password hashing work factor.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns the production work factor (64 MiB, 3 passes).
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// HashPassword hashes plaintext with Argon2id and a random salt. The salt
// and parameters are embedded in the encoded form:
//
//	$argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
func HashPassword(plaintext string) (string, error) {
	return HashPasswordParams(plaintext, DefaultArgon2Params())
}

// HashPasswordParams hashes plaintext with explicit Argon2id parameters.
func HashPasswordParams(plaintext string, p Argon2Params) (string, error) {
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(plaintext), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword reports whether plaintext matches the encoded hash. The
// comparison is constant-time.
func VerifyPassword(plaintext, encodedHash string) (bool, error) {
	p, salt, hash, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	other := argon2.IDKey([]byte(plaintext), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return subtle.ConstantTimeCompare(hash, other) == 1, nil
}

func decodeHash(encodedHash string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, core.ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, core.ErrInvalidHash
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: incompatible argon2 version %d", core.ErrInvalidHash, version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, core.ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, core.ErrInvalidHash
	}
	p.SaltLength = uint32(len(salt))

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, core.ErrInvalidHash
	}
	p.KeyLength = uint32(len(hash))

	return p, salt, hash, nil
}

const minPasswordLength = 8

// commonPasswords is a short deny-list of passwords seen in every breach
// corpus. Matching is case-insensitive.
var commonPasswords = map[string]struct{}{
	"password":   {},
	"password1":  {},
	"12345678":   {},
	"123456789":  {},
	"qwerty123":  {},
	"letmein":    {},
	"iloveyou":   {},
	"admin123":   {},
	"welcome1":   {},
	"monkey123":  {},
	"dragon123":  {},
	"sunshine1":  {},
	"princess1":  {},
	"football1":  {},
	"trustno1":   {},
	"1q2w3e4r":   {},
	"qwertyuiop": {},
}

// ValidatePasswordStrength checks plaintext against the password policy and
// returns every violated rule, not just the first.
func ValidatePasswordStrength(plaintext string) []string {
	var errs []string

	if len(plaintext) < minPasswordLength {
		errs = append(errs, fmt.Sprintf("must be at least %d characters long", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range plaintext {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	if !hasUpper {
		errs = append(errs, "must contain an uppercase letter")
	}
	if !hasLower {
		errs = append(errs, "must contain a lowercase letter")
	}
	if !hasDigit {
		errs = append(errs, "must contain a digit")
	}
	if !hasSymbol {
		errs = append(errs, "must contain a symbol")
	}

	if _, known := commonPasswords[strings.ToLower(plaintext)]; known {
		errs = append(errs, "is a commonly used password")
	}

	return errs
}

// PasswordEntropy estimates bits of entropy as log2(distinct^length). This
// is a coarse charset-size heuristic, not true entropy: "aaaaaaaa" and a
// random 8-char string over the same alphabet score identically.
func PasswordEntropy(plaintext string) float64 {
	if plaintext == "" {
		return 0
	}
	distinct := make(map[rune]struct{}, len(plaintext))
	length := 0
	for _, r := range plaintext {
		distinct[r] = struct{}{}
		length++
	}
	if len(distinct) < 2 {
		return 0
	}
	return float64(length) * math.Log2(float64(len(distinct)))
}
