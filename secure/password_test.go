package secure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/mailgate/core"
)

// testArgon2Params keeps the tests fast; production strength is not the
// point here.
func testArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashPasswordRoundTrip(t *testing.T) {
	encoded, err := HashPasswordParams("correct horse battery staple", testArgon2Params())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=8192,t=1,p=1$"))

	ok, err := VerifyPassword("correct horse battery staple", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("correct horse battery stapl", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordSaltsAreUnique(t *testing.T) {
	a, err := HashPasswordParams("same input", testArgon2Params())
	require.NoError(t, err)
	b, err := HashPasswordParams("same input", testArgon2Params())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"not a hash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$aGFzaA",
	} {
		_, err := VerifyPassword("anything", encoded)
		assert.ErrorIs(t, err, core.ErrInvalidHash, "hash %q", encoded)
	}
}

func TestValidatePasswordStrengthReportsAllViolations(t *testing.T) {
	errs := ValidatePasswordStrength("abc")
	assert.Len(t, errs, 4)
	assert.Contains(t, errs, "must be at least 8 characters long")
	assert.Contains(t, errs, "must contain an uppercase letter")
	assert.Contains(t, errs, "must contain a digit")
	assert.Contains(t, errs, "must contain a symbol")

	assert.Empty(t, ValidatePasswordStrength("Str0ng!pass"))
}

func TestValidatePasswordStrengthFlagsCommonPasswords(t *testing.T) {
	errs := ValidatePasswordStrength("LetMeIn")
	assert.Contains(t, errs, "is a commonly used password")
}

func TestPasswordEntropy(t *testing.T) {
	assert.Equal(t, 0.0, PasswordEntropy(""))
	assert.Equal(t, 0.0, PasswordEntropy("aaaaaaaa"))

	// 8 chars over a 2-symbol alphabet: 8 * log2(2) = 8 bits.
	assert.InDelta(t, 8.0, PasswordEntropy("abababab"), 0.001)

	assert.Greater(t, PasswordEntropy("Tr0ub4dor&3"), PasswordEntropy("troubador"))
}
