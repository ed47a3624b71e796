package secure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/mailgate/core"
)

func testKey() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte("smtp password: hunter2")

	encrypted, err := EncryptSensitiveData(plaintext, testKey())
	require.NoError(t, err)

	parts := strings.Split(encrypted, ":")
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 24, "12-byte iv")
	assert.Len(t, parts[1], 32, "16-byte tag")

	decrypted, err := DecryptSensitiveData(encrypted, testKey())
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptUsesFreshIVs(t *testing.T) {
	a, err := EncryptSensitiveData([]byte("same"), testKey())
	require.NoError(t, err)
	b, err := EncryptSensitiveData([]byte("same"), testKey())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptFailsClosedOnTampering(t *testing.T) {
	encrypted, err := EncryptSensitiveData([]byte("secret"), testKey())
	require.NoError(t, err)

	// Flip one hex digit in each segment in turn.
	for _, idx := range []int{0, 26, len(encrypted) - 1} {
		tampered := []byte(encrypted)
		if tampered[idx] == '0' {
			tampered[idx] = '1'
		} else {
			tampered[idx] = '0'
		}
		plaintext, err := DecryptSensitiveData(string(tampered), testKey())
		assert.ErrorIs(t, err, core.ErrDecryptAuth)
		assert.Nil(t, plaintext)
	}
}

func TestDecryptRejectsMalformedInput(t *testing.T) {
	for _, input := range []string{
		"",
		"onlyonepart",
		"two:parts",
		"a:b:c:d",
		"zz:aabb:ccdd",
		"deadbeef:aabb:ccdd",
	} {
		_, err := DecryptSensitiveData(input, testKey())
		assert.ErrorIs(t, err, core.ErrInvalidCipher, "input %q", input)
	}
}

func TestCryptoRequires32ByteKey(t *testing.T) {
	_, err := EncryptSensitiveData([]byte("x"), []byte("short"))
	assert.Error(t, err)

	_, err = DecryptSensitiveData("aa:bb:cc", []byte("short"))
	assert.Error(t, err)
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	encrypted, err := EncryptSensitiveData([]byte("secret"), testKey())
	require.NoError(t, err)

	otherKey := []byte("fedcba9876543210fedcba9876543210")
	_, err = DecryptSensitiveData(encrypted, otherKey)
	assert.ErrorIs(t, err, core.ErrDecryptAuth)
}
