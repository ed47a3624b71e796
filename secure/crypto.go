package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/layer-3/mailgate/core"
)

// EncryptSensitiveData encrypts data with AES-256-GCM under a random IV and
// renders the result as iv:tag:ciphertext, hex-joined. Intended for small
// secrets such as stored access credentials, not bulk payloads.
func EncryptSensitiveData(data, key []byte) (string, error) {
	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, aead.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	sealed := aead.Seal(nil, iv, data, nil)
	tagStart := len(sealed) - aead.Overhead()
	body, tag := sealed[:tagStart], sealed[tagStart:]

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(body), nil
}

// DecryptSensitiveData reverses EncryptSensitiveData. It fails closed: any
// tampering with the IV, tag or ciphertext yields core.ErrDecryptAuth and no
// partial plaintext.
func DecryptSensitiveData(encrypted string, key []byte) ([]byte, error) {
	parts := strings.Split(encrypted, ":")
	if len(parts) != 3 {
		return nil, core.ErrInvalidCipher
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return nil, core.ErrInvalidCipher
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return nil, core.ErrInvalidCipher
	}
	body, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, core.ErrInvalidCipher
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != aead.NonceSize() || len(tag) != aead.Overhead() {
		return nil, core.ErrInvalidCipher
	}

	plaintext, err := aead.Open(nil, iv, append(body, tag...), nil)
	if err != nil {
		return nil, core.ErrDecryptAuth
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes for AES-256, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
