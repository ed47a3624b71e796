package secure

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// CreateHMAC signs data with HMAC-SHA256 and returns the hex signature.
func CreateHMAC(data, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC reports whether signature is a valid HMAC-SHA256 over data.
// The comparison is constant-time.
func VerifyHMAC(data []byte, signature string, key []byte) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return hmac.Equal(mac.Sum(nil), expected)
}
