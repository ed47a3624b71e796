package secure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMACRoundTrip(t *testing.T) {
	key := []byte("webhook-signing-key")
	data := []byte(`{"event":"dispatched"}`)

	sig := CreateHMAC(data, key)
	assert.Len(t, sig, 64)
	assert.True(t, VerifyHMAC(data, sig, key))
}

func TestHMACRejectsTampering(t *testing.T) {
	key := []byte("webhook-signing-key")
	data := []byte("payload")
	sig := CreateHMAC(data, key)

	assert.False(t, VerifyHMAC([]byte("payloae"), sig, key))
	assert.False(t, VerifyHMAC(data, sig, []byte("other-key")))
	assert.False(t, VerifyHMAC(data, "not hex", key))
	assert.False(t, VerifyHMAC(data, "", key))
}

func TestHMACIsDeterministic(t *testing.T) {
	key := []byte("k")
	assert.Equal(t, CreateHMAC([]byte("x"), key), CreateHMAC([]byte("x"), key))
	assert.NotEqual(t, CreateHMAC([]byte("x"), key), CreateHMAC([]byte("y"), key))
}
