package secure

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pinClock(t *testing.T, at time.Time) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = orig })
}

func TestTwoFactorSetup(t *testing.T) {
	tf := NewTwoFactor("mailgate")

	setup, err := tf.Setup("alice@example.org")
	require.NoError(t, err)

	assert.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.QRCodePayload, "otpauth://totp/")
	assert.Contains(t, setup.QRCodePayload, "mailgate")
	assert.Len(t, setup.BackupCodes, 10)

	// The manual entry key is the secret, grouped in fours.
	assert.Equal(t, setup.Secret, strings.ReplaceAll(setup.ManualEntryKey, " ", ""))
	for _, group := range strings.Split(setup.ManualEntryKey, " ") {
		assert.LessOrEqual(t, len(group), 4)
	}
}

func TestTwoFactorVerify(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	pinClock(t, at)

	tf := NewTwoFactor("mailgate")
	setup, err := tf.Setup("alice@example.org")
	require.NoError(t, err)

	code, err := totp.GenerateCode(setup.Secret, at)
	require.NoError(t, err)

	assert.True(t, tf.Verify(code, setup.Secret))
	assert.False(t, tf.Verify("000000", setup.Secret))
	assert.False(t, tf.Verify(code, "JBSWY3DPEHPK3PXP"))
	assert.False(t, tf.Verify("", setup.Secret))
}

func TestTwoFactorVerifyAllowsOnePeriodOfSkew(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	pinClock(t, at)

	tf := NewTwoFactor("mailgate")
	setup, err := tf.Setup("alice@example.org")
	require.NoError(t, err)

	previous, err := totp.GenerateCode(setup.Secret, at.Add(-30*time.Second))
	require.NoError(t, err)
	assert.True(t, tf.Verify(previous, setup.Secret))

	stale, err := totp.GenerateCode(setup.Secret, at.Add(-90*time.Second))
	require.NoError(t, err)
	assert.False(t, tf.Verify(stale, setup.Secret))
}
