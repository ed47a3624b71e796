package secure

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// timeNow is swapped out in tests to pin the TOTP clock.
var timeNow = time.Now

const defaultBackupCodeCount = 10

// TwoFactorSetup is everything a client needs to finish TOTP enrollment.
type TwoFactorSetup struct {
	Secret         string   `json:"secret"`
	QRCodePayload  string   `json:"qr_code_payload"` // otpauth:// URL for QR rendering
	BackupCodes    []string `json:"backup_codes"`
	ManualEntryKey string   `json:"manual_entry_key"` // secret grouped for hand entry
}

// TwoFactor issues and verifies TOTP credentials for one issuer.
type TwoFactor struct {
	issuer string
}

// NewTwoFactor creates a TOTP service labelled with issuer.
func NewTwoFactor(issuer string) *TwoFactor {
	return &TwoFactor{issuer: issuer}
}

// Setup enrolls account: it generates a fresh TOTP secret plus a set of
// one-time backup codes. The returned backup codes are plaintext; the caller
// must store only their hashes (HashBackupCodes) and show the plaintext to
// the user exactly once.
func (t *TwoFactor) Setup(account string) (*TwoFactorSetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      t.issuer,
		AccountName: account,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp key: %w", err)
	}

	codes, err := GenerateBackupCodes(defaultBackupCodeCount)
	if err != nil {
		return nil, err
	}

	return &TwoFactorSetup{
		Secret:         key.Secret(),
		QRCodePayload:  key.URL(),
		BackupCodes:    codes,
		ManualEntryKey: groupSecret(key.Secret()),
	}, nil
}

// Verify reports whether code is currently valid for secret, allowing one
// period of clock skew either way.
func (t *TwoFactor) Verify(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, timeNow(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// groupSecret chunks the base32 secret into blocks of four for manual entry.
func groupSecret(secret string) string {
	var b strings.Builder
	for i, r := range secret {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
