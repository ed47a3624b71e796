package secure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureToken(t *testing.T) {
	tok, err := GenerateSecureToken(16)
	require.NoError(t, err)
	assert.Len(t, tok, 32)

	_, err = GenerateSecureToken(0)
	assert.Error(t, err)
	_, err = GenerateSecureToken(-1)
	assert.Error(t, err)
}

func TestSessionTokenShape(t *testing.T) {
	tok, err := GenerateSessionToken()
	require.NoError(t, err)
	assert.Len(t, tok, 128)
	assert.True(t, ValidTokenShape(tok))

	refresh, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.True(t, ValidTokenShape(refresh))
	assert.NotEqual(t, tok, refresh)
}

func TestValidTokenShape(t *testing.T) {
	valid := strings.Repeat("0123456789abcdef", 8)
	assert.True(t, ValidTokenShape(valid))

	assert.False(t, ValidTokenShape(""))
	assert.False(t, ValidTokenShape(valid[:127]))
	assert.False(t, ValidTokenShape(valid+"00"))
	assert.False(t, ValidTokenShape(strings.ToUpper(valid)))
	assert.False(t, ValidTokenShape(valid[:127]+"g"))
}
