package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestGenerateAndValidate(t *testing.T) {
	token, err := GenerateToken("ops@yasmin", time.Hour, secret)
	require.NoError(t, err)

	subject, err := ValidateToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "ops@yasmin", subject)
}

func TestValidateRejectsWrongSecretAndExpired(t *testing.T) {
	token, err := GenerateToken("ops", time.Hour, secret)
	require.NoError(t, err)
	_, err = ValidateToken(token, []byte("other"))
	assert.Error(t, err)

	expired, err := GenerateToken("ops", time.Nanosecond, secret)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	_, err = ValidateToken(expired, secret)
	assert.Error(t, err)
}

func TestGenerateTokenValidation(t *testing.T) {
	_, err := GenerateToken("", time.Hour, secret)
	assert.Error(t, err)
	_, err = GenerateToken("ops", time.Hour, nil)
	assert.Error(t, err)
	_, err = GenerateToken("ops", 0, secret)
	assert.Error(t, err)
}
