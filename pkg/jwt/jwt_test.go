package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestGenerateAndValidate(t *testing.T) {
	userID := uuid.New()
	token, err := GenerateToken(secret, userID, "Ayu", "Toko Ayu", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "Ayu", claims.Name)
	assert.Equal(t, "Toko Ayu", claims.ShopName)
	assert.Equal(t, issuer, claims.Issuer)
}

func TestValidateToken_Rejects(t *testing.T) {
	userID := uuid.New()

	expired, err := GenerateToken(secret, userID, "", "", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(secret, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	valid, err := GenerateToken(secret, userID, "", "", time.Hour)
	require.NoError(t, err)
	_, err = ValidateToken([]byte("other-secret"), valid)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ValidateToken(secret, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	anonymous, err := GenerateToken(secret, uuid.Nil, "", "", time.Hour)
	require.NoError(t, err)
	_, err = ValidateToken(secret, anonymous)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateToken_EmptySecret(t *testing.T) {
	_, err := GenerateToken(nil, uuid.New(), "", "", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}
