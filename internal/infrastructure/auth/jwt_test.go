package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "lexledger-test",
	})
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	svc := newTestJWTService()
	firmID := uuid.New()
	input := GenerateTokenInput{
		UserID:   uuid.New(),
		LawyerID: uuid.New(),
		FirmID:   &firmID,
	}

	token, expiresAt, err := svc.GenerateAccessToken(input)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Minute)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, input.LawyerID.String(), claims.LawyerID)
	assert.Equal(t, firmID.String(), claims.FirmID)
	assert.False(t, claims.Departed)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	svc := newTestJWTService()
	token, _, err := svc.GenerateAccessToken(GenerateTokenInput{
		UserID:   uuid.New(),
		LawyerID: uuid.New(),
	})
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:                "completely-different-secret-32char",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "lexledger-test",
	})

	_, err = other.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: -time.Minute,
		Issuer:                "lexledger-test",
	})
	token, _, err := svc.GenerateAccessToken(GenerateTokenInput{
		UserID:   uuid.New(),
		LawyerID: uuid.New(),
	})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	svc := newTestJWTService()
	_, err := svc.ValidateAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaimsCallerContext(t *testing.T) {
	t.Run("solo practitioner", func(t *testing.T) {
		svc := newTestJWTService()
		input := GenerateTokenInput{UserID: uuid.New(), LawyerID: uuid.New()}
		token, _, err := svc.GenerateAccessToken(input)
		require.NoError(t, err)

		claims, err := svc.ValidateAccessToken(token)
		require.NoError(t, err)

		caller, err := claims.CallerContext()
		require.NoError(t, err)
		assert.Equal(t, input.UserID, caller.UserID)
		assert.Equal(t, input.LawyerID, caller.Scope.LawyerID)
		assert.Nil(t, caller.Scope.FirmID)
	})

	t.Run("firm member carries firm scope", func(t *testing.T) {
		svc := newTestJWTService()
		firmID := uuid.New()
		input := GenerateTokenInput{UserID: uuid.New(), LawyerID: uuid.New(), FirmID: &firmID}
		token, _, err := svc.GenerateAccessToken(input)
		require.NoError(t, err)

		claims, err := svc.ValidateAccessToken(token)
		require.NoError(t, err)

		caller, err := claims.CallerContext()
		require.NoError(t, err)
		require.NotNil(t, caller.Scope.FirmID)
		assert.Equal(t, firmID, *caller.Scope.FirmID)
	})

	t.Run("departed flag survives the round trip", func(t *testing.T) {
		svc := newTestJWTService()
		input := GenerateTokenInput{UserID: uuid.New(), LawyerID: uuid.New(), Departed: true}
		token, _, err := svc.GenerateAccessToken(input)
		require.NoError(t, err)

		claims, err := svc.ValidateAccessToken(token)
		require.NoError(t, err)

		caller, err := claims.CallerContext()
		require.NoError(t, err)
		assert.True(t, caller.Departed)
		assert.Error(t, caller.AuthorizeFinancial())
	})
}
