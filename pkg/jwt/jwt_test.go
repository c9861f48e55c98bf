package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-access-secret-key-for-testing-purposes"

func TestNewService(t *testing.T) {
	service := NewService(testSecret, time.Hour)

	assert.NotNil(t, service)
	assert.Equal(t, testSecret, service.secret)
	assert.Equal(t, time.Hour, service.Expiry())
}

func TestGenerateAccessToken(t *testing.T) {
	service := NewService(testSecret, time.Hour)
	userID := uuid.New()

	token, issued, err := service.GenerateAccessToken(userID, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, issued.ID)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, issued.ID, claims.ID)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestGenerateAccessToken_UniqueIDs(t *testing.T) {
	service := NewService(testSecret, time.Hour)
	userID := uuid.New()

	_, a, err := service.GenerateAccessToken(userID, "alice")
	require.NoError(t, err)
	_, b, err := service.GenerateAccessToken(userID, "alice")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestValidateAccessToken(t *testing.T) {
	service := NewService(testSecret, time.Hour)
	token, _, err := service.GenerateAccessToken(uuid.New(), "alice")
	require.NoError(t, err)

	t.Run("Wrong Secret", func(t *testing.T) {
		other := NewService("a-completely-different-secret", time.Hour)
		_, err := other.ValidateAccessToken(token)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrExpired)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := service.ValidateAccessToken("not.a.token")
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		later := NewService(testSecret, time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		_, err := later.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("Unexpected Signing Method", func(t *testing.T) {
		claims := Claims{
			UserID: uuid.New(),
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(unsigned)
		assert.Error(t, err)
	})

	t.Run("Missing Token ID", func(t *testing.T) {
		claims := Claims{
			UserID: uuid.New(),
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = service.ValidateAccessToken(signed)
		assert.ErrorContains(t, err, "missing required claims")
	})
}

func TestExtractClaims(t *testing.T) {
	service := NewService(testSecret, time.Hour)
	userID := uuid.New()

	token, _, err := service.GenerateAccessToken(userID, "bob")
	require.NoError(t, err)

	claims, err := service.ExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "bob", claims.Username)
}
