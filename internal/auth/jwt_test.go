package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTService_EmptySecret(t *testing.T) {
	_, err := NewJWTService("")
	assert.Error(t, err)
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc, err := NewJWTService("test-secret")
	require.NoError(t, err)

	userID := uuid.New()
	before := time.Now()

	token, err := svc.CreateToken(userID, "harsh@gmail.com", 7*24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)

	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "harsh@gmail.com", claims.Email)
	assert.WithinDuration(t, before, claims.IssuedAt, 5*time.Second)
	assert.WithinDuration(t, claims.IssuedAt.Add(7*24*time.Hour), claims.ExpiresAt, time.Second)
}

// TestJWTService_SevenDayBoundary checks a 7-day token against verification
// clocks 6 and 8 days after issuance.
func TestJWTService_SevenDayBoundary(t *testing.T) {
	secret := "test-secret"
	svc, err := NewJWTService(secret)
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), "harsh@gmail.com", 7*24*time.Hour)
	require.NoError(t, err)

	parseAt := func(at time.Time) error {
		_, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithTimeFunc(func() time.Time { return at }))
		return err
	}

	assert.NoError(t, parseAt(time.Now().Add(6*24*time.Hour)))

	err = parseAt(time.Now().Add(8 * 24 * time.Hour))
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTService_Expired(t *testing.T) {
	svc, err := NewJWTService("test-secret")
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), "harsh@gmail.com", -time.Hour)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_WrongSecret(t *testing.T) {
	svc, err := NewJWTService("secret-one")
	require.NoError(t, err)

	other, err := NewJWTService("secret-two")
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), "harsh@gmail.com", time.Hour)
	require.NoError(t, err)

	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_Garbage(t *testing.T) {
	svc, err := NewJWTService("test-secret")
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.VerifyToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

// Tokens signed with "none" or an asymmetric algorithm must be rejected
// even when their payload is well-formed.
func TestJWTService_RejectsUnexpectedAlg(t *testing.T) {
	svc, err := NewJWTService("test-secret")
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: uuid.NewString(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
