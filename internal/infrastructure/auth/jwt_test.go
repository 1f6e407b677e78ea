package auth

import (
	"testing"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		Issuer:                "test-issuer",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func newTestInput() GenerateTokenInput {
	tenantID := uuid.New()
	return GenerateTokenInput{
		SessionID: uuid.New(),
		TenantID:  &tenantID,
		UserID:    uuid.New(),
		Role:      "Admin",
	}
}

func TestNewJWTService(t *testing.T) {
	cfg := config.JWTConfig{Secret: "s", Issuer: "i", AccessTokenExpiration: time.Minute}

	svc := NewJWTService(cfg)

	assert.Equal(t, []byte("s"), svc.secret)
	assert.Equal(t, "i", svc.issuer)
	assert.Equal(t, time.Minute, svc.Expiration())
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	token, err := svc.GenerateToken(input)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.True(t, token.ExpiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)

	tenantID, ok := claims.GetTenantUUID()
	assert.True(t, ok)
	assert.Equal(t, *input.TenantID, tenantID)
	userID, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, input.UserID, userID)
	sessionID, err := claims.GetSessionUUID()
	require.NoError(t, err)
	assert.Equal(t, input.SessionID, sessionID)
	assert.Equal(t, "Admin", claims.Role)
}

func TestGenerate_PlatformTokenHasNoTenant(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()
	input.TenantID = nil
	input.Role = "Super_Admin"

	token, err := svc.GenerateToken(input)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	_, ok := claims.GetTenantUUID()
	assert.False(t, ok)
}

func TestGenerate_MissingSecret(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Issuer: "x", AccessTokenExpiration: time.Minute})

	_, err := svc.GenerateToken(newTestInput())

	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestValidate_Expired(t *testing.T) {
	svc := newTestJWTService()
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := svc.GenerateToken(newTestInput())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token.AccessToken)

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidate_WrongSecret(t *testing.T) {
	token, err := newTestJWTService().GenerateToken(newTestInput())
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "another-secret", Issuer: "test-issuer", AccessTokenExpiration: time.Minute})
	_, err = other.ValidateToken(token.AccessToken)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_WrongIssuer(t *testing.T) {
	token, err := newTestJWTService().GenerateToken(newTestInput())
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "elsewhere", AccessTokenExpiration: time.Minute})
	_, err = other.ValidateToken(token.AccessToken)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{UserID: uuid.New().String()}
	claims.Issuer = "test-issuer"
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateToken(unsigned)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_MissingUserID(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{}
	claims.Issuer = "test-issuer"
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Minute))
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.secret)
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)

	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestValidate_Garbage(t *testing.T) {
	_, err := newTestJWTService().ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
