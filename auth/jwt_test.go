package auth

import (
	"discovery-tracker-api/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJWT_RoundTripWithLateLoadedSecret(t *testing.T) {
	// the secret arrives after package init, as it does when .env is read
	// during bootstrap
	config.AppConfig.JWTSecret = "round-trip-secret"

	token, err := GenerateJWT("alice@test.com", true)
	assert.NoError(t, err)

	parsed, err := VerifyJWT(token)
	assert.NoError(t, err)

	username, isAdmin, err := GetDataFromToken(parsed)
	assert.NoError(t, err)
	assert.Equal(t, "alice@test.com", username)
	assert.True(t, isAdmin)
}

func TestJWT_RejectsTokenSignedWithDifferentSecret(t *testing.T) {
	config.AppConfig.JWTSecret = "old-secret"
	token, err := GenerateJWT("alice@test.com", false)
	assert.NoError(t, err)

	config.AppConfig.JWTSecret = "rotated-secret"
	_, err = VerifyJWT(token)
	assert.Error(t, err)
}
