package auth

import (
	"discovery-tracker-api/internal/config"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// secretKey reads the signing key per call so a secret loaded from .env after
// package init still takes effect.
func secretKey() []byte {
	return []byte(config.AppConfig.JWTSecret)
}

const sessionTTL = time.Hour * 24 * 3

// SessionTTL is how long a login session and its token stay valid.
func SessionTTL() time.Duration {
	return sessionTTL
}

func GenerateJWT(username string, isAdmin bool) (string, error) {
	claims := jwt.MapClaims{
		"sub":   username,
		"admin": isAdmin,
		"exp":   time.Now().Add(sessionTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

func VerifyJWT(tokenString string) (*jwt.Token, error) {
	jwtToken, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return secretKey(), nil
	})

	if err != nil {
		return nil, err
	}

	if !jwtToken.Valid {
		return nil, errors.New("token invalid")
	}

	return jwtToken, nil
}

// GetDataFromToken extracts the username and admin flag claims
func GetDataFromToken(token *jwt.Token) (string, bool, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false, errors.New("invalid claims")
	}

	username, ok := claims["sub"].(string)
	if !ok || username == "" {
		return "", false, errors.New("missing subject claim")
	}

	isAdmin, _ := claims["admin"].(bool)
	return username, isAdmin, nil
}
