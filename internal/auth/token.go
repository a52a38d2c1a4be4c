package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt"
)

const (
	userIdClaim   = "user-id"
	usernameClaim = "username"
)

// FromToken extracts identity claims from a login token. The signature
// is not verified; the backend remains the authority on validity, the
// client only reads its own identity out of the payload.
func FromToken(token string) (Credentials, error) {
	parser := &jwt.Parser{}

	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Credentials{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Credentials{}, fmt.Errorf("invalid token claims")
	}

	userId, ok := claims[userIdClaim].(float64)
	if !ok {
		return Credentials{}, fmt.Errorf("invalid user id claim")
	}

	username, _ := claims[usernameClaim].(string)

	return Credentials{
		UserId:   int(userId),
		Username: username,
		Token:    token,
	}, nil
}
