// Package auth issues and verifies the HS256 access tokens carried by
// clinic staff clients.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hamarchia/ClinicSystem/internal/common"
)

// Staff roles.
const (
	RoleDoctor     = "doctor"
	RoleCompounder = "compounder"
)

// ValidRole reports whether role is one of the known staff roles.
func ValidRole(role string) bool {
	return role == RoleDoctor || role == RoleCompounder
}

// Claims are the registered claims plus the staff role. The user id travels
// in the subject.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// GenerateToken signs a token for userID with the given role that expires
// after validityDuration.
func GenerateToken(userID, role string, secretKey []byte, validityDuration time.Duration) (string, error) {
	if !ValidRole(role) {
		return "", common.Validationf("unknown role %q", role)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Role: role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies tokenString and returns its claims. Expired tokens
// yield common.ErrTokenExpired, everything else common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" || !ValidRole(claims.Role) {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
