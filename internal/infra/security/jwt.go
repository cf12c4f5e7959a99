package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("security: invalid token")
	ErrRoleDenied   = errors.New("security: role not permitted")
)

const RoleAdmin = "admin"

// TokenManager issues and verifies HS256 tokens for the admin API.
type TokenManager struct {
	Secret []byte
}

type Claims struct {
	Subject string
	Role    string
}

// Issue signs a token carrying the subject and role; mostly used by ops
// tooling and tests.
func (m TokenManager) Issue(subject, role string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})
	return t.SignedString(m.Secret)
}

// Parse verifies the signature and expiry and extracts the claims.
func (m TokenManager) Parse(raw string) (Claims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("security: unexpected signing method %v", t.Header["alg"])
		}
		return m.Secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrTokenInvalid
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrTokenInvalid
	}
	claims := Claims{}
	if sub, ok := mc["sub"].(string); ok {
		claims.Subject = sub
	}
	if role, ok := mc["role"].(string); ok {
		claims.Role = role
	}
	return claims, nil
}

// RequireRole parses the token and checks its role claim.
func (m TokenManager) RequireRole(raw, role string) (Claims, error) {
	claims, err := m.Parse(raw)
	if err != nil {
		return Claims{}, err
	}
	if claims.Role != role {
		return Claims{}, ErrRoleDenied
	}
	return claims, nil
}
