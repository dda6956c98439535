package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret  = errors.New("jwt: secret vacío")
	ErrInvalidToken = errors.New("jwt: token inválido")
)

// Identity usuario autenticado. Role vacío es válido aquí; RequireRole lo rechaza.
type Identity struct {
	UserID string
	Role   string // admin | aprobador | bodeguero | solicitante
}

type claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Generate firma un token HS256 para id que vence en ttl.
func Generate(secret string, id Identity, issuer string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: id.UserID,
		Role:   id.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// Parse valida firma y vencimiento. Si el token no trae user_id se usa sub.
func Parse(secret, token string) (Identity, error) {
	if secret == "" {
		return Identity{}, ErrEmptySecret
	}
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id := Identity{UserID: c.UserID, Role: c.Role}
	if id.UserID == "" {
		id.UserID = c.Subject
	}
	if id.UserID == "" {
		return Identity{}, fmt.Errorf("%w: sin usuario", ErrInvalidToken)
	}
	return id, nil
}
