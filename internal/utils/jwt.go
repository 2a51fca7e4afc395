package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "ADMIN"

type AdminToken struct {
	Token string
	Exp   time.Time
}

// NewAdminToken signs an HS256 token carrying the ADMIN role.
func NewAdminToken(secret string, ttl time.Duration, now time.Time) (AdminToken, error) {
	exp := now.UTC().Add(ttl)
	claims := jwt.MapClaims{
		"sub":  "admin",
		"role": RoleAdmin,
		"exp":  exp.Unix(),
		"iat":  now.UTC().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AdminToken{}, err
	}
	return AdminToken{Token: signed, Exp: exp}, nil
}

var ErrNotAdmin = errors.New("token does not carry the admin role")

// ParseAdminToken validates signature, expiry and role.
func ParseAdminToken(secret, raw string) error {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || claims["role"] != RoleAdmin {
		return ErrNotAdmin
	}
	return nil
}
