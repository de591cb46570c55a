package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/yakoovad/committee-engine/internal/model"
)

type TokenClaims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 tokens carrying the caller principal.
// The subject claim holds the user id.
type Tokens struct {
	secret []byte
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret)}
}

func (t *Tokens) GenerateToken(p model.Principal, dur time.Duration) (string, error) {
	claims := TokenClaims{
		Role: p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(dur)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *Tokens) VerifyToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Wrap(ErrInvalidSigningMethod, token.Header["alg"].(string))
		}
		return t.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// Principal verifies the token and extracts the caller it was issued to.
func (t *Tokens) Principal(tokenString string) (model.Principal, error) {
	claims, err := t.VerifyToken(tokenString)
	if err != nil {
		return model.Principal{}, err
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return model.Principal{}, errors.Wrap(ErrInvalidToken, "subject is not a user id")
	}

	switch claims.Role {
	case model.RoleAdmin, model.RoleUser:
	default:
		return model.Principal{}, errors.Wrap(ErrInvalidRole, string(claims.Role))
	}

	return model.Principal{ID: id, Role: claims.Role}, nil
}
