package auth

import (
	"errors"

	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/server/authz"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the claims read from a bearer token issued by an external
// identity provider. The subject names the caller.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// TokenVerifier checks HS256 bearer tokens. It never issues tokens.
type TokenVerifier struct {
	secretKey []byte
}

func NewTokenVerifier(secretKey []byte) *TokenVerifier {
	return &TokenVerifier{secretKey: secretKey}
}

// Principal validates tokenString and returns the caller it describes.
func (v *TokenVerifier) Principal(tokenString string) (authz.Principal, error) {
	if len(v.secretKey) == 0 {
		return authz.Principal{}, common.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return authz.Principal{}, common.ErrTokenExpired
		}
		return authz.Principal{}, common.ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return authz.Principal{}, common.ErrInvalidToken
	}

	return authz.NewPrincipal(claims.Subject, claims.Roles...), nil
}
