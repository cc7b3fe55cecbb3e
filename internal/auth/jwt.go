package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the identity-provider claims the journal reads. Subject is the user id.
type Claims struct {
	Email string `json:"email,omitempty"`

	jwt.RegisteredClaims
}

// Verifier checks HS256 bearer tokens issued by the identity provider.
type Verifier struct {
	Secret []byte
	Issuer string
}

func (v Verifier) Verify(token string) (Claims, error) {
	if len(v.Secret) == 0 {
		return Claims{}, errors.New("jwt secret not configured")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.Secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, err
	}
	c, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if strings.TrimSpace(c.Subject) == "" {
		return Claims{}, errors.New("token has no subject")
	}
	return *c, nil
}
