// Package auth holds the stateless token codec. Tokens are HS256 JWTs that carry the
// subject and role set fixed at issue time; nothing about them is stored server-side.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fitness-tracker/internal/model"
)

// TokenTTL is the fixed validity window of every issued token.
const TokenTTL = 10 * time.Hour

// Claims is the decoded content of a token.
type Claims struct {
	Subject   string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret []byte
	parser *jwt.Parser
}

func NewCodec(secret string) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}

	return &Codec{
		secret: []byte(secret),
		// Expiry is judged by IsExpired against the caller's clock.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
		),
	}, nil
}

// Encode signs subject and roles with issued-at now and expiry now+TokenTTL.
// Output is deterministic for equal inputs at second granularity.
func (c *Codec) Encode(subject string, roles []string, now time.Time) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("encode token: %w", model.ErrInvalidInput)
	}

	issued := now.UTC().Truncate(time.Second)
	claims := tokenClaims{
		Roles: append([]string(nil), roles...),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(TokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and structure. Every failure is model.ErrInvalidToken.
func (c *Codec) Decode(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, model.ErrInvalidToken
	}

	var parsed tokenClaims
	_, err := c.parser.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", model.ErrInvalidToken, err)
	}

	if parsed.Subject == "" || parsed.IssuedAt == nil || parsed.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: missing registered claims", model.ErrInvalidToken)
	}

	return Claims{
		Subject:   parsed.Subject,
		Roles:     parsed.Roles,
		IssuedAt:  parsed.IssuedAt.Time.UTC(),
		ExpiresAt: parsed.ExpiresAt.Time.UTC(),
	}, nil
}

// IsExpired reports whether now has reached the token's expiry.
func IsExpired(claims Claims, now time.Time) bool {
	return !now.Before(claims.ExpiresAt)
}
