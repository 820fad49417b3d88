// Package token issues and parses the signed tokens that carry a request's
// subject claim. Verification is stateless: no session state is persisted.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token type claims distinguish the two halves of a pair.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// ErrInvalidToken covers malformed, expired and badly signed input.
var ErrInvalidToken = errors.New("token: invalid")

// Subject is the JSON payload stored in the token's subject field.
type Subject struct {
	ID int64 `json:"id"`
}

// Pair bundles a freshly issued access and refresh token.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a process-wide secret.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec constructs a Codec. TTLs fall back to 60 minutes for access and
// 15 days for refresh tokens when unset.
func NewCodec(secret string, accessTTL, refreshTTL time.Duration) *Codec {
	if accessTTL <= 0 {
		accessTTL = 60 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 15 * 24 * time.Hour
	}
	return &Codec{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// IssuePair issues an access/refresh token pair for the given user.
func (c *Codec) IssuePair(userID int64) (Pair, error) {
	access, err := c.issue(userID, TypeAccess, c.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := c.issue(userID, TypeRefresh, c.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (c *Codec) issue(userID int64, tokenType string, ttl time.Duration) (string, error) {
	subject, err := json.Marshal(Subject{ID: userID})
	if err != nil {
		return "", err
	}
	now := time.Now()
	cl := claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(subject),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.secret)
}

// ParseAccess validates an access token and returns its subject claim.
func (c *Codec) ParseAccess(raw string) (Subject, error) {
	return c.parse(raw, TypeAccess)
}

// ParseRefresh validates a refresh token and returns its subject claim.
func (c *Codec) ParseRefresh(raw string) (Subject, error) {
	return c.parse(raw, TypeRefresh)
}

func (c *Codec) parse(raw, wantType string) (Subject, error) {
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Subject{}, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}
	cl, ok := parsed.Claims.(*claims)
	if !ok || cl.TokenType != wantType {
		return Subject{}, ErrInvalidToken
	}
	var subject Subject
	if err := json.Unmarshal([]byte(cl.Subject), &subject); err != nil || subject.ID == 0 {
		return Subject{}, ErrInvalidToken
	}
	return subject, nil
}
