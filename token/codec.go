// Package token encodes and decodes the bearer tokens handed out at login.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	TokenInvalidErr = errors.New("invalid token")
	EmptySecretErr  = errors.New("empty signing secret")
)

// Claims are the session claims embedded in every token. The session ID ties
// the token to the live session record; the client IP pins it to the address
// that logged in.
type Claims struct {
	UserID    int64  `json:"userId"`
	SessionID string `json:"sessionId"`
	ClientIP  string `json:"clientIp"`
	GroupID   int    `json:"group_id"`
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 tokens with a shared secret.
type Codec struct {
	secret  []byte
	ttl     time.Duration
	nowTime func() time.Time
}

type Option func(*Codec)

// WithNowTime injects the clock, used by tests to step time.
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Codec) {
		c.nowTime = nowFunc
	}
}

func NewCodec(secret string, ttl time.Duration, options ...Option) (*Codec, error) {
	if secret == "" {
		return nil, EmptySecretErr
	}
	c := &Codec{
		secret:  []byte(secret),
		ttl:     ttl,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// TTL returns the token lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Encode signs a token for the session.
func (c *Codec) Encode(userID int64, sessionID, clientIP string, groupID int) (string, error) {
	now := c.nowTime()
	claims := &Claims{
		UserID:    userID,
		SessionID: sessionID,
		ClientIP:  clientIP,
		GroupID:   groupID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", errors.Wrap(err, "[Encode] SignedString")
	}
	return signed, nil
}

// Decode verifies the signature and expiry and returns the claims. Any
// failure, including an unexpected signing method, comes back as
// TokenInvalidErr.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.nowTime),
	)
	if err != nil || !parsed.Valid {
		return nil, TokenInvalidErr
	}
	return claims, nil
}
