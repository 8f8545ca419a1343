// Package auth implements the stateless session token and password
// hashing. A session is a signed HS256 JWT carrying the authenticated
// identity; there is no server-side session table.
package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie that carries the encoded token.
const SessionCookieName = "session"

var (
	// ErrInvalidSession covers malformed tokens, bad signatures, and
	// missing claims.
	ErrInvalidSession = errors.New("invalid session")
	// ErrExpiredSession is returned for a well-signed token past its
	// expiry claim.
	ErrExpiredSession = errors.New("expired session")
)

// Session is the authenticated identity carried by a token.
type Session struct {
	UserID   int64
	Username string
}

type sessionClaims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenCodec encodes and decodes session tokens with a shared HMAC
// secret.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured token lifetime, also used for the cookie
// max-age.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Encode signs a token for the session, expiring after the codec TTL.
func (c *TokenCodec) Encode(s Session) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		UserID:   s.UserID,
		Username: s.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode validates a token and returns the session it carries. A client
// cannot forge or alter the identity without the secret.
func (c *TokenCodec) Decode(token string) (Session, error) {
	claims := &sessionClaims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, ErrExpiredSession
		}
		return Session{}, ErrInvalidSession
	}
	if !tok.Valid || claims.UserID == 0 || claims.Username == "" {
		return Session{}, ErrInvalidSession
	}
	return Session{UserID: claims.UserID, Username: claims.Username}, nil
}
