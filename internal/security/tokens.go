package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired, or otherwise invalid.
	ErrInvalidToken = errors.New("invalid token")
)

// Roles carried in session tokens. Route guards check these.
const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

// SessionClaims holds JWT claims for the session token issued after two-factor verification.
type SessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
	UID  string `json:"uid"`
}

// TokenProvider issues and validates HS256 session tokens.
type TokenProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenProvider returns a TokenProvider that signs with the given shared secret.
// issuer is set on claims and validated on parse.
func NewTokenProvider(secret []byte, issuer string, ttl time.Duration) *TokenProvider {
	return &TokenProvider{secret: secret, issuer: issuer, ttl: ttl}
}

// Issue issues a session JWT with the given subject (email), role, and entity id.
// Returns the token string and its expiration time.
func (p *TokenProvider) Issue(email, role, uid string) (token string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	expiresAt = now.Add(p.ttl)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: role,
		UID:  uid,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(p.secret)
	return token, expiresAt, err
}

// Validate parses and validates a session token (signature, exp, iss).
// Returns email (subject), role, and uid, or ErrInvalidToken.
func (p *TokenProvider) Validate(tokenString string) (email, role, uid string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil {
		return "", "", "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return "", "", "", ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return "", "", "", ErrInvalidToken
	}
	return claims.Subject, claims.Role, claims.UID, nil
}
