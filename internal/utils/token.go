package utils // package utils provides helpers for token issuance and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
)

// Token purposes. Both credentials are HS256 JWTs signed with distinct
// secrets; the purpose claim keeps a refresh token from ever passing as
// an access token (or the reverse) even if the secrets were reused.
const (
	PurposeAccess  = "access"
	PurposeRefresh = "refresh"
)

var (
	// ErrInvalidToken covers a malformed, mis-signed or expired token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongPurpose is returned when a structurally valid token is
	// presented for the wrong flow.
	ErrWrongPurpose = errors.New("token purpose mismatch")
)

// Claims is the fixed credential payload. Everything a token may carry
// is declared here; verification rejects payloads that do not fit this
// schema instead of exposing an open claim map to callers.
type Claims struct {
	UserID  uint64 `json:"uid"`
	Role    string `json:"role"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Token bundles a signed credential with its expiration so handlers can
// mirror the expiry onto the cookie Max-Age.
type Token struct {
	Value string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs the short-lived access credential.
// The TTL is expressed in minutes to match the configuration surface.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (Token, error) {
	return newToken(secret, userID, role, PurposeAccess, time.Duration(ttlMin)*time.Minute)
}

// NewRefreshToken builds and signs the long-lived refresh credential.
func NewRefreshToken(secret string, userID uint64, role string, ttlDays int) (Token, error) {
	return newToken(secret, userID, role, PurposeRefresh, time.Duration(ttlDays)*24*time.Hour)
}

func newToken(secret string, userID uint64, role, purpose string, ttl time.Duration) (Token, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		UserID:  userID,
		Role:    role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, Exp: exp}, nil
}

// VerifyToken checks signature, expiry and purpose, returning the typed
// claims on success. The signing method is pinned to HMAC so a token
// with an "alg" of none or RS256 can never pass.
func VerifyToken(secret, raw, purpose string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}
