package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenMalformed = errors.New("token malformed")
)

// Claims carried by every issued token.
type Claims struct {
	UID   int    `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService mints and checks bearer tokens. There is no server-side
// revocation: a token stays valid for its whole TTL.
type TokenService interface {
	Issue(userID int, email string) (string, error)
	Validate(tokenString string) (*Claims, error)
	Refresh(tokenString string) (string, error)
}

type tokenService struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	audience string
}

func NewTokenService(secret string, ttl time.Duration, issuer, audience string) TokenService {
	return &tokenService{
		secret:   []byte(secret),
		ttl:      ttl,
		issuer:   issuer,
		audience: audience,
	}
}

func (s *tokenService) Issue(userID int, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UID:   userID,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *tokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// HMAC only
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignature
		default:
			return nil, ErrTokenMalformed
		}
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// Refresh re-issues from a currently valid token. Not a separate
// refresh-token flow: same uid/email, fresh iat/exp.
func (s *tokenService) Refresh(tokenString string) (string, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return "", err
	}
	return s.Issue(claims.UID, claims.Email)
}
