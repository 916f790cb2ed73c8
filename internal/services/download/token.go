// Package download issues and verifies short-lived download tokens for
// completed job output files: a single secret/duration/claim shape since
// downloads need neither a refresh token nor role claims.
package download

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenDuration is how long a download link stays valid after issue.
const DefaultTokenDuration = 10 * time.Minute

var (
	ErrInvalidToken  = errors.New("invalid download token")
	ErrExpiredToken  = errors.New("download token has expired")
	ErrMissingSecret = errors.New("download token secret is not configured")
)

// Claims identifies which job's output a token grants access to.
type Claims struct {
	JobID string `json:"job_id"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies per-job download tokens.
type TokenService struct {
	secret   []byte
	duration time.Duration
	issuer   string
}

func NewTokenService(secret string, duration time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if duration == 0 {
		duration = DefaultTokenDuration
	}
	return &TokenService{secret: []byte(secret), duration: duration, issuer: "casugen"}, nil
}

// Issue produces a signed, time-boxed token scoped to one job_id.
func (s *TokenService) Issue(jobID string) (string, error) {
	now := time.Now()
	claims := Claims{
		JobID: jobID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   jobID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks a token's signature and expiry and returns the job_id it
// grants access to.
func (s *TokenService) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Issuer != s.issuer {
		return "", ErrInvalidToken
	}

	return claims.JobID, nil
}
