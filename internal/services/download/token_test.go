package download

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewTokenServiceRejectsEmptySecret(t *testing.T) {
	if _, err := NewTokenService("", time.Minute); err != ErrMissingSecret {
		t.Fatalf("error = %v, want ErrMissingSecret", err)
	}
}

func TestNewTokenServiceDefaultsDuration(t *testing.T) {
	svc, err := NewTokenService("secret", 0)
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}
	if svc.duration != DefaultTokenDuration {
		t.Fatalf("duration = %v, want %v", svc.duration, DefaultTokenDuration)
	}
}

func TestIssueThenVerifyRoundTrips(t *testing.T) {
	svc, err := NewTokenService("secret", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}
	token, err := svc.Issue("job-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	jobID, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if jobID != "job-1" {
		t.Fatalf("jobID = %q, want job-1", jobID)
	}
}

func TestVerifyRejectsTokenSignedWithDifferentSecret(t *testing.T) {
	svc1, _ := NewTokenService("secret-a", time.Minute)
	svc2, _ := NewTokenService("secret-b", time.Minute)

	token, err := svc1.Issue("job-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := svc2.Verify(token); err != ErrInvalidToken {
		t.Fatalf("error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc, _ := NewTokenService("secret", time.Millisecond)
	token, err := svc.Issue("job-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := svc.Verify(token); err != ErrExpiredToken {
		t.Fatalf("error = %v, want ErrExpiredToken", err)
	}
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	svc, _ := NewTokenService("secret", time.Minute)
	if _, err := svc.Verify("not-a-jwt"); err != ErrInvalidToken {
		t.Fatalf("error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsNonHMACSigningMethod(t *testing.T) {
	svc, _ := NewTokenService("secret", time.Minute)
	claims := Claims{
		JobID: "job-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			Issuer:    "casugen",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	if _, err := svc.Verify(signed); err != ErrInvalidToken {
		t.Fatalf("error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	svc, _ := NewTokenService("secret", time.Minute)
	claims := Claims{
		JobID: "job-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			Issuer:    "someone-else",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(svc.secret)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	if _, err := svc.Verify(signed); err != ErrInvalidToken {
		t.Fatalf("error = %v, want ErrInvalidToken", err)
	}
}
