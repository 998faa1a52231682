package service

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSigningKey = "test-signing-key"

func newOperatorAuth(t *testing.T, password string) *AuthService {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	svc, err := NewAuthService(AuthOptions{Username: "operator", PasswordHash: hash, SigningKey: testSigningKey})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return svc
}

// --- HashPassword tests ---

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cr3t")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "s3cr3t" {
		t.Errorf("expected hashed password not equal to raw password")
	}
	if err := verifyPassword(hash, "s3cr3t"); err != nil {
		t.Errorf("hash does not verify with original password: %v", err)
	}
	if _, err := HashPassword("   "); err == nil {
		t.Fatalf("expected error for empty password, got nil")
	}
}

// --- GenerateToken tests ---

func TestAuthService_GenerateToken_Success(t *testing.T) {
	svc := newOperatorAuth(t, "letmein")

	token, err := svc.GenerateToken("operator", "letmein")
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	sub, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if sub != "operator" {
		t.Fatalf("expected subject 'operator' from token, got %q", sub)
	}
}

func TestAuthService_GenerateToken_UserNotFound(t *testing.T) {
	svc := newOperatorAuth(t, "pw")

	_, err := svc.GenerateToken("ghost", "pw")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got: %v", err)
	}
}

func TestAuthService_GenerateToken_InvalidPassword(t *testing.T) {
	svc := newOperatorAuth(t, "correct")

	_, err := svc.GenerateToken("operator", "wrong")
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got: %v", err)
	}
}

func TestAuthService_GenerateToken_DisabledWithoutHash(t *testing.T) {
	svc, err := NewAuthService(AuthOptions{Username: "operator"})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	if _, err := svc.GenerateToken("operator", ""); !errors.Is(err, ErrSignInDisabled) {
		t.Fatalf("expected ErrSignInDisabled, got: %v", err)
	}
}

// --- ParseToken tests ---

func TestAuthService_ParseToken_RandomKeyPerInstance(t *testing.T) {
	hash, _ := HashPassword("pw")
	a, _ := NewAuthService(AuthOptions{Username: "operator", PasswordHash: hash})
	b, _ := NewAuthService(AuthOptions{Username: "operator", PasswordHash: hash})

	token, err := a.GenerateToken("operator", "pw")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := a.ParseToken(token); err != nil {
		t.Fatalf("ParseToken on issuer: %v", err)
	}
	if _, err := b.ParseToken(token); err == nil {
		t.Fatalf("token accepted by an instance with a different key")
	}
}

func TestAuthService_ParseToken_Malformed(t *testing.T) {
	svc := newOperatorAuth(t, "pw")
	if _, err := svc.ParseToken("not-a-jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestAuthService_ParseToken_InvalidSignature(t *testing.T) {
	svc := newOperatorAuth(t, "pw")

	now := time.Now()
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	badToken, err := tk.SignedString([]byte("different-key"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	if _, err := svc.ParseToken(badToken); err == nil {
		t.Fatalf("expected signature verification error")
	}
}

func TestAuthService_ParseToken_Expired(t *testing.T) {
	svc := newOperatorAuth(t, "pw")

	past := time.Now().Add(-2 * time.Hour)
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator",
			ExpiresAt: jwt.NewNumericDate(past),
			IssuedAt:  jwt.NewNumericDate(past.Add(-time.Minute)),
		},
	})
	expiredToken, err := tk.SignedString([]byte(testSigningKey))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	if _, err := svc.ParseToken(expiredToken); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestAuthService_ParseToken_MissingSubject(t *testing.T) {
	svc := newOperatorAuth(t, "pw")

	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	s, _ := tk.SignedString([]byte(testSigningKey))
	if _, err := svc.ParseToken(s); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_ParseToken_UnexpectedAlg(t *testing.T) {
	svc := newOperatorAuth(t, "pw")

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	tk := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "operator",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tokenStr, err := tk.SignedString(privateKey)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	if _, err := svc.ParseToken(tokenStr); err == nil {
		t.Fatalf("expected error due to unexpected signing method")
	}
}
