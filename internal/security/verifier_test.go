package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testKeyPair(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return priv, string(pubPEM)
}

func signToken(t *testing.T, priv *ecdsa.PrivateKey, claims *AccessClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(priv)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func baseClaims() *AccessClaims {
	return &AccessClaims{
		OrgID:        7,
		MembershipID: 42,
		Role:         "collaborator",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "11",
			Issuer:    "reliefbase-auth",
			Audience:  jwt.ClaimStrings{"reliefbase-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerifierAcceptsValidToken(t *testing.T) {
	priv, pub := testKeyPair(t)
	v, err := NewVerifier(pub, "reliefbase-auth", "reliefbase-api")
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	got, err := v.Verify(signToken(t, priv, baseClaims()))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.UserID() != 11 || got.OrgID != 7 || got.MembershipID != 42 || got.Role != "collaborator" {
		t.Fatalf("unexpected claims: %+v", got)
	}
}

func TestVerifierRejectsExpiredToken(t *testing.T) {
	priv, pub := testKeyPair(t)
	v, _ := NewVerifier(pub, "reliefbase-auth", "reliefbase-api")

	claims := baseClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	if _, err := v.Verify(signToken(t, priv, claims)); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifierRejectsWrongIssuer(t *testing.T) {
	priv, pub := testKeyPair(t)
	v, _ := NewVerifier(pub, "reliefbase-auth", "reliefbase-api")

	claims := baseClaims()
	claims.Issuer = "someone-else"
	if _, err := v.Verify(signToken(t, priv, claims)); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifierRejectsWrongKey(t *testing.T) {
	priv, _ := testKeyPair(t)
	_, otherPub := testKeyPair(t)
	v, _ := NewVerifier(otherPub, "reliefbase-auth", "reliefbase-api")

	if _, err := v.Verify(signToken(t, priv, baseClaims())); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifierRejectsIncompleteClaims(t *testing.T) {
	priv, pub := testKeyPair(t)
	v, _ := NewVerifier(pub, "reliefbase-auth", "reliefbase-api")

	claims := baseClaims()
	claims.MembershipID = 0
	if _, err := v.Verify(signToken(t, priv, claims)); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for missing membership, got %v", err)
	}

	claims = baseClaims()
	claims.Role = "superuser"
	if _, err := v.Verify(signToken(t, priv, claims)); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for unknown role, got %v", err)
	}
}

func TestNewVerifierRejectsGarbageKey(t *testing.T) {
	if _, err := NewVerifier("not a key", "iss", "aud"); err == nil {
		t.Fatal("expected error for invalid key material")
	}
}
