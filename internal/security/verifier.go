package security

import (
	"crypto"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	membershipdomain "reliefbase/backend/internal/membership/domain"
)

var (
	ErrTokenInvalid = errors.New("security: token invalid")
	ErrTokenExpired = errors.New("security: token expired")
)

// AccessClaims is the payload reliefbase expects in externally-issued access
// tokens. Token issuance lives in the auth service; this module only verifies.
type AccessClaims struct {
	OrgID        int64  `json:"org_id"`
	MembershipID int64  `json:"membership_id"`
	Role         string `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject, or 0 when absent or malformed.
func (c *AccessClaims) UserID() int64 {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// Verifier validates access tokens against a configured public key.
type Verifier struct {
	pub      crypto.PublicKey
	issuer   string
	audience string
}

// NewVerifier parses the public key (inline PEM or file path) and returns a
// Verifier bound to the expected issuer and audience.
func NewVerifier(publicKey, issuer, audience string) (*Verifier, error) {
	pub, err := ParsePublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	if KeyAlg(pub) == "" {
		return nil, ErrInvalidKey
	}
	return &Verifier{pub: pub, issuer: issuer, audience: audience}, nil
}

// Verify parses and validates a raw token string and returns its claims.
func (v *Verifier) Verify(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return v.pub, nil },
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.MembershipID == 0 || claims.OrgID == 0 {
		return nil, ErrTokenInvalid
	}
	if !membershipdomain.Role(claims.Role).Valid() {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
