// Package auth implements the credential primitives of the authentication
// core: the signed-token codec, the password hasher, and the Google
// federated-identity verifier.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dpavlovs/artfeed/internal/common"
)

// TokenType distinguishes the two halves of a token pair.
type TokenType string

const (
	TypeAccess  TokenType = "ACCESS"
	TypeRefresh TokenType = "REFRESH"
)

// Claims is the signed payload of every artfeed token. RefreshID is set on
// ACCESS tokens only and names the jti of the paired REFRESH token, so that
// revoking an access token can revoke its refresh token too.
type Claims struct {
	jwt.RegisteredClaims
	Type      TokenType `json:"type"`
	RefreshID string    `json:"refreshJti,omitempty"`
}

// UserID returns the numeric subject of the token.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, common.ErrMalformedToken
	}
	return id, nil
}

// Codec signs and verifies compact HS256 tokens with a process-wide secret.
// The secret is injected at construction and never read from ambient state.
type Codec struct {
	secret []byte
}

// NewCodec constructs a Codec around the given HMAC secret.
func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret}
}

// NewAccessClaims builds the claims for an access token paired with the
// refresh token identified by refreshJTI.
func NewAccessClaims(userID int64, jti, refreshJTI string, ttl time.Duration) *Claims {
	return newClaims(userID, jti, ttl, TypeAccess, refreshJTI)
}

// NewRefreshClaims builds the claims for a refresh token.
func NewRefreshClaims(userID int64, jti string, ttl time.Duration) *Claims {
	return newClaims(userID, jti, ttl, TypeRefresh, "")
}

func newClaims(userID int64, jti string, ttl time.Duration, typ TokenType, refreshJTI string) *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Type:      typ,
		RefreshID: refreshJTI,
	}
}

// Sign produces the compact signed form of the claims.
func (c *Codec) Sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify parses and validates a token string. It returns
// common.ErrTokenExpired, common.ErrBadSignature, or common.ErrMalformedToken
// depending on what failed; claims from a failed Verify must not be used.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, common.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, common.ErrBadSignature
		default:
			return nil, common.ErrMalformedToken
		}
	}
	if !token.Valid {
		return nil, common.ErrBadSignature
	}
	return claims, nil
}

// Decode parses the payload WITHOUT verifying the signature. It exists so the
// engine can look up the revocation ledger by jti before trust is
// established; decoded claims carry no authority until Verify succeeds.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, common.ErrMalformedToken
	}
	return claims, nil
}
