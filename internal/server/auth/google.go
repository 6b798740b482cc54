package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dpavlovs/artfeed/internal/common"
)

// FederatedIdentity is what a verified Google ID token asserts about a user.
type FederatedIdentity struct {
	SubjectID string
	Email     string
	Name      string
}

// IdentityVerifier validates a third-party identity assertion and extracts a
// stable subject id, email, and display name.
type IdentityVerifier interface {
	Verify(ctx context.Context, assertion string) (*FederatedIdentity, error)
}

const (
	googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
	jwksCacheTTL  = time.Hour
)

var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// GoogleVerifier validates Google ID tokens against Google's published JWKS.
// Keys are cached and refetched after jwksCacheTTL or on an unknown kid.
type GoogleVerifier struct {
	audience   string
	jwksURL    string
	httpClient *http.Client

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewGoogleVerifier constructs a verifier for the given OAuth client id
// (the expected "aud" claim).
func NewGoogleVerifier(audience string) *GoogleVerifier {
	return &GoogleVerifier{
		audience:   audience,
		jwksURL:    googleJWKSURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type googleClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Verify checks the assertion's signature, issuer, audience, and expiry.
// Every failure surfaces as common.ErrInvalidFederatedAssertion; the core
// never trusts client-supplied identity claims without this step.
func (v *GoogleVerifier) Verify(ctx context.Context, assertion string) (*FederatedIdentity, error) {
	claims := &googleClaims{}
	token, err := jwt.ParseWithClaims(assertion, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid header")
		}
		return v.signingKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidFederatedAssertion, err)
	}

	issuerOK := false
	for _, iss := range googleIssuers {
		if claims.Issuer == iss {
			issuerOK = true
			break
		}
	}
	if !issuerOK || claims.Subject == "" {
		return nil, common.ErrInvalidFederatedAssertion
	}

	return &FederatedIdentity{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
	}, nil
}

func (v *GoogleVerifier) signingKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if key, ok := v.keys[kid]; ok && time.Since(v.fetchedAt) < jwksCacheTTL {
		return key, nil
	}
	if err := v.refreshKeysLocked(ctx); err != nil {
		return nil, err
	}
	key, ok := v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return key, nil
}

type jwksDoc struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (v *GoogleVerifier) refreshKeysLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks fetch: %s", resp.Status)
	}

	var doc jwksDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return err
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := parseRSAKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("jwks fetch: no usable keys")
	}
	v.keys = keys
	v.fetchedAt = time.Now()
	return nil
}

func parseRSAKey(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, err
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(new(big.Int).SetBytes(eb).Int64()),
	}, nil
}
