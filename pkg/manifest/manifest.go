// Package manifest implements signed identity manifests: short-lived
// Ed25519 JWTs that carry a component's canonical caller identity.
//
// The store core accepts any stable, canonicalizable identity token and
// makes no assumption about how the integrating application produced it.
// This package is one concrete producer for that seam: a build or
// deployment step holds the signing key and issues a manifest per
// component, and the application verifies the manifest at startup and
// registers the recovered identity.
//
//	pub, priv, _ := manifest.GenerateKey()
//	signer := manifest.NewSigner(priv, "build-system", time.Hour)
//	token, _ := signer.Issue("/plugins/y.mod")
//
//	verifier := manifest.NewVerifier(pub, "build-system")
//	identity, _ := verifier.Verify(token)   // "/plugins/y.mod"
package manifest

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"

	"github.com/gobeyondidentity/scopedkv/pkg/access"
)

var (
	// ErrInvalidManifest indicates a manifest that failed to parse or
	// verify against the trusted key.
	ErrInvalidManifest = errors.New("invalid identity manifest")

	// ErrExpiredManifest indicates a manifest outside its validity window.
	ErrExpiredManifest = errors.New("identity manifest expired")
)

// Signer issues identity manifests. The holder of the signing key decides
// which identities exist; keep it out of the components being identified.
type Signer struct {
	key    ed25519.PrivateKey
	issuer string
	ttl    time.Duration
}

// NewSigner creates a Signer. ttl bounds how long an issued manifest
// verifies; zero means one hour.
func NewSigner(key ed25519.PrivateKey, issuer string, ttl time.Duration) *Signer {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &Signer{key: key, issuer: issuer, ttl: ttl}
}

// Issue signs a manifest for identity. The identity is canonicalized
// first, so a manifest can never carry a token the resolver would reject.
func (s *Signer) Issue(identity string) (string, error) {
	canon, err := access.Canonicalize(identity)
	if err != nil {
		return "", err
	}

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.EdDSA, Key: s.key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create signer: %w", err)
	}

	now := time.Now()
	claims := jwt.Claims{
		Issuer:   s.issuer,
		Subject:  canon,
		ID:       uuid.NewString(),
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err := jwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("failed to serialize manifest: %w", err)
	}
	return token, nil
}

// Verifier checks identity manifests against one trusted public key.
type Verifier struct {
	key    ed25519.PublicKey
	issuer string
}

// NewVerifier creates a Verifier that trusts key and requires manifests
// from issuer.
func NewVerifier(key ed25519.PublicKey, issuer string) *Verifier {
	return &Verifier{key: key, issuer: issuer}
}

// Verify parses raw, checks its signature, issuer and validity window, and
// returns the canonical caller identity it carries.
//
// The accepted algorithm is pinned to EdDSA; the manifest's own header
// never selects the verification algorithm.
func (v *Verifier) Verify(raw string) (string, error) {
	tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.EdDSA})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	var claims jwt.Claims
	if err := tok.Claims(v.key, &claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	err = claims.ValidateWithLeeway(jwt.Expected{
		Issuer: v.issuer,
		Time:   time.Now(),
	}, time.Minute)
	switch {
	case errors.Is(err, jwt.ErrExpired):
		return "", ErrExpiredManifest
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidManifest)
	}
	canon, err := access.Canonicalize(claims.Subject)
	if err != nil {
		return "", err
	}
	return canon, nil
}

// GenerateKey creates a fresh Ed25519 manifest signing key pair.
func GenerateKey() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return pub, priv, nil
}
