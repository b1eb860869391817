package oidc

import (
	"context"
	"errors"
	"fmt"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ErrMissingSubject is returned for tokens without a sub claim.
var ErrMissingSubject = errors.New("token missing subject claim")

// Verifier verifies JWT tokens
type Verifier struct {
	jwksManager *JWKSManager
	issuer      string
	jwksURL     string
}

// NewVerifier creates a verifier for tokens issued by issuer and signed with keys from jwksURL.
func NewVerifier(jwksManager *JWKSManager, issuer, jwksURL string) *Verifier {
	return &Verifier{
		jwksManager: jwksManager,
		issuer:      issuer,
		jwksURL:     jwksURL,
	}
}

// Verify verifies a JWT token and extracts claims. A signature failure with
// cached keys triggers one refetch, so rotated keys are picked up.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	keys, err := v.jwksManager.GetJWKS(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	token, err := v.parse(tokenString, keys)
	if err != nil && !jwt.IsValidationError(err) {
		keys, refreshErr := v.jwksManager.Refresh(ctx, v.jwksURL)
		if refreshErr != nil {
			return nil, fmt.Errorf("failed to parse/verify token: %w", err)
		}
		token, err = v.parse(tokenString, keys)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	if token.Subject() == "" {
		return nil, ErrMissingSubject
	}

	claims := &models.JWTClaims{
		Sub: token.Subject(),
		Iss: token.Issuer(),
	}
	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			claims.Email = emailStr
		}
	}
	if name, ok := token.Get("name"); ok {
		if nameStr, ok := name.(string); ok {
			claims.Name = nameStr
		}
	}

	return claims, nil
}

func (v *Verifier) parse(tokenString string, keys jwk.Set) (jwt.Token, error) {
	return jwt.Parse([]byte(tokenString),
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
	)
}
