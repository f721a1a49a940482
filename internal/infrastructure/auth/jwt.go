// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package auth validates the bearer tokens exchanged for pulse sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
	"github.com/araza-32/pec-pulse-sub000/internal/logging"
)

const (
	// defaultIssuer is the issuer expected when none is configured.
	defaultIssuer = "pulse-auth"
	// defaultAudience is the audience expected when none is configured.
	defaultAudience = "pulse-api"
	// defaultJWKSURL is the JWKS endpoint used when neither a JWKS URL nor a secret is configured.
	defaultJWKSURL = "http://pulse-auth:4457/.well-known/jwks"
	// jwksCacheTTL is how long fetched signing keys are kept.
	jwksCacheTTL = 5 * time.Minute
	// allowedClockSkew tolerates small clock differences with the issuer.
	allowedClockSkew = time.Minute
	// mockLocalPrincipal is the user id given to the local mock session.
	mockLocalPrincipal = "local-dev"
)

// PulseClaims are the custom claims carried by pulse tokens.
type PulseClaims struct {
	Email string      `json:"email,omitempty"`
	Name  string      `json:"name,omitempty"`
	Role  models.Role `json:"role"`
}

// Validate checks that the token carries a known role.
func (c *PulseClaims) Validate(_ context.Context) error {
	if c.Role == "" {
		return errors.New("role must be provided")
	}
	if !c.Role.IsValid() {
		return fmt.Errorf("unknown role %q", c.Role)
	}
	return nil
}

// JWTAuthConfig configures token validation. A SigningSecret selects HS256,
// otherwise tokens are verified as RS256 against the JWKS URL.
type JWTAuthConfig struct {
	JWKSURL       string
	SigningSecret string
	Issuer        string
	Audience      string
	// MockLocalRole disables validation and grants every token this role. Local development only.
	MockLocalRole string
}

// JWTAuth validates bearer tokens.
type JWTAuth struct {
	validator *validator.Validator
	config    JWTAuthConfig
}

// NewJWTAuth creates a new JWTAuth from the configuration.
func NewJWTAuth(config JWTAuthConfig) (*JWTAuth, error) {
	if config.Issuer == "" {
		config.Issuer = defaultIssuer
	}
	if config.Audience == "" {
		config.Audience = defaultAudience
	}

	var (
		keyFunc   func(context.Context) (interface{}, error)
		algorithm validator.SignatureAlgorithm
	)
	if config.SigningSecret != "" {
		secret := []byte(config.SigningSecret)
		keyFunc = func(context.Context) (interface{}, error) { return secret, nil }
		algorithm = validator.HS256
	} else {
		if config.JWKSURL == "" {
			config.JWKSURL = defaultJWKSURL
		}
		jwksURL, err := url.Parse(config.JWKSURL)
		if err != nil {
			return nil, fmt.Errorf("invalid JWKS URL: %w", err)
		}
		issuerURL, err := url.Parse(config.Issuer)
		if err != nil {
			return nil, fmt.Errorf("invalid issuer: %w", err)
		}
		provider := jwks.NewCachingProvider(issuerURL, jwksCacheTTL, jwks.WithCustomJWKSURI(jwksURL))
		keyFunc = provider.KeyFunc
		algorithm = validator.RS256
	}

	jwtValidator, err := validator.New(
		keyFunc,
		algorithm,
		config.Issuer,
		[]string{config.Audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &PulseClaims{}
		}),
		validator.WithAllowedClockSkew(allowedClockSkew),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up the JWT validator: %w", err)
	}

	return &JWTAuth{
		validator: jwtValidator,
		config:    config,
	}, nil
}

// ValidateBearer validates the token and returns the identity it carries as
// an unsaved session. Expired, malformed or wrongly signed tokens are
// unauthorized errors.
func (j *JWTAuth) ValidateBearer(ctx context.Context, token string) (*models.Session, error) {
	if j.config.MockLocalRole != "" {
		role := models.Role(j.config.MockLocalRole)
		slog.WarnContext(ctx, "JWT validation disabled, using mock local session", "role", role)
		return &models.Session{UserID: mockLocalPrincipal, Role: role}, nil
	}

	if j.validator == nil {
		slog.ErrorContext(ctx, "JWT validator is not set up", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("JWT validator is not set up")
	}

	parsed, err := j.validator.ValidateToken(ctx, token)
	if err != nil {
		slog.WarnContext(ctx, "token validation failed", logging.ErrKey, err)
		return nil, domain.NewUnauthorizedError("invalid or expired token", err)
	}

	claims, ok := parsed.(*validator.ValidatedClaims)
	if !ok {
		return nil, domain.NewUnauthorizedError("unexpected token claims")
	}
	custom, ok := claims.CustomClaims.(*PulseClaims)
	if !ok {
		return nil, domain.NewUnauthorizedError("unexpected token claims")
	}
	if claims.RegisteredClaims.Subject == "" {
		return nil, domain.NewUnauthorizedError("token has no subject")
	}

	session := &models.Session{
		UserID: claims.RegisteredClaims.Subject,
		Email:  custom.Email,
		Role:   custom.Role,
	}
	if claims.RegisteredClaims.Expiry > 0 {
		session.ExpiresAt = time.Unix(claims.RegisteredClaims.Expiry, 0).UTC()
	}
	return session, nil
}
