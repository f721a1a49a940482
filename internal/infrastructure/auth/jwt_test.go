// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

const testSecret = "unit-test-signing-secret-0123456789"

func TestPulseClaims_Validate(t *testing.T) {
	tests := []struct {
		name    string
		claims  PulseClaims
		wantErr string
	}{
		{name: "valid role", claims: PulseClaims{Role: models.RoleSecretary}},
		{name: "missing role", claims: PulseClaims{}, wantErr: "role must be provided"},
		{name: "unknown role", claims: PulseClaims{Role: "janitor"}, wantErr: "unknown role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.claims.Validate(context.Background())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewJWTAuth(t *testing.T) {
	t.Run("shared secret", func(t *testing.T) {
		auth, err := NewJWTAuth(JWTAuthConfig{SigningSecret: testSecret})
		require.NoError(t, err)
		assert.NotNil(t, auth.validator)
		assert.Equal(t, defaultIssuer, auth.config.Issuer)
		assert.Equal(t, defaultAudience, auth.config.Audience)
	})

	t.Run("default JWKS URL", func(t *testing.T) {
		auth, err := NewJWTAuth(JWTAuthConfig{})
		require.NoError(t, err)
		assert.Equal(t, defaultJWKSURL, auth.config.JWKSURL)
	})

	t.Run("invalid JWKS URL", func(t *testing.T) {
		_, err := NewJWTAuth(JWTAuthConfig{JWKSURL: "://invalid-url"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid JWKS URL")
	})
}

func TestJWTAuth_ValidateBearer(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	auth, err := NewJWTAuth(JWTAuthConfig{SigningSecret: testSecret})
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		token, err := MintToken(testSecret, TokenRequest{
			Subject: "user-42",
			Email:   "secretary@pec.org.pk",
			Role:    models.RoleSecretary,
			TTL:     time.Hour,
		}, now)
		require.NoError(t, err)

		session, err := auth.ValidateBearer(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "user-42", session.UserID)
		assert.Equal(t, "secretary@pec.org.pk", session.Email)
		assert.Equal(t, models.RoleSecretary, session.Role)
		assert.WithinDuration(t, now.Add(time.Hour), session.ExpiresAt, 2*time.Second)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := MintToken("another-secret-entirely-0123456789", TokenRequest{
			Subject: "user-42",
			Role:    models.RoleAdmin,
		}, now)
		require.NoError(t, err)

		_, err = auth.ValidateBearer(ctx, token)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeUnauthorized, domain.GetErrorType(err))
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := MintToken(testSecret, TokenRequest{
			Subject: "user-42",
			Role:    models.RoleAdmin,
			TTL:     time.Hour,
		}, now.Add(-3*time.Hour))
		require.NoError(t, err)

		_, err = auth.ValidateBearer(ctx, token)
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeUnauthorized, domain.GetErrorType(err))
	})

	t.Run("wrong audience", func(t *testing.T) {
		token, err := MintToken(testSecret, TokenRequest{
			Subject:  "user-42",
			Role:     models.RoleAdmin,
			Audience: "someone-else",
		}, now)
		require.NoError(t, err)

		_, err = auth.ValidateBearer(ctx, token)
		require.Error(t, err)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := auth.ValidateBearer(ctx, "not-a-jwt")
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeUnauthorized, domain.GetErrorType(err))
	})
}

func TestJWTAuth_MockLocalRole(t *testing.T) {
	auth, err := NewJWTAuth(JWTAuthConfig{SigningSecret: testSecret, MockLocalRole: string(models.RoleCoordination)})
	require.NoError(t, err)

	session, err := auth.ValidateBearer(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, mockLocalPrincipal, session.UserID)
	assert.Equal(t, models.RoleCoordination, session.Role)
}

func TestJWTAuth_ValidatorNotSetUp(t *testing.T) {
	auth := &JWTAuth{}

	_, err := auth.ValidateBearer(context.Background(), "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT validator is not set up")
	assert.Equal(t, domain.ErrorTypeUnavailable, domain.GetErrorType(err))
}

func TestMintToken_Errors(t *testing.T) {
	now := time.Now()

	_, err := MintToken("", TokenRequest{Subject: "a", Role: models.RoleAdmin}, now)
	assert.Error(t, err)

	_, err = MintToken(testSecret, TokenRequest{Role: models.RoleAdmin}, now)
	assert.Error(t, err)

	_, err = MintToken(testSecret, TokenRequest{Subject: "a", Role: "nobody"}, now)
	assert.Error(t, err)
}
