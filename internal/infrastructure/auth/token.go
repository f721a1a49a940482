// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

// TokenRequest describes a development token.
type TokenRequest struct {
	Subject  string
	Email    string
	Role     models.Role
	Issuer   string
	Audience string
	TTL      time.Duration
}

// MintToken signs an HS256 token that JWTAuth accepts when configured with the same secret.
func MintToken(secret string, req TokenRequest, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("signing secret is required")
	}
	if req.Subject == "" {
		return "", errors.New("subject is required")
	}
	if !req.Role.IsValid() {
		return "", errors.New("a valid role is required")
	}
	if req.Issuer == "" {
		req.Issuer = defaultIssuer
	}
	if req.Audience == "" {
		req.Audience = defaultAudience
	}
	if req.TTL <= 0 {
		req.TTL = time.Hour
	}

	claims := jwt.MapClaims{
		"iss":  req.Issuer,
		"sub":  req.Subject,
		"aud":  []string{req.Audience},
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  now.Add(req.TTL).Unix(),
		"role": string(req.Role),
	}
	if req.Email != "" {
		claims["email"] = req.Email
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
