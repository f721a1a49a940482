// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

// TokenValidator validates a bearer token issued by the authentication provider
// and returns the identity it carries.
type TokenValidator interface {
	ValidateBearer(ctx context.Context, bearerToken string) (*models.Session, error)
}
