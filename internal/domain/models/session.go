// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// Role is the role of an authenticated user.
type Role string

// Role constants.
const (
	RoleAdmin        Role = "admin"
	RoleSecretary    Role = "secretary"
	RoleChairman     Role = "chairman"
	RoleRegistrar    Role = "registrar"
	RoleCoordination Role = "coordination"
	RoleMember       Role = "member"
)

// IsValid reports whether the role is known.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleSecretary, RoleChairman, RoleRegistrar, RoleCoordination, RoleMember:
		return true
	}
	return false
}

// Session is the explicit session object for an authenticated user. It is
// created at login, passed by reference to whatever needs it and removed at logout.
type Session struct {
	ID        string    `json:"id" msgpack:"id"`
	UserID    string    `json:"user_id" msgpack:"user_id"`
	Email     string    `json:"email,omitempty" msgpack:"email,omitempty"`
	Role      Role      `json:"role" msgpack:"role"`
	IssuedAt  time.Time `json:"issued_at" msgpack:"issued_at"`
	ExpiresAt time.Time `json:"expires_at" msgpack:"expires_at"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || (!s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt))
}

// HasRole reports whether the session role is one of the given roles.
func (s *Session) HasRole(roles ...Role) bool {
	if s == nil {
		return false
	}
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}
