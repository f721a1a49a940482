// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRole_IsValid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleSecretary, RoleChairman, RoleRegistrar, RoleCoordination, RoleMember} {
		assert.True(t, r.IsValid(), string(r))
	}
	assert.False(t, Role("guest").IsValid())
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	assert.True(t, (*Session)(nil).Expired(now))
	assert.False(t, (&Session{}).Expired(now))
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now}).Expired(now))
}

func TestSession_HasRole(t *testing.T) {
	s := &Session{Role: RoleSecretary}
	assert.True(t, s.HasRole(RoleAdmin, RoleSecretary))
	assert.False(t, s.HasRole(RoleAdmin))
	assert.False(t, (*Session)(nil).HasRole(RoleAdmin))
}

func TestMeetingMinutes_ActionCounts(t *testing.T) {
	m := &MeetingMinutes{ActionItems: []ActionItem{
		{Status: ActionItemStatusPending},
		{Status: ActionItemStatusCompleted},
		{Status: ActionItemStatusInProgress},
	}}
	agreed, completed := m.ActionCounts()
	assert.Equal(t, 3, agreed)
	assert.Equal(t, 1, completed)
}

func TestWorkbody_Matches(t *testing.T) {
	w := &Workbody{Name: "Education Committee", Description: "Accreditation of programs"}
	assert.True(t, w.Matches(""))
	assert.True(t, w.Matches("education"))
	assert.True(t, w.Matches("ACCREDITATION"))
	assert.False(t, w.Matches("registration"))
}
