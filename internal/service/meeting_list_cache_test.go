// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/araza-32/pec-pulse-sub000/internal/domain/mocks"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

func TestMeetingListCache_ServesWithinRefreshInterval(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MockMeetingRepository{}
	meetings := []*models.ScheduledMeeting{{UID: "m-1"}}
	repo.On("List", mock.Anything).Return(meetings, nil).Once()

	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	cache := NewMeetingListCache(repo, time.Minute)
	cache.now = func() time.Time { return now }

	first, err := cache.List(ctx)
	require.NoError(t, err)
	second, err := cache.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, meetings, first)
	assert.Equal(t, meetings, second)
	repo.AssertNumberOfCalls(t, "List", 1)
}

func TestMeetingListCache_RefetchesWhenStale(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MockMeetingRepository{}
	repo.On("List", mock.Anything).Return([]*models.ScheduledMeeting{{UID: "m-1"}}, nil).Once()
	repo.On("List", mock.Anything).Return([]*models.ScheduledMeeting{{UID: "m-1"}, {UID: "m-2"}}, nil).Once()

	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	cache := NewMeetingListCache(repo, time.Minute)
	cache.now = func() time.Time { return now }

	_, err := cache.List(ctx)
	require.NoError(t, err)

	now = now.Add(61 * time.Second)
	meetings, err := cache.List(ctx)
	require.NoError(t, err)

	assert.Len(t, meetings, 2)
	repo.AssertExpectations(t)
}

func TestMeetingListCache_InvalidateForcesRefetch(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MockMeetingRepository{}
	repo.On("List", mock.Anything).Return([]*models.ScheduledMeeting{}, nil).Once()
	repo.On("List", mock.Anything).Return([]*models.ScheduledMeeting{{UID: "m-new"}}, nil).Once()

	cache := NewMeetingListCache(repo, time.Hour)

	empty, err := cache.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	cache.Invalidate()

	meetings, err := cache.List(ctx)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "m-new", meetings[0].UID)
	repo.AssertExpectations(t)
}

func TestMeetingListCache_PropagatesErrors(t *testing.T) {
	repo := &mocks.MockMeetingRepository{}
	repo.On("List", mock.Anything).Return(nil, errors.New("kv down")).Once()

	cache := NewMeetingListCache(repo, time.Minute)

	meetings, err := cache.List(context.Background())
	assert.Error(t, err)
	assert.Nil(t, meetings)
}

func TestMeetingListCache_SnapshotIsIsolated(t *testing.T) {
	repo := &mocks.MockMeetingRepository{}
	repo.On("List", mock.Anything).Return([]*models.ScheduledMeeting{{UID: "m-1"}, {UID: "m-2"}}, nil).Once()
	cache := NewMeetingListCache(repo, time.Hour)

	first, err := cache.List(context.Background())
	require.NoError(t, err)
	first[0] = nil

	second, err := cache.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, second[0])
	assert.Equal(t, "m-1", second[0].UID)
}
