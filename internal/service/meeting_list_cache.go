// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/araza-32/pec-pulse-sub000/internal/domain"
	"github.com/araza-32/pec-pulse-sub000/internal/domain/models"
)

// DefaultMeetingListRefresh bounds how stale a cached meeting list may be.
const DefaultMeetingListRefresh = 60 * time.Second

// MeetingListCache serves the meeting list used as the comparison set for
// conflict detection. Entries older than the refresh interval are refetched,
// and every local mutation invalidates the cache immediately.
type MeetingListCache struct {
	repo    domain.MeetingRepository
	refresh time.Duration
	now     func() time.Time

	group singleflight.Group

	mu         sync.RWMutex
	meetings   []*models.ScheduledMeeting
	fetchedAt  time.Time
	generation uint64
	loaded     bool
}

// NewMeetingListCache creates a cache over the repository. A non-positive
// refresh interval disables caching.
func NewMeetingListCache(repo domain.MeetingRepository, refresh time.Duration) *MeetingListCache {
	return &MeetingListCache{
		repo:    repo,
		refresh: refresh,
		now:     time.Now,
	}
}

// List returns a snapshot of the meeting list. Callers may not mutate the
// returned meetings.
func (c *MeetingListCache) List(ctx context.Context) ([]*models.ScheduledMeeting, error) {
	c.mu.RLock()
	if c.loaded && c.refresh > 0 && c.now().Sub(c.fetchedAt) < c.refresh {
		meetings := append([]*models.ScheduledMeeting(nil), c.meetings...)
		c.mu.RUnlock()
		return meetings, nil
	}
	generation := c.generation
	c.mu.RUnlock()

	v, err, _ := c.group.Do("list", func() (any, error) {
		meetings, err := c.repo.List(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		// an invalidation during the fetch means the result may predate a mutation
		if c.generation == generation {
			c.meetings = meetings
			c.fetchedAt = c.now()
			c.loaded = true
		}
		c.mu.Unlock()

		slog.DebugContext(ctx, "meeting list refreshed", "meetings", len(meetings))
		return meetings, nil
	})
	if err != nil {
		return nil, err
	}

	return append([]*models.ScheduledMeeting(nil), v.([]*models.ScheduledMeeting)...), nil
}

// Invalidate drops the cached list so the next List call refetches it.
func (c *MeetingListCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.loaded = false
	c.meetings = nil
}
