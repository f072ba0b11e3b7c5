package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/schedule"
)

type steppingClock struct{ now time.Time }

func (c *steppingClock) Now() time.Time { return c.now }

func TestAds_DismissHidesUntilDeadline(t *testing.T) {
	clock := &steppingClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewAdsService(schedule.NewScheduler(clock))

	assert.True(t, svc.Visible("u1"))

	until, err := svc.Dismiss("u1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(time.Hour), until)
	assert.False(t, svc.Visible("u1"))
	assert.True(t, svc.Visible("u2"), "suppression is per user")

	clock.now = clock.now.Add(time.Hour)
	assert.True(t, svc.Visible("u1"))
}

func TestAds_DismissDefaultsAndLimits(t *testing.T) {
	clock := &steppingClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewAdsService(schedule.NewScheduler(clock))

	until, err := svc.Dismiss("u1", 0)
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(DefaultDialogSnooze), until)

	_, err = svc.Dismiss("u1", -time.Minute)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
