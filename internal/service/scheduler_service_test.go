package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("06:30")
	require.NoError(t, err)
	assert.Equal(t, "0 30 6 * * *", spec)

	for _, bad := range []string{"6", "24:00", "12:60", "ab:cd", "1:2:3"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestSchedulerService_ScheduleSpec(t *testing.T) {
	s := NewSchedulerService(time.UTC)
	_, err := s.ScheduleSpec("0 0 22 * * *", func() {})
	require.NoError(t, err)
	_, err = s.ScheduleSpec("22:00", func() {})
	require.NoError(t, err)
	_, err = s.ScheduleSpec("not a spec at all", func() {})
	assert.Error(t, err)
	_, err = s.ScheduleInterval(0, func() {})
	assert.Error(t, err)
}
