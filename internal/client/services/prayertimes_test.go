package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/dmitrijs2005/prayerkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCalendar struct {
	calls   atomic.Int32
	err     error
	release chan struct{}
}

func (f *fakeCalendar) Calendar(ctx context.Context, lat, lon float64, month, year int) ([]models.DayTimes, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	days := make([]models.DayTimes, 31)
	for i := range days {
		days[i] = models.DayTimes{Dawn: fmt.Sprintf("05:%02d", i), Noon: "12:30", Night: fmt.Sprintf("%02d:00", month)}
	}
	return days, nil
}

func newPrayerTimeService(t *testing.T) (*PrayerTimeService, *fakeCalendar) {
	t.Helper()
	src := &fakeCalendar{}
	return NewPrayerTimeService(setupDB(t), src, time.Second, testLogger()), src
}

func TestSetLocation_Validation(t *testing.T) {
	s, _ := newPrayerTimeService(t)
	ctx := context.Background()

	for _, c := range [][2]float64{{91, 0}, {-91, 0}, {0, 181}, {0, -181}} {
		require.ErrorIs(t, s.SetLocation(ctx, c[0], c[1]), common.ErrInvalidLocation)
	}

	require.NoError(t, s.SetLocation(ctx, 21.42, 39.83))
	loc, ok, err := s.Location(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.Location{Latitude: 21.42, Longitude: 39.83}, loc)
}

func TestTodayTimes_NoLocation(t *testing.T) {
	s, src := newPrayerTimeService(t)
	_, ok := s.TodayTimes(context.Background(), time.Now())
	assert.False(t, ok)
	assert.Zero(t, src.calls.Load())
	assert.Empty(t, s.Dawn(context.Background(), time.Now()))
}

func TestTodayTimes_CachesPerMonth(t *testing.T) {
	s, src := newPrayerTimeService(t)
	ctx := context.Background()
	require.NoError(t, s.SetLocation(ctx, 51.5, -0.12))

	march5 := time.Date(2024, 3, 5, 9, 0, 0, 0, time.Local)
	times, ok := s.TodayTimes(ctx, march5)
	require.True(t, ok)
	assert.Equal(t, "05:04", times.Dawn)
	assert.Equal(t, int32(1), src.calls.Load())

	assert.Equal(t, "05:19", s.Dawn(ctx, march5.AddDate(0, 0, 15)))
	assert.Equal(t, int32(1), src.calls.Load(), "same month served from cache")

	april := time.Date(2024, 4, 1, 9, 0, 0, 0, time.Local)
	times, ok = s.TodayTimes(ctx, april)
	require.True(t, ok)
	assert.Equal(t, "04:00", times.Night)
	assert.Equal(t, int32(2), src.calls.Load(), "stale month refetched")
}

func TestSetLocation_DropsCache(t *testing.T) {
	s, src := newPrayerTimeService(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.Local)

	require.NoError(t, s.SetLocation(ctx, 51.5, -0.12))
	_, ok := s.TodayTimes(ctx, now)
	require.True(t, ok)

	require.NoError(t, s.SetLocation(ctx, 40.7, -74))
	_, ok = s.TodayTimes(ctx, now)
	require.True(t, ok)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestTodayTimes_SourceError(t *testing.T) {
	s, src := newPrayerTimeService(t)
	ctx := context.Background()
	require.NoError(t, s.SetLocation(ctx, 51.5, -0.12))
	src.err = errors.New("service unavailable")

	_, ok := s.TodayTimes(ctx, time.Now())
	assert.False(t, ok)

	_, err := s.FetchMonthly(ctx, time.Now())
	require.Error(t, err)
}

func TestFetchMonthly_SharesConcurrentRequests(t *testing.T) {
	s, src := newPrayerTimeService(t)
	ctx := context.Background()
	require.NoError(t, s.SetLocation(ctx, 51.5, -0.12))
	src.release = make(chan struct{})

	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.Local)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := s.FetchMonthly(ctx, now)
			assert.NoError(t, err)
			assert.True(t, m.Matches(2024, 3))
		}()
	}

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
}
