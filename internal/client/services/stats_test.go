package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRecords models.RecordSet

func (s staticRecords) GetAllRecords(context.Context) models.RecordSet {
	return models.RecordSet(s)
}

func statsFixture() models.RecordSet {
	return models.RecordSet{
		"2024-03-09": {Dawn: status(models.StatusOnTime), Noon: status(models.StatusMakeup)},
		"2024-03-04": {Night: status(models.StatusOnTime)},
		"2024-02-20": {Dawn: status(models.StatusMakeup)},
		"2023-06-01": models.NewVoluntaryRecord(4),
		"2022-01-01": {Sunset: status(models.StatusOnTime)},
		"bogus":      {Dawn: status(models.StatusOnTime)},
	}
}

func TestCount_All(t *testing.T) {
	c := Count(statsFixture(), time.Time{})
	assert.Equal(t, 3, c.OnTime, "invalid dates are ignored")
	assert.Equal(t, 2, c.Makeup)
	assert.Equal(t, 4, c.Voluntary)
	assert.Equal(t, 5, c.Total())
	assert.Equal(t, models.SlotCounts{OnTime: 1, Makeup: 1}, c.PerSlot[models.SlotDawn])
}

func TestCount_SinceIsExclusive(t *testing.T) {
	since := time.Date(2024, 3, 3, 0, 0, 0, 0, time.Local)
	c := Count(statsFixture(), since)
	assert.Equal(t, 2, c.OnTime)
	assert.Equal(t, 1, c.Makeup)
}

func TestSummary(t *testing.T) {
	s := NewStatsService(staticRecords(statsFixture()))
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)

	sum := s.Summary(context.Background(), now)
	assert.Equal(t, 5, sum.Overall.Total())
	assert.Equal(t, 4, sum.LastYear.Total())
	assert.Equal(t, 4, sum.LastYear.Voluntary)
	assert.Equal(t, 4, sum.LastMonth.Total())
	assert.Equal(t, 3, sum.LastWeek.Total())
	assert.Zero(t, sum.LastWeek.Voluntary)
}

func TestDetail(t *testing.T) {
	s := NewStatsService(staticRecords(statsFixture()))
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)
	ctx := context.Background()

	set, c, err := s.Detail(ctx, now, models.RangeWeek)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2024-03-09", "2024-03-04"}, set.Dates())
	assert.Equal(t, 3, c.Total())

	set, _, err = s.Detail(ctx, now, models.RangeMonth)
	require.NoError(t, err)
	assert.Len(t, set, 3)

	_, _, err = s.Detail(ctx, now, models.Range("decade"))
	require.Error(t, err)
}
