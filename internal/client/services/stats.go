package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
)

type recordReader interface {
	GetAllRecords(ctx context.Context) models.RecordSet
}

// StatsService aggregates records over time windows.
type StatsService struct {
	records recordReader
}

func NewStatsService(records recordReader) *StatsService {
	return &StatsService{records: records}
}

// Count totals the records dated strictly after since. A zero since
// counts everything. Keys that are not valid dates are ignored.
func Count(set models.RecordSet, since time.Time) models.Counts {
	c := models.Counts{PerSlot: make(map[models.Slot]models.SlotCounts, len(models.Slots))}
	for date, rec := range set {
		d, err := models.ParseDate(date)
		if err != nil || (!since.IsZero() && !d.After(since)) {
			continue
		}
		for _, slot := range models.Slots {
			st, ok := rec.Get(slot)
			if !ok {
				continue
			}
			sc := c.PerSlot[slot]
			switch st {
			case models.StatusOnTime:
				c.OnTime++
				sc.OnTime++
			case models.StatusMakeup:
				c.Makeup++
				sc.Makeup++
			}
			c.PerSlot[slot] = sc
		}
		c.Voluntary += rec.VoluntaryUnits()
	}
	return c
}

// Summary computes overall, last-year, last-month and last-week counts.
func (s *StatsService) Summary(ctx context.Context, now time.Time) models.Summary {
	set := s.records.GetAllRecords(ctx)
	return models.Summary{
		Overall:   Count(set, time.Time{}),
		LastYear:  Count(set, now.AddDate(-1, 0, 0)),
		LastMonth: Count(set, now.AddDate(0, -1, 0)),
		LastWeek:  Count(set, now.AddDate(0, 0, -7)),
	}
}

func rangeStart(now time.Time, rng models.Range) (time.Time, error) {
	switch rng {
	case models.RangeWeek:
		return now.AddDate(0, 0, -7), nil
	case models.RangeMonth:
		return now.AddDate(0, -1, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unknown range %q", rng)
	}
}

// Detail returns the records inside the window together with their counts.
func (s *StatsService) Detail(ctx context.Context, now time.Time, rng models.Range) (models.RecordSet, models.Counts, error) {
	since, err := rangeStart(now, rng)
	if err != nil {
		return nil, models.Counts{}, err
	}
	set := s.records.GetAllRecords(ctx)
	out := make(models.RecordSet)
	for date, rec := range set {
		d, err := models.ParseDate(date)
		if err != nil || !d.After(since) {
			continue
		}
		out[date] = rec
	}
	return out, Count(out, time.Time{}), nil
}
