package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/prayerkeeper/internal/common"
	"github.com/dmitrijs2005/prayerkeeper/internal/logging"
	"golang.org/x/sync/singleflight"
)

// CalendarSource returns the prayer times of every day of a month.
type CalendarSource interface {
	Calendar(ctx context.Context, lat, lon float64, month, year int) ([]models.DayTimes, error)
}

// PrayerTimeService serves today's prayer times from a per-month cache
// kept in the metadata table.
type PrayerTimeService struct {
	db      *sql.DB
	source  CalendarSource
	timeout time.Duration
	log     logging.Logger
	group   singleflight.Group
}

func NewPrayerTimeService(db *sql.DB, source CalendarSource, timeout time.Duration, log logging.Logger) *PrayerTimeService {
	return &PrayerTimeService{db: db, source: source, timeout: timeout, log: log.With("component", "prayertimes")}
}

func (s *PrayerTimeService) meta() metadata.Repository {
	return metadata.NewSQLiteRepository(s.db)
}

// SetLocation stores the user's position and drops the cached calendar.
func (s *PrayerTimeService) SetLocation(ctx context.Context, lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: %v,%v", common.ErrInvalidLocation, lat, lon)
	}
	repo := s.meta()
	if err := metadata.SetJSON(ctx, repo, keyLocation, models.Location{Latitude: lat, Longitude: lon}); err != nil {
		return err
	}
	return repo.Delete(ctx, keyMonthlyTimings)
}

// Location returns the stored position.
func (s *PrayerTimeService) Location(ctx context.Context) (models.Location, bool, error) {
	var loc models.Location
	ok, err := metadata.GetJSON(ctx, s.meta(), keyLocation, &loc)
	return loc, ok, err
}

// FetchMonthly downloads and caches the calendar of now's month.
// Concurrent calls for the same month share one request.
func (s *PrayerTimeService) FetchMonthly(ctx context.Context, now time.Time) (models.MonthlyTimings, error) {
	loc, ok, err := s.Location(ctx)
	if err != nil {
		return models.MonthlyTimings{}, err
	}
	if !ok {
		return models.MonthlyTimings{}, common.ErrNoLocation
	}

	year, month := now.Year(), int(now.Month())
	key := fmt.Sprintf("%d-%02d", year, month)

	v, err, _ := s.group.Do(key, func() (any, error) {
		fctx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		days, err := s.source.Calendar(fctx, loc.Latitude, loc.Longitude, month, year)
		if err != nil {
			return nil, err
		}
		m := models.MonthlyTimings{Month: month, Year: year, Days: days}
		if err := metadata.SetJSON(ctx, s.meta(), keyMonthlyTimings, m); err != nil {
			s.log.Warn(ctx, "cache prayer times failed", "error", err)
		}
		return m, nil
	})
	if err != nil {
		return models.MonthlyTimings{}, err
	}
	return v.(models.MonthlyTimings), nil
}

func (s *PrayerTimeService) cached(ctx context.Context) (models.MonthlyTimings, bool) {
	var m models.MonthlyTimings
	ok, err := metadata.GetJSON(ctx, s.meta(), keyMonthlyTimings, &m)
	if err != nil {
		s.log.Warn(ctx, "read cached prayer times failed", "error", err)
		return m, false
	}
	return m, ok
}

// TodayTimes returns the prayer times of now's calendar day. A cache from
// another month counts as a miss and triggers one fetch. It reports false
// when no location is set or the times cannot be obtained.
func (s *PrayerTimeService) TodayTimes(ctx context.Context, now time.Time) (models.DayTimes, bool) {
	m, ok := s.cached(ctx)
	if !ok || !m.Matches(now.Year(), int(now.Month())) {
		fetched, err := s.FetchMonthly(ctx, now)
		if errors.Is(err, common.ErrNoLocation) {
			return models.DayTimes{}, false
		}
		if err != nil {
			s.log.Warn(ctx, "prayer times unavailable", "error", err)
			return models.DayTimes{}, false
		}
		m = fetched
	}
	return m.Day(now.Day())
}

// Dawn returns today's dawn time or "" when unknown.
func (s *PrayerTimeService) Dawn(ctx context.Context, now time.Time) string {
	t, ok := s.TodayTimes(ctx, now)
	if !ok {
		return ""
	}
	return t.Dawn
}
