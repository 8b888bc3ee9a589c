// Package services contains the application services of the prayerkeeper
// client: the record store, change tracking, cloud backup, identity,
// prayer times and statistics.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/repositories/records"
	"github.com/dmitrijs2005/prayerkeeper/internal/dbx"
	"github.com/dmitrijs2005/prayerkeeper/internal/logging"
)

// dirtyMarker is notified after every successful local write.
type dirtyMarker interface {
	MarkDirty(ctx context.Context) error
}

// RecordService is the local store of prayer records.
//
// Writes to one date are serialized and each runs in a single
// transaction. Whole-set merges exclude all per-date writers.
type RecordService struct {
	db      *sql.DB
	tracker dirtyMarker
	log     logging.Logger

	setMu sync.RWMutex
	dates *keyedMutex

	repo func(db dbx.DBTX) records.Repository
}

func sqliteRecords(db dbx.DBTX) records.Repository {
	return records.NewSQLiteRepository(db)
}

func NewRecordService(db *sql.DB, tracker dirtyMarker, log logging.Logger) *RecordService {
	return &RecordService{
		db:      db,
		tracker: tracker,
		log:     log.With("component", "records"),
		dates:   newKeyedMutex(),
		repo:    sqliteRecords,
	}
}

// SaveDayRecord merges partial into the record stored for date; fields
// present in partial overwrite stored ones. An empty partial is a no-op.
func (s *RecordService) SaveDayRecord(ctx context.Context, date string, partial models.DayRecord) error {
	if _, err := models.ParseDate(date); err != nil {
		return err
	}
	if err := partial.Validate(); err != nil {
		return err
	}
	if partial.IsEmpty() {
		return nil
	}

	s.setMu.RLock()
	defer s.setMu.RUnlock()
	unlock := s.dates.Lock(date)
	defer unlock()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		current, err := repo.Get(ctx, date)
		if err != nil {
			return err
		}
		var merged models.DayRecord
		if current != nil {
			merged = current.Merge(partial)
		} else {
			merged = models.DayRecord{}.Merge(partial)
		}
		return repo.Put(ctx, date, merged)
	})
	if err != nil {
		s.log.Error(ctx, "save day record failed", "date", date, "error", err)
		return fmt.Errorf("failed to save %s: %w", date, err)
	}

	if err := s.tracker.MarkDirty(ctx); err != nil {
		s.log.Warn(ctx, "mark dirty failed", "error", err)
	}
	return nil
}

// GetDayRecord returns the record of date. Storage errors are logged and
// reported as absent.
func (s *RecordService) GetDayRecord(ctx context.Context, date string) (models.DayRecord, bool) {
	rec, err := s.repo(s.db).Get(ctx, date)
	if err != nil {
		s.log.Error(ctx, "get day record failed", "date", date, "error", err)
		return models.DayRecord{}, false
	}
	if rec == nil {
		return models.DayRecord{}, false
	}
	return *rec, true
}

// GetAllRecords returns every stored record. Storage errors are logged and
// reported as an empty set.
func (s *RecordService) GetAllRecords(ctx context.Context) models.RecordSet {
	set, err := s.AllRecords(ctx)
	if err != nil {
		s.log.Error(ctx, "get all records failed", "error", err)
		return models.RecordSet{}
	}
	return set
}

// AllRecords returns every stored record or the storage error.
func (s *RecordService) AllRecords(ctx context.Context) (models.RecordSet, error) {
	set, err := s.repo(s.db).GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return set, nil
}

// dropInvalid returns set without the dates whose key or record fails
// validation. Each dropped date is logged.
func dropInvalid(ctx context.Context, log logging.Logger, set models.RecordSet) models.RecordSet {
	out := make(models.RecordSet, len(set))
	for date, rec := range set {
		if _, err := models.ParseDate(date); err != nil {
			log.Warn(ctx, "skipping record with invalid date", "date", date)
			continue
		}
		if err := rec.Validate(); err != nil {
			log.Warn(ctx, "skipping invalid record", "date", date, "error", err)
			continue
		}
		out[date] = rec
	}
	return out
}

// ApplyRecordSet merges incoming into local storage date by date and
// returns the resulting full set. With incomingWins the incoming value
// replaces a local field present on both sides; otherwise local is kept.
// Incoming dates with an invalid key or record are skipped. Only changed
// dates are written. Dirty state is left to the caller.
func (s *RecordService) ApplyRecordSet(ctx context.Context, incoming models.RecordSet, incomingWins bool) (models.RecordSet, error) {
	incoming = dropInvalid(ctx, s.log, incoming)

	s.setMu.Lock()
	defer s.setMu.Unlock()

	var result models.RecordSet
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		local, err := repo.GetAll(ctx)
		if err != nil {
			return err
		}

		if incomingWins {
			result = models.MergeRecordSets(local, incoming)
		} else {
			result = models.MergeRecordSets(incoming, local)
		}

		for _, date := range result.Dates() {
			rec := result[date]
			if old, ok := local[date]; ok && old.Equal(rec) {
				continue
			}
			if err := repo.Put(ctx, date, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error(ctx, "apply record set failed", "error", err)
		return nil, fmt.Errorf("failed to apply records: %w", err)
	}
	return result, nil
}
