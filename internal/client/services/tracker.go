package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/repositories/records"
	"github.com/dmitrijs2005/prayerkeeper/internal/dbx"
	"github.com/dmitrijs2005/prayerkeeper/internal/logging"
)

// OneWeek is the age after which a manual backup is offered regardless of
// the number of changes.
const OneWeek = 7 * 24 * time.Hour

const (
	DefaultAutoSyncThreshold      = 50
	DefaultManualVisibleThreshold = 30
)

// Thresholds are the change counts that drive backup decisions.
type Thresholds struct {
	AutoSync      int
	ManualVisible int
}

func DefaultThresholds() Thresholds {
	return Thresholds{AutoSync: DefaultAutoSyncThreshold, ManualVisible: DefaultManualVisibleThreshold}
}

func (t Thresholds) Validate() error {
	if t.AutoSync <= 0 || t.ManualVisible <= 0 {
		return errors.New("sync thresholds must be positive")
	}
	if t.ManualVisible > t.AutoSync {
		return fmt.Errorf("manual threshold %d exceeds automatic threshold %d", t.ManualVisible, t.AutoSync)
	}
	return nil
}

// Tracker keeps the baseline of the last confirmed backup and derives
// the sync status from it. Changes are measured as the absolute
// difference in populated fields, so a write that replaces a value
// without adding one is only visible through the dirty flag.
type Tracker struct {
	db         *sql.DB
	thresholds Thresholds
	now        func() time.Time
	log        logging.Logger
}

func NewTracker(db *sql.DB, thresholds Thresholds, log logging.Logger) *Tracker {
	return &Tracker{db: db, thresholds: thresholds, now: time.Now, log: log.With("component", "tracker")}
}

func (t *Tracker) meta() metadata.Repository {
	return metadata.NewSQLiteRepository(t.db)
}

// MarkDirty flags that local data changed since the last backup.
func (t *Tracker) MarkDirty(ctx context.Context) error {
	if err := metadata.SetBool(ctx, t.meta(), keyIsDirty, true); err != nil {
		return fmt.Errorf("failed to mark dirty: %w", err)
	}
	return nil
}

// Baseline reads the persisted bookkeeping; missing keys are zero values.
func (t *Tracker) Baseline(ctx context.Context) (models.SyncBaseline, error) {
	repo := t.meta()
	var b models.SyncBaseline
	var err error

	if b.LastSyncCount, _, err = metadata.GetInt(ctx, repo, keyLastSyncCount); err != nil {
		return b, err
	}
	if b.LastBackupAt, _, err = metadata.GetTime(ctx, repo, keyLastBackupAt); err != nil {
		return b, err
	}
	if b.IsDirty, err = metadata.GetBool(ctx, repo, keyIsDirty); err != nil {
		return b, err
	}
	return b, nil
}

// GetSyncStatus recomputes the status from the current record set.
func (t *Tracker) GetSyncStatus(ctx context.Context) (models.SyncStatus, error) {
	set, err := records.NewSQLiteRepository(t.db).GetAll(ctx)
	if err != nil {
		return models.SyncStatus{}, fmt.Errorf("failed to read records: %w", err)
	}
	b, err := t.Baseline(ctx)
	if err != nil {
		return models.SyncStatus{}, fmt.Errorf("failed to read baseline: %w", err)
	}
	return t.status(set.FieldCount(), b), nil
}

func (t *Tracker) status(current int, b models.SyncBaseline) models.SyncStatus {
	diff := current - b.LastSyncCount
	if diff < 0 {
		diff = -diff
	}
	var since time.Duration
	if !b.LastBackupAt.IsZero() {
		since = t.now().Sub(b.LastBackupAt)
	}
	return models.SyncStatus{
		Diff:             diff,
		CurrentCount:     current,
		TimeSinceBackup:  since,
		ShouldAutoSync:   diff >= t.thresholds.AutoSync,
		ShouldShowManual: diff >= t.thresholds.ManualVisible || since >= OneWeek,
		Baseline:         b,
	}
}

// Advance records a confirmed backup of count fields taken at at.
func (t *Tracker) Advance(ctx context.Context, count int, at time.Time) error {
	err := dbx.WithTx(ctx, t.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := metadata.SetInt(ctx, repo, keyLastSyncCount, count); err != nil {
			return err
		}
		if err := metadata.SetBool(ctx, repo, keyIsDirty, false); err != nil {
			return err
		}
		return metadata.SetTime(ctx, repo, keyLastBackupAt, at)
	})
	if err != nil {
		return fmt.Errorf("failed to advance baseline: %w", err)
	}
	t.log.Debug(ctx, "baseline advanced", "count", count)
	return nil
}

// Reset aligns the baseline with data just restored from the cloud. The
// backup timestamp is left untouched.
func (t *Tracker) Reset(ctx context.Context, count int) error {
	err := dbx.WithTx(ctx, t.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := metadata.SetInt(ctx, repo, keyLastSyncCount, count); err != nil {
			return err
		}
		return metadata.SetBool(ctx, repo, keyIsDirty, false)
	})
	if err != nil {
		return fmt.Errorf("failed to reset baseline: %w", err)
	}
	return nil
}
