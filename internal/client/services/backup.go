package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/cloud"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/dmitrijs2005/prayerkeeper/internal/logging"
	"github.com/google/uuid"
)

// DefaultSyncTimeout bounds one whole backup or restore.
const DefaultSyncTimeout = 30 * time.Second

type recordStore interface {
	AllRecords(ctx context.Context) (models.RecordSet, error)
	ApplyRecordSet(ctx context.Context, incoming models.RecordSet, incomingWins bool) (models.RecordSet, error)
}

type syncTracker interface {
	GetSyncStatus(ctx context.Context) (models.SyncStatus, error)
	Advance(ctx context.Context, count int, at time.Time) error
	Reset(ctx context.Context, count int) error
}

type principalSource interface {
	CurrentPrincipal(ctx context.Context) (models.Principal, bool)
	IsSubscribed(ctx context.Context) bool
}

// BackupService decides when to back up and runs the merge-and-upload
// exchange with the cloud store.
type BackupService struct {
	records recordStore
	tracker syncTracker
	auth    principalSource
	remote  cloud.Store
	timeout time.Duration
	now     func() time.Time
	log     logging.Logger

	running sync.Mutex
	wg      sync.WaitGroup

	mu          sync.Mutex
	lastOutcome models.Outcome
	lastAt      time.Time
	lastErr     error
}

func NewBackupService(records recordStore, tracker syncTracker, auth principalSource, remote cloud.Store, timeout time.Duration, log logging.Logger) *BackupService {
	if timeout <= 0 {
		timeout = DefaultSyncTimeout
	}
	return &BackupService{
		records: records,
		tracker: tracker,
		auth:    auth,
		remote:  remote,
		timeout: timeout,
		now:     time.Now,
		log:     log.With("component", "backup"),
	}
}

func (s *BackupService) record(outcome models.Outcome, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOutcome = outcome
	s.lastAt = s.now()
	s.lastErr = err
}

// LastOutcome returns the result of the most recent attempt.
func (s *BackupService) LastOutcome() (models.Outcome, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOutcome, s.lastAt, s.lastErr
}

// RunBackup performs one backup attempt.
//
// Without a signed-in, subscribed principal the attempt is skipped. An
// automatic attempt is deferred until enough changes accumulated. Only
// one attempt runs at a time; a concurrent one is skipped. On failure
// the baseline is left untouched and the error is returned.
func (s *BackupService) RunBackup(ctx context.Context, trigger models.Trigger) (models.Outcome, error) {
	p, ok := s.auth.CurrentPrincipal(ctx)
	if !ok || !s.auth.IsSubscribed(ctx) {
		s.log.Debug(ctx, "backup skipped", "reason", "not subscribed", "trigger", trigger)
		s.record(models.OutcomeSkipped, nil)
		return models.OutcomeSkipped, nil
	}

	if !s.running.TryLock() {
		s.log.Debug(ctx, "backup skipped", "reason", "already running", "trigger", trigger)
		return models.OutcomeSkipped, nil
	}
	defer s.running.Unlock()

	status, err := s.tracker.GetSyncStatus(ctx)
	if err != nil {
		s.log.Error(ctx, "backup failed", "error", err)
		s.record(models.OutcomeFailed, err)
		return models.OutcomeFailed, fmt.Errorf("backup failed: %w", err)
	}
	if trigger == models.TriggerAutomatic && !status.ShouldAutoSync {
		s.log.Debug(ctx, "backup deferred", "diff", status.Diff)
		s.record(models.OutcomeDeferred, nil)
		return models.OutcomeDeferred, nil
	}

	log := s.log.With("backup_id", uuid.NewString(), "uid", p.UID, "trigger", trigger)
	count, err := s.exchange(ctx, p, log)
	if err == nil {
		err = s.tracker.Advance(ctx, count, s.now())
	}
	if err != nil {
		log.Error(ctx, "backup failed", "error", err)
		s.record(models.OutcomeFailed, err)
		return models.OutcomeFailed, fmt.Errorf("backup failed: %w", err)
	}

	log.Info(ctx, "backup finished", "fields", count, "diff", status.Diff)
	s.record(models.OutcomeSuccess, nil)
	return models.OutcomeSuccess, nil
}

// exchange merges the remote set under the local one, uploads the result
// and adopts remote-only fields locally. It returns the uploaded field
// count.
func (s *BackupService) exchange(ctx context.Context, p models.Principal, log logging.Logger) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	local, err := s.records.AllRecords(ctx)
	if err != nil {
		return 0, err
	}

	remote, err := s.remote.Fetch(ctx, p.UID)
	if errors.Is(err, cloud.ErrNotFound) {
		remote = models.RecordSet{}
	} else if err != nil {
		return 0, err
	}
	remote = dropInvalid(ctx, log, remote)

	merged := models.MergeRecordSets(remote, local)
	if err := s.remote.Upload(ctx, p.UID, merged); err != nil {
		return 0, err
	}
	log.Debug(ctx, "backup uploaded", "local", local.FieldCount(), "remote", remote.FieldCount(), "merged", merged.FieldCount())

	if _, err := s.records.ApplyRecordSet(ctx, merged, false); err != nil {
		log.Warn(ctx, "adopting remote records failed", "error", err)
		return local.FieldCount(), nil
	}
	return merged.FieldCount(), nil
}

// TriggerInBackground starts an automatic attempt without waiting for it.
func (s *BackupService) TriggerInBackground(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.RunBackup(ctx, models.TriggerAutomatic)
	}()
}

// Wait blocks until background attempts finish.
func (s *BackupService) Wait() {
	s.wg.Wait()
}

// GetCloudData downloads the backup of the signed-in principal. It
// reports false when nobody is signed in, nothing was backed up yet, or
// the download failed.
func (s *BackupService) GetCloudData(ctx context.Context) (models.RecordSet, bool) {
	p, ok := s.auth.CurrentPrincipal(ctx)
	if !ok {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	set, err := s.remote.Fetch(ctx, p.UID)
	if err != nil {
		if !errors.Is(err, cloud.ErrNotFound) {
			s.log.Error(ctx, "fetch cloud data failed", "uid", p.UID, "error", err)
		}
		return nil, false
	}
	return set, true
}

// MergeCloudData restores remote into local storage; remote values win
// per field. The baseline is reset to the merged count.
func (s *BackupService) MergeCloudData(ctx context.Context, remote models.RecordSet) error {
	if remote == nil {
		return nil
	}
	merged, err := s.records.ApplyRecordSet(ctx, remote, true)
	if err != nil {
		return err
	}
	if err := s.tracker.Reset(ctx, merged.FieldCount()); err != nil {
		return err
	}
	s.log.Info(ctx, "cloud data restored", "fields", merged.FieldCount())
	return nil
}

// Restore downloads and merges the cloud backup. It reports whether
// there was anything to restore.
func (s *BackupService) Restore(ctx context.Context) (bool, error) {
	set, ok := s.GetCloudData(ctx)
	if !ok {
		return false, nil
	}
	if err := s.MergeCloudData(ctx, set); err != nil {
		return true, err
	}
	return true, nil
}
