package models

import "time"

// SyncBaseline is the persisted bookkeeping of the last confirmed backup.
// A zero LastBackupAt means no backup has ever succeeded.
type SyncBaseline struct {
	LastSyncCount int
	LastBackupAt  time.Time
	IsDirty       bool
}

// SyncStatus is derived from the current record set and the baseline on
// every query; it is never stored.
type SyncStatus struct {
	Diff             int
	CurrentCount     int
	TimeSinceBackup  time.Duration
	ShouldAutoSync   bool
	ShouldShowManual bool
	Baseline         SyncBaseline
}

// Trigger tells the sync engine who asked for a backup.
type Trigger int

const (
	// TriggerAutomatic runs only when enough changes accumulated.
	TriggerAutomatic Trigger = iota
	// TriggerForced runs whenever the gate allows it.
	TriggerForced
)

func (t Trigger) String() string {
	if t == TriggerForced {
		return "forced"
	}
	return "automatic"
}

// Outcome is the terminal state of one backup attempt.
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeSkipped  Outcome = "skipped"
	OutcomeDeferred Outcome = "deferred"
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
)
