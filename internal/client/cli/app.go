package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/cloud"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/config"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/identity"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/prayerday"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/prayertimes"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/services"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/storage"
	"github.com/dmitrijs2005/prayerkeeper/internal/filex"
	"github.com/dmitrijs2005/prayerkeeper/internal/logging"
	"github.com/dmitrijs2005/prayerkeeper/internal/netx"
)

// App wires the services behind the terminal UI.
type App struct {
	config  *config.Config
	db      *sql.DB
	closers []io.Closer
	log     logging.Logger

	records *services.RecordService
	tracker *services.Tracker
	backup  *services.BackupService
	auth    *services.AuthService
	times   *services.PrayerTimeService
	stats   *services.StatsService

	now    func() time.Time
	out    io.Writer
	reader *bufio.Reader
}

// NewApp opens the local database under the data directory and builds
// every service from c.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, err
	}

	logger, logCloser := logging.NewFileLogger(c.LogPath(dir), c.LogLevel)

	db, err := storage.Open(ctx, c.DatabasePath(dir))
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	httpClient := netx.NewClient(c.HTTPTimeout)

	auth := services.NewAuthService(db,
		identity.NewClient(httpClient, c.Identity.AuthURL, c.Identity.TokenURL, c.Identity.APIKey),
		c.Identity.ContinueURL, logger)

	remote, err := cloud.New(ctx, c.BackupOptions(), httpClient, auth)
	if err != nil {
		_ = db.Close()
		_ = logCloser.Close()
		return nil, err
	}

	a := newApp(db, logger, auth, remote,
		prayertimes.NewClient(httpClient, c.PrayerTimes.BaseURL, c.PrayerTimes.Method),
		services.Thresholds{AutoSync: c.AutoSyncThreshold, ManualVisible: c.ManualVisibleThreshold},
		c.SyncTimeout, c.HTTPTimeout)
	a.config = c
	a.closers = append(a.closers, logCloser)
	return a, nil
}

func newApp(db *sql.DB, log logging.Logger, auth *services.AuthService, remote cloud.Store, calendar services.CalendarSource,
	th services.Thresholds, syncTimeout, httpTimeout time.Duration) *App {
	tracker := services.NewTracker(db, th, log)
	records := services.NewRecordService(db, tracker, log)
	return &App{
		db:      db,
		log:     log,
		records: records,
		tracker: tracker,
		backup:  services.NewBackupService(records, tracker, auth, remote, syncTimeout, log),
		auth:    auth,
		times:   services.NewPrayerTimeService(db, calendar, httpTimeout, log),
		stats:   services.NewStatsService(records),
		now:     time.Now,
		out:     os.Stdout,
		reader:  bufio.NewReader(os.Stdin),
	}
}

// Close waits for background backups and releases the database and log
// file.
func (a *App) Close() error {
	a.backup.Wait()
	err := a.db.Close()
	for _, c := range a.closers {
		_ = c.Close()
	}
	return err
}

// today returns the effective prayer date together with the dawn time it
// was derived from.
func (a *App) today(ctx context.Context) (time.Time, string) {
	now := a.now()
	dawn := a.times.Dawn(ctx, now)
	return prayerday.EffectiveDate(now, dawn), dawn
}

func (a *App) isSignedIn(ctx context.Context) bool {
	_, ok := a.auth.CurrentPrincipal(ctx)
	return ok
}

// promptStatus is shown in the REPL prompt.
func (a *App) promptStatus(ctx context.Context) string {
	day, _ := a.today(ctx)
	s := prayerday.Format(day)
	if email := a.auth.Email(ctx); email != "" && a.isSignedIn(ctx) {
		s = email + " " + s
	}
	if st, err := a.tracker.GetSyncStatus(ctx); err == nil && st.ShouldShowManual && a.auth.IsSubscribed(ctx) {
		s += " *"
	}
	return s
}
