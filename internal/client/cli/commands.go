package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/dmitrijs2005/prayerkeeper/internal/client/prayerday"
	"github.com/dmitrijs2005/prayerkeeper/internal/common"
	"github.com/fatih/color"
)

var (
	onTimeColor  = color.New(color.FgGreen)
	makeupColor  = color.New(color.FgYellow)
	missingColor = color.New(color.Faint)
	errorColor   = color.New(color.FgRed)
	noticeColor  = color.New(color.FgCyan)
)

func statusLabel(st models.Status, ok bool) string {
	if !ok {
		return missingColor.Sprint("-")
	}
	switch st {
	case models.StatusOnTime:
		return onTimeColor.Sprint("on time")
	case models.StatusMakeup:
		return makeupColor.Sprint("make-up")
	}
	return string(st)
}

// Today prints the effective day's record and prayer times and starts an
// automatic backup.
func (a *App) Today(ctx context.Context) error {
	day, _ := a.today(ctx)
	date := prayerday.Format(day)
	rec, _ := a.records.GetDayRecord(ctx, date)
	times, haveTimes := a.times.TodayTimes(ctx, a.now())

	fmt.Fprintf(a.out, "%s\n", day.Format("Monday, 2 January 2006"))
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, slot := range models.Slots {
		clock := ""
		if haveTimes {
			clock = times.For(slot)
		}
		st, ok := rec.Get(slot)
		fmt.Fprintf(w, "  %s\t%s\t%s\n", slot, clock, statusLabel(st, ok))
	}
	_ = w.Flush()
	fmt.Fprintf(a.out, "  voluntary: %d\n", rec.VoluntaryUnits())

	a.backup.TriggerInBackground(ctx)
	return nil
}

// Mark records a prayer: "mark <slot> ontime" for the effective day or
// "mark <slot> makeup [today|last|<date>]".
func (a *App) Mark(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: mark <slot> ontime | mark <slot> makeup [today|last|<date>]")
	}
	slot, err := models.ParseSlot(args[0])
	if err != nil {
		return err
	}
	st, err := models.ParseStatus(args[1])
	if err != nil {
		return err
	}

	day, dawn := a.today(ctx)
	date := prayerday.Format(day)
	switch {
	case st == models.StatusMakeup:
		date, err = prayerday.ResolveTarget(ctx, strings.Join(args[2:], " "), a.now(), dawn, slot, a.records.GetDayRecord)
		if err != nil {
			return err
		}
	case len(args) > 2:
		return errors.New("on-time prayers are always recorded for today")
	}

	if err := a.records.SaveDayRecord(ctx, date, models.NewSlotRecord(slot, st)); err != nil {
		return fmt.Errorf("not saved, try again: %w", err)
	}
	fmt.Fprintf(a.out, "%s %s: %s\n", date, slot, statusLabel(st, true))

	a.backup.TriggerInBackground(ctx)
	return nil
}

// Voluntary adds units to the effective day's voluntary total.
func (a *App) Voluntary(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: voluntary <units>")
	}
	units, err := strconv.Atoi(args[0])
	if err != nil || units <= 0 {
		return fmt.Errorf("%w: %q", common.ErrInvalidVoluntary, args[0])
	}

	day, _ := a.today(ctx)
	date := prayerday.Format(day)
	rec, _ := a.records.GetDayRecord(ctx, date)
	total := rec.VoluntaryUnits() + units
	if err := a.records.SaveDayRecord(ctx, date, models.NewVoluntaryRecord(total)); err != nil {
		return fmt.Errorf("not saved, try again: %w", err)
	}
	fmt.Fprintf(a.out, "%s voluntary: %d (+%d)\n", date, total, units)

	a.backup.TriggerInBackground(ctx)
	return nil
}

func writeCounts(w *tabwriter.Writer, name string, c models.Counts) {
	fmt.Fprintf(w, "  %s\t%d\t%d\t%d\t%d\n", name, c.OnTime, c.Makeup, c.Total(), c.Voluntary)
}

// Stats prints the summary, or the records of the last week or month.
func (a *App) Stats(ctx context.Context, args []string) error {
	now := a.now()
	if len(args) == 0 {
		sum := a.stats.Summary(ctx, now)
		w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  \ton time\tmake-up\ttotal\tvoluntary")
		writeCounts(w, "overall", sum.Overall)
		writeCounts(w, "last year", sum.LastYear)
		writeCounts(w, "last month", sum.LastMonth)
		writeCounts(w, "last week", sum.LastWeek)
		return w.Flush()
	}

	set, counts, err := a.stats.Detail(ctx, now, models.Range(args[0]))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "  date")
	for _, slot := range models.Slots {
		fmt.Fprintf(w, "\t%s", slot)
	}
	fmt.Fprintln(w, "\tvoluntary")
	for _, date := range set.Dates() {
		rec := set[date]
		fmt.Fprintf(w, "  %s", date)
		for _, slot := range models.Slots {
			st, ok := rec.Get(slot)
			fmt.Fprintf(w, "\t%s", statusLabel(st, ok))
		}
		fmt.Fprintf(w, "\t%d\n", rec.VoluntaryUnits())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d on time, %d make-up, %d voluntary\n", counts.OnTime, counts.Makeup, counts.Voluntary)
	return nil
}

func humanizeAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%d h ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
}

// Status prints the identity, backup opt-in and change tracking state.
func (a *App) Status(ctx context.Context) error {
	if p, ok := a.auth.CurrentPrincipal(ctx); ok {
		fmt.Fprintf(a.out, "signed in as %s\n", p.Email)
	} else {
		fmt.Fprintln(a.out, "not signed in")
	}
	if a.auth.IsSubscribed(ctx) {
		fmt.Fprintln(a.out, "cloud backup: on")
	} else {
		fmt.Fprintln(a.out, "cloud backup: off")
	}

	st, err := a.tracker.GetSyncStatus(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "recorded fields: %d, changes since last backup: %d\n", st.CurrentCount, st.Diff)
	if st.Baseline.LastBackupAt.IsZero() {
		fmt.Fprintln(a.out, "last backup: never")
	} else {
		fmt.Fprintf(a.out, "last backup: %s\n", humanizeAge(st.TimeSinceBackup))
	}
	if outcome, at, lastErr := a.backup.LastOutcome(); outcome != models.OutcomeNone {
		line := fmt.Sprintf("last attempt: %s at %s", outcome, at.Format("15:04"))
		if lastErr != nil {
			line += ": " + lastErr.Error()
		}
		fmt.Fprintln(a.out, line)
	}
	if st.ShouldShowManual && a.auth.IsSubscribed(ctx) {
		noticeColor.Fprintln(a.out, "backup recommended: run 'sync'")
	}
	return nil
}

// Sync runs a forced backup.
func (a *App) Sync(ctx context.Context) error {
	return a.runBackup(ctx, models.TriggerForced)
}

func (a *App) runBackup(ctx context.Context, trigger models.Trigger) error {
	outcome, err := a.backup.RunBackup(ctx, trigger)
	switch outcome {
	case models.OutcomeSuccess:
		onTimeColor.Fprintln(a.out, "backup complete")
	case models.OutcomeDeferred:
		fmt.Fprintln(a.out, "not enough changes for an automatic backup")
	case models.OutcomeSkipped:
		if !a.auth.IsSubscribed(ctx) || !a.isSignedIn(ctx) {
			fmt.Fprintln(a.out, "sign in to enable cloud backup")
		} else {
			fmt.Fprintln(a.out, "a backup is already running")
		}
	}
	return err
}

// Restore merges the cloud backup into local data after confirmation.
// Backup values win over local ones.
func (a *App) Restore(ctx context.Context) error {
	if !a.isSignedIn(ctx) {
		return common.ErrorUnauthorized
	}
	ok, err := Confirm(a.reader, "Values in the backup overwrite local ones. Continue?", a.out)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return a.restore(ctx)
}

func (a *App) restore(ctx context.Context) error {
	restored, err := a.backup.Restore(ctx)
	if err != nil {
		return err
	}
	if !restored {
		fmt.Fprintln(a.out, "no backup to restore")
		return nil
	}
	onTimeColor.Fprintln(a.out, "backup restored")
	return nil
}

// Times prints today's prayer times.
func (a *App) Times(ctx context.Context) error {
	t, ok := a.times.TodayTimes(ctx, a.now())
	if !ok {
		if _, set, err := a.times.Location(ctx); err == nil && !set {
			return errors.New("no location set, use: location <lat> <lon>")
		}
		return errors.New("prayer times unavailable")
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  dawn\t%s\n  sunrise\t%s\n", t.Dawn, t.Sunrise)
	for _, slot := range models.Slots[1:] {
		fmt.Fprintf(w, "  %s\t%s\n", slot, t.For(slot))
	}
	return w.Flush()
}

// Location stores the position used for prayer times.
func (a *App) Location(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: location <lat> <lon>")
	}
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("%w: %q", common.ErrInvalidLocation, args[0])
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("%w: %q", common.ErrInvalidLocation, args[1])
	}
	if err := a.times.SetLocation(ctx, lat, lon); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "location set to %.4f, %.4f\n", lat, lon)
	return nil
}

// Login emails a sign-in link.
func (a *App) Login(ctx context.Context, args []string) error {
	email := strings.Join(args, "")
	if email == "" {
		var err error
		if email, err = GetSimpleText(a.reader, "Enter email", a.out); err != nil {
			return err
		}
	}
	if err := a.auth.RequestSignIn(ctx, email); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "sign-in link sent to %s, paste it with: complete <link>\n", email)
	return nil
}

// Complete finishes the sign-in with the emailed link.
func (a *App) Complete(ctx context.Context, args []string) error {
	link := strings.Join(args, "")
	if link == "" {
		var err error
		if link, err = GetSimpleText(a.reader, "Paste the sign-in link", a.out); err != nil {
			return err
		}
	}
	p, err := a.auth.CompleteSignIn(ctx, link)
	if err != nil {
		return err
	}
	onTimeColor.Fprintf(a.out, "signed in as %s, cloud backup enabled\n", p.Email)

	a.backup.TriggerInBackground(ctx)
	return nil
}

// Logout signs out and disables cloud backup. Local records stay.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "signed out")
	return nil
}
