// Package prayerday decides which calendar date a prayer belongs to.
// A prayer day starts at dawn, so activity between midnight and dawn is
// credited to the previous date.
package prayerday

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/dmitrijs2005/prayerkeeper/internal/common"
	"github.com/olebedev/when"
	whencommon "github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DefaultCutoff is used when no dawn time is known.
const DefaultCutoff = "04:00"

// DefaultScanLimit bounds FindLastUnmarked to about a year.
const DefaultScanLimit = 366

// Lookup returns the stored record of a date.
type Lookup func(ctx context.Context, date string) (models.DayRecord, bool)

// ParseClock parses "HH:MM", tolerating a trailing zone suffix such as
// "05:12 (+03)".
func ParseClock(s string) (hour, minute int, ok bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, 0, false
	}
	hh, mm, found := strings.Cut(fields[0], ":")
	if !found {
		return 0, 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EffectiveDate returns local midnight of the prayer day that contains now.
// Before dawn the previous calendar date is returned. An empty or
// malformed dawn falls back to DefaultCutoff.
func EffectiveDate(now time.Time, dawn string) time.Time {
	h, m, ok := ParseClock(dawn)
	if !ok {
		h, m, _ = ParseClock(DefaultCutoff)
	}
	day := midnight(now)
	boundary := time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, now.Location())
	if now.Before(boundary) {
		return day.AddDate(0, 0, -1)
	}
	return day
}

// Format renders a date as a record key.
func Format(t time.Time) string {
	return models.FormatDate(t)
}

// FindLastUnmarked scans backward from the day before from and returns
// the most recent date whose slot is not recorded. At most limit days are
// examined; limit <= 0 means DefaultScanLimit.
func FindLastUnmarked(ctx context.Context, lookup Lookup, slot models.Slot, from time.Time, limit int) (string, bool) {
	if limit <= 0 {
		limit = DefaultScanLimit
	}
	day := midnight(from)
	for i := 1; i <= limit; i++ {
		if ctx.Err() != nil {
			return "", false
		}
		date := Format(day.AddDate(0, 0, -i))
		rec, _ := lookup(ctx, date)
		if _, marked := rec.Get(slot); !marked {
			return date, true
		}
	}
	return "", false
}

// SetLookup adapts an in-memory record set to a Lookup.
func SetLookup(set models.RecordSet) Lookup {
	return func(_ context.Context, date string) (models.DayRecord, bool) {
		rec, ok := set[date]
		return rec, ok
	}
}

var parser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(whencommon.All...)
	return w
}()

// ParseDatePhrase accepts an ISO date or an English phrase such as
// "yesterday" or "last friday", relative to now.
func ParseDatePhrase(phrase string, now time.Time) (time.Time, error) {
	phrase = strings.TrimSpace(phrase)
	if t, err := time.ParseInLocation(common.DateLayout, phrase, now.Location()); err == nil {
		return t, nil
	}
	r, err := parser.Parse(phrase, now)
	if err != nil || r == nil {
		return time.Time{}, fmt.Errorf("%w: %q", common.ErrInvalidDate, phrase)
	}
	return midnight(r.Time.In(now.Location())), nil
}

// Target is what the user picked for a make-up prayer.
const (
	TargetToday = "today"
	TargetLast  = "last"
)

// ResolveTarget turns a make-up date choice into a record key. "today" is
// the effective date, "last" is the most recent unmarked date of slot,
// anything else is a date phrase. Dates after the effective date are
// rejected.
func ResolveTarget(ctx context.Context, choice string, now time.Time, dawn string, slot models.Slot, lookup Lookup) (string, error) {
	today := EffectiveDate(now, dawn)
	switch strings.ToLower(strings.TrimSpace(choice)) {
	case "", TargetToday:
		return Format(today), nil
	case TargetLast:
		date, ok := FindLastUnmarked(ctx, lookup, slot, today, DefaultScanLimit)
		if !ok {
			return "", fmt.Errorf("no unmarked %s prayer in the last %d days", slot, DefaultScanLimit)
		}
		return date, nil
	}

	t, err := ParseDatePhrase(choice, now)
	if err != nil {
		return "", err
	}
	if t.After(today) {
		return "", fmt.Errorf("%w: %s is in the future", common.ErrInvalidDate, Format(t))
	}
	return Format(t), nil
}
