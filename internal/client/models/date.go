package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/prayerkeeper/internal/common"
)

// ParseDate validates a YYYY-MM-DD key and returns local midnight of it.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(common.DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", common.ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders t as a record key in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(common.DateLayout)
}
