// Package records persists prayer day records, one row per date.
package records

import (
	"context"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
)

// Repository stores DayRecords keyed by YYYY-MM-DD date. Get returns
// (nil, nil) for a date with no row.
type Repository interface {
	Get(ctx context.Context, date string) (*models.DayRecord, error)
	GetAll(ctx context.Context) (models.RecordSet, error)
	Put(ctx context.Context, date string, rec models.DayRecord) error
}
