package models

import (
	"fmt"
	"sort"

	"github.com/dmitrijs2005/prayerkeeper/internal/common"
)

// DayRecord holds everything recorded for one prayer day. Every field is
// optional; a nil field means "not recorded".
//
// Voluntary is a cumulative unit count computed by the caller: saving a
// new value replaces the old one.
type DayRecord struct {
	Dawn      *Status `json:"dawn,omitempty"`
	Noon      *Status `json:"noon,omitempty"`
	Afternoon *Status `json:"afternoon,omitempty"`
	Sunset    *Status `json:"sunset,omitempty"`
	Night     *Status `json:"night,omitempty"`
	Voluntary *int    `json:"voluntary,omitempty"`
}

// NewSlotRecord builds a partial record with a single slot set.
func NewSlotRecord(slot Slot, status Status) DayRecord {
	var r DayRecord
	r.Set(slot, status)
	return r
}

// NewVoluntaryRecord builds a partial record carrying only a voluntary total.
func NewVoluntaryRecord(units int) DayRecord {
	return DayRecord{Voluntary: &units}
}

func (r *DayRecord) slot(s Slot) **Status {
	switch s {
	case SlotDawn:
		return &r.Dawn
	case SlotNoon:
		return &r.Noon
	case SlotAfternoon:
		return &r.Afternoon
	case SlotSunset:
		return &r.Sunset
	case SlotNight:
		return &r.Night
	}
	return nil
}

// Get returns the status of slot and whether it is recorded.
func (r DayRecord) Get(s Slot) (Status, bool) {
	p := r.slot(s)
	if p == nil || *p == nil {
		return "", false
	}
	return **p, true
}

// Set records status for slot. Unknown slots are ignored.
func (r *DayRecord) Set(s Slot, status Status) {
	if p := r.slot(s); p != nil {
		*p = &status
	}
}

// VoluntaryUnits returns the recorded voluntary total or zero.
func (r DayRecord) VoluntaryUnits() int {
	if r.Voluntary == nil {
		return 0
	}
	return *r.Voluntary
}

// FieldCount is the number of populated fields, slots and voluntary alike.
func (r DayRecord) FieldCount() int {
	n := 0
	for _, s := range Slots {
		if _, ok := r.Get(s); ok {
			n++
		}
	}
	if r.Voluntary != nil {
		n++
	}
	return n
}

func (r DayRecord) IsEmpty() bool {
	return r.FieldCount() == 0
}

// Validate checks recorded statuses and the voluntary total.
func (r DayRecord) Validate() error {
	for _, s := range Slots {
		if st, ok := r.Get(s); ok {
			if err := st.Validate(); err != nil {
				return fmt.Errorf("%s: %w", s, err)
			}
		}
	}
	if r.Voluntary != nil && *r.Voluntary < 0 {
		return common.ErrInvalidVoluntary
	}
	return nil
}

// Merge returns a copy of r with every field present in overlay replaced
// by the overlay value. Fields absent from overlay are kept.
func (r DayRecord) Merge(overlay DayRecord) DayRecord {
	return DayRecord{
		Dawn:      pick(r.Dawn, overlay.Dawn),
		Noon:      pick(r.Noon, overlay.Noon),
		Afternoon: pick(r.Afternoon, overlay.Afternoon),
		Sunset:    pick(r.Sunset, overlay.Sunset),
		Night:     pick(r.Night, overlay.Night),
		Voluntary: pick(r.Voluntary, overlay.Voluntary),
	}
}

// Equal compares field values, not pointers.
func (r DayRecord) Equal(o DayRecord) bool {
	return sameValue(r.Dawn, o.Dawn) &&
		sameValue(r.Noon, o.Noon) &&
		sameValue(r.Afternoon, o.Afternoon) &&
		sameValue(r.Sunset, o.Sunset) &&
		sameValue(r.Night, o.Night) &&
		sameValue(r.Voluntary, o.Voluntary)
}

// pick copies the winning value so merged records never share storage
// with their inputs.
func pick[T any](base, overlay *T) *T {
	src := base
	if overlay != nil {
		src = overlay
	}
	if src == nil {
		return nil
	}
	v := *src
	return &v
}

func sameValue[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// RecordSet maps a YYYY-MM-DD date to its record. It is the unit of
// exchange with the cloud backup.
type RecordSet map[string]DayRecord

// FieldCount sums the populated fields of every record.
func (s RecordSet) FieldCount() int {
	n := 0
	for _, r := range s {
		n += r.FieldCount()
	}
	return n
}

// Clone returns a deep copy.
func (s RecordSet) Clone() RecordSet {
	out := make(RecordSet, len(s))
	for d, r := range s {
		out[d] = DayRecord{}.Merge(r)
	}
	return out
}

// Dates returns the keys in ascending order.
func (s RecordSet) Dates() []string {
	dates := make([]string, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// MergeRecordSets combines two sets date by date; on a field present in
// both, overlay wins. Neither argument is modified. Merging a set with
// itself yields an equal set.
func MergeRecordSets(base, overlay RecordSet) RecordSet {
	out := base.Clone()
	for d, r := range overlay {
		out[d] = out[d].Merge(r)
	}
	return out
}
