package models

// Counts aggregates a window of records.
type Counts struct {
	OnTime    int
	Makeup    int
	Voluntary int
	PerSlot   map[Slot]SlotCounts
}

type SlotCounts struct {
	OnTime int
	Makeup int
}

// Total is the number of obligatory prayers performed.
func (c Counts) Total() int {
	return c.OnTime + c.Makeup
}

// Summary is the statistics overview across the standard windows.
type Summary struct {
	Overall   Counts
	LastYear  Counts
	LastMonth Counts
	LastWeek  Counts
}

// Range selects a detail window.
type Range string

const (
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
)
