package models

// DayTimes are the local clock times (HH:MM) of one day's prayers.
type DayTimes struct {
	Dawn      string `json:"dawn"`
	Sunrise   string `json:"sunrise"`
	Noon      string `json:"noon"`
	Afternoon string `json:"afternoon"`
	Sunset    string `json:"sunset"`
	Night     string `json:"night"`
}

// For returns the clock time of slot.
func (t DayTimes) For(s Slot) string {
	switch s {
	case SlotDawn:
		return t.Dawn
	case SlotNoon:
		return t.Noon
	case SlotAfternoon:
		return t.Afternoon
	case SlotSunset:
		return t.Sunset
	case SlotNight:
		return t.Night
	}
	return ""
}

// MonthlyTimings is the cached calendar of one month, tagged with the
// month it was fetched for. Days[0] is the 1st.
type MonthlyTimings struct {
	Month int        `json:"month"`
	Year  int        `json:"year"`
	Days  []DayTimes `json:"data"`
}

// Matches reports whether the cache was fetched for the given month.
func (m MonthlyTimings) Matches(year, month int) bool {
	return m.Year == year && m.Month == month
}

// Day returns the times of day-of-month d.
func (m MonthlyTimings) Day(d int) (DayTimes, bool) {
	if d < 1 || d > len(m.Days) {
		return DayTimes{}, false
	}
	return m.Days[d-1], true
}

// Location is the user's position used for prayer time lookups.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
