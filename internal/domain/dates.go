package domain

import (
	"strings"
	"time"
)

const (
	dayFormat    = "20060102"     // station table date columns
	minuteFormat = "200601021504" // MESS_DATUM in measurement series
)

// ParseDayUTC parses an 8-digit YYYYMMDD value as UTC midnight.
func ParseDayUTC(s string) (time.Time, error) {
	return time.ParseInLocation(dayFormat, strings.TrimSpace(s), time.UTC)
}

// ObsTimestamp is a nullable UTC timestamp decoded from a MESS_DATUM column.
// Multi-decade archives contain occasional malformed values; those decode to
// a null timestamp instead of failing the whole file.
type ObsTimestamp struct {
	Time  time.Time
	Valid bool
}

// ParseObsTimestamp decodes a measurement timestamp. The regular encoding is
// 12-digit YYYYMMDDHHMM; some older low-resolution series use a legacy
// 10-digit form with a 2-digit year, interpreted with the Unix-epoch pivot
// (00-68 means 2000-2068, 69-99 means 1969-1999).
func ParseObsTimestamp(s string) ObsTimestamp {
	s = strings.TrimSpace(s)
	switch len(s) {
	case 12:
		if t, err := time.ParseInLocation(minuteFormat, s, time.UTC); err == nil {
			return ObsTimestamp{Time: t, Valid: true}
		}
	case 10:
		if t, err := time.ParseInLocation("0601021504", s, time.UTC); err == nil {
			// ParseInLocation already pivots 2-digit years at 69, matching
			// the Unix convention.
			return ObsTimestamp{Time: t, Valid: true}
		}
	}
	return ObsTimestamp{}
}

// UnmarshalText implements encoding.TextUnmarshaler for csvutil decoding.
// It never returns an error: unparseable values become null.
func (t *ObsTimestamp) UnmarshalText(b []byte) error {
	*t = ParseObsTimestamp(string(b))
	return nil
}

// MarshalJSON renders the timestamp as RFC 3339 or JSON null.
func (t ObsTimestamp) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Time.UTC().Format(time.RFC3339) + `"`), nil
}

// DatePartition derives the calendar partition keys used for date-based
// dataset layout from a primary timestamp.
func DatePartition(t time.Time) (year, month, day int) {
	t = t.UTC()
	return t.Year(), int(t.Month()), t.Day()
}
