package domain

import "time"

const dateKeyLayout = "20060102"

// DateKey identifies one storm snapshot: YYYYMMDD with no separators.
type DateKey string

// ParseDateKey validates s as a calendar date in YYYYMMDD form. Wrong-length,
// non-numeric, or impossible dates (20240231) report false.
func ParseDateKey(s string) (DateKey, bool) {
	if len(s) != len(dateKeyLayout) {
		return "", false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", false
		}
	}
	if _, err := time.Parse(dateKeyLayout, s); err != nil {
		return "", false
	}
	return DateKey(s), true
}

// DateKeyFor formats t as a DateKey in t's own location.
func DateKeyFor(t time.Time) DateKey {
	return DateKey(t.Format(dateKeyLayout))
}

// Time returns midnight UTC of the keyed day, or the zero time for an invalid key.
func (k DateKey) Time() time.Time {
	t, err := time.Parse(dateKeyLayout, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

func (k DateKey) String() string { return string(k) }
