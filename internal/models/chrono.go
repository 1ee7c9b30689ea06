package models

import (
	"fmt"
	"time"
)

// ChronoKey orders matches by year, then round, then date. The date only
// breaks ties between matches sharing a year and round.
type ChronoKey struct {
	Year  int       `json:"year"`
	Round int       `json:"round"`
	Date  time.Time `json:"date"`
}

// Compare returns -1, 0 or 1 as k sorts before, equal to, or after o.
func (k ChronoKey) Compare(o ChronoKey) int {
	switch {
	case k.Year != o.Year:
		return cmpInt(k.Year, o.Year)
	case k.Round != o.Round:
		return cmpInt(k.Round, o.Round)
	}
	ky, km, kd := k.Date.Date()
	oy, om, od := o.Date.Date()
	switch {
	case ky != oy:
		return cmpInt(ky, oy)
	case km != om:
		return cmpInt(int(km), int(om))
	default:
		return cmpInt(kd, od)
	}
}

// Before reports whether k is strictly earlier than o. Equal keys are never before each other.
func (k ChronoKey) Before(o ChronoKey) bool {
	return k.Compare(o) < 0
}

// String renders the key in a stable form usable inside cache keys.
func (k ChronoKey) String() string {
	return fmt.Sprintf("%04d-R%02d-%s", k.Year, k.Round, k.Date.Format(DateLayout))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
