package features

import (
	"math"
	"strings"
	"time"
)

// Temporal holds the calendar features derived from the event date. The
// trained feature lists reference these under domain-suffixed names
// (mes_pol, dia_año_germ, ...), the values are identical across domains.
type Temporal struct {
	Month     float64
	DayOfYear float64
	Quarter   float64
	Year      float64
	ISOWeek   float64
	MonthSin  float64
	MonthCos  float64
	DaySin    float64
	DayCos    float64
}

// NewTemporal derives the calendar features for an event date. The sine and
// cosine pairs encode month and day-of-year cyclically so December sits
// next to January in feature space.
func NewTemporal(t time.Time) Temporal {
	month := float64(t.Month())
	day := float64(t.YearDay())
	_, week := t.ISOWeek()

	return Temporal{
		Month:     month,
		DayOfYear: day,
		Quarter:   float64((int(t.Month())-1)/3 + 1),
		Year:      float64(t.Year()),
		ISOWeek:   float64(week),
		MonthSin:  math.Sin(2 * math.Pi * month / 12),
		MonthCos:  math.Cos(2 * math.Pi * month / 12),
		DaySin:    math.Sin(2 * math.Pi * day / 365),
		DayCos:    math.Cos(2 * math.Pi * day / 365),
	}
}

// resolve maps a feature name from the artifact metadata onto the derived
// value. Exact cyclical names are matched first, then the domain-suffixed
// prefixes (mes_pol and mes_germ both resolve through the mes_ prefix).
func (tp Temporal) resolve(name string) (float64, bool) {
	switch name {
	case "semana_año":
		return tp.ISOWeek, true
	case "mes_sin":
		return tp.MonthSin, true
	case "mes_cos":
		return tp.MonthCos, true
	case "dia_año_sin":
		return tp.DaySin, true
	case "dia_año_cos":
		return tp.DayCos, true
	}

	switch {
	case strings.HasPrefix(name, "dia_año_"):
		return tp.DayOfYear, true
	case strings.HasPrefix(name, "mes_"):
		return tp.Month, true
	case strings.HasPrefix(name, "trimestre_"):
		return tp.Quarter, true
	case strings.HasPrefix(name, "año_"):
		return tp.Year, true
	}
	return 0, false
}
