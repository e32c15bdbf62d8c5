package utils

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// -----------------------------------------------------------------------------
// MarketHours answers "is the market likely open right now" for health
// reporting. Forex-style symbols follow the continuous Sunday 22:00 to Friday
// 22:00 UTC week; exchange-listed symbols defer to the venue calendar. The
// answer is advisory only and never gates trading or streaming.
// -----------------------------------------------------------------------------

type MarketHours struct {
	cal *calendar.Calendar
}

// -----------------------------------------------------------------------------

func NewMarketHours() *MarketHours {
	// NYSE serves as the venue calendar for suffix-less equity symbols.
	return &MarketHours{cal: calendar.GetCalendar("xnys")}
}

// -----------------------------------------------------------------------------

// IsOpenNow reports whether the forex week is currently in session.
func (m *MarketHours) IsOpenNow(t time.Time) bool {
	return forexWeekOpen(t.UTC())
}

// -----------------------------------------------------------------------------

// IsSymbolOpen reports whether trading for one symbol is likely in session.
// Symbols with an exchange suffix (e.g. "AAPL.NAS") use the venue calendar;
// everything else is treated as forex.
func (m *MarketHours) IsSymbolOpen(symbol string, t time.Time) bool {
	if strings.Contains(symbol, ".") && m.cal != nil {
		return m.cal.IsOpen(t.In(m.cal.Loc))
	}
	return forexWeekOpen(t.UTC())
}

// -----------------------------------------------------------------------------

// forexWeekOpen implements the Sunday 22:00 to Friday 22:00 UTC session.
func forexWeekOpen(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday:
		return false
	case time.Sunday:
		return t.Hour() >= 22
	case time.Friday:
		return t.Hour() < 22
	default:
		return true
	}
}
