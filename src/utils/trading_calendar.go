package utils

import (
	"strings"
	"sync"
	"time"

	"github.com/scmhub/calendar"
)

const defaultMIC = "xnys"

// suffixMIC maps a Yahoo ticker suffix to the ISO 10383 MIC of its exchange.
// Symbols without a listed suffix trade in New York.
var suffixMIC = map[string]string{
	".L":  "xlon",
	".PA": "xpar",
	".DE": "xfra",
	".AS": "xams",
	".BR": "xbru",
	".MI": "xmil",
	".MC": "xmad",
	".ST": "xsto",
	".CO": "xcse",
	".HE": "xhel",
	".VI": "xwbo",
	".SW": "xswx",
	".TO": "xtse",
	".V":  "xtsx",
	".T":  "xtks",
	".HK": "xhkg",
	".AX": "xasx",
	".KS": "xkrx",
	".TW": "xtai",
	".SS": "xshg",
	".SZ": "xshe",
}

// TradingCalendar answers open/closed questions for one exchange.
type TradingCalendar struct {
	MIC      string
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

var (
	calendarsMu sync.Mutex
	calendars   = map[string]*TradingCalendar{}
)

// -----------------------------------------------------------------------------

// MICForSymbol returns the exchange code of symbol from its suffix.
func MICForSymbol(symbol string) string {
	if i := strings.LastIndex(symbol, "."); i > 0 {
		if mic, ok := suffixMIC[strings.ToUpper(symbol[i:])]; ok {
			return mic
		}
	}
	return defaultMIC
}

// GetCalendar returns the (shared) calendar of symbol's exchange.
func GetCalendar(symbol string) *TradingCalendar {
	mic := MICForSymbol(symbol)

	calendarsMu.Lock()
	defer calendarsMu.Unlock()

	if tc, ok := calendars[mic]; ok {
		return tc
	}
	tc := loadCalendar(mic)
	calendars[mic] = tc
	return tc
}

func loadCalendar(mic string) *TradingCalendar {
	cal := calendar.GetCalendar(mic)
	if cal == nil && mic != defaultMIC {
		mic = defaultMIC
		cal = calendar.GetCalendar(mic)
	}
	if cal != nil {
		return &TradingCalendar{MIC: mic, Calendar: cal, Timezone: cal.Loc}
	}

	// Mon-Fri 09:30-16:00 New York
	nyLoc, err := time.LoadLocation("America/New_York")
	if err != nil {
		nyLoc = time.UTC
	}
	return &TradingCalendar{MIC: mic, Fallback: true, Timezone: nyLoc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks if the market is open at a specific minute.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}
		hour, minute := t.Hour(), t.Minute()
		return (hour > 9 || (hour == 9 && minute >= 30)) && hour < 16
	}

	return tc.Calendar.IsOpen(t)
}
