package models

import "strings"

// -----------------------------------------------------------------------------
// Timeframe codes
// -----------------------------------------------------------------------------

// TimeframeIDs maps the public timeframe codes to the terminal's internal
// identifiers (minute-based codes are plain minute counts; the rest carry
// the terminal's composite flags).
var TimeframeIDs = map[string]int{
	"M1":  1,
	"M2":  2,
	"M3":  3,
	"M4":  4,
	"M5":  5,
	"M6":  6,
	"M10": 10,
	"M12": 12,
	"M15": 15,
	"M20": 20,
	"M30": 30,
	"H1":  16385,
	"H2":  16386,
	"H3":  16387,
	"H4":  16388,
	"H6":  16390,
	"H8":  16392,
	"H12": 16396,
	"D1":  16408,
	"W1":  32769,
	"MN1": 49153,
}

// TimeframeID resolves a code (any case) to its terminal identifier.
func TimeframeID(code string) (int, bool) {
	id, ok := TimeframeIDs[strings.ToUpper(code)]
	return id, ok
}

// TimeframeSeconds returns the bar duration for a code, for bucket-aligned
// candle synthesis. Unknown codes return 0.
func TimeframeSeconds(code string) int64 {
	switch strings.ToUpper(code) {
	case "M1":
		return 60
	case "M2":
		return 120
	case "M3":
		return 180
	case "M4":
		return 240
	case "M5":
		return 300
	case "M6":
		return 360
	case "M10":
		return 600
	case "M12":
		return 720
	case "M15":
		return 900
	case "M20":
		return 1200
	case "M30":
		return 1800
	case "H1":
		return 3600
	case "H2":
		return 7200
	case "H3":
		return 10800
	case "H4":
		return 14400
	case "H6":
		return 21600
	case "H8":
		return 28800
	case "H12":
		return 43200
	case "D1":
		return 86400
	case "W1":
		return 604800
	case "MN1":
		return 2592000
	default:
		return 0
	}
}

// SecondsForTimeframeID is the reverse lookup used by terminal-side candle
// synthesis, which only sees the numeric identifier.
func SecondsForTimeframeID(id int) int64 {
	for code, tfID := range TimeframeIDs {
		if tfID == id {
			return TimeframeSeconds(code)
		}
	}
	return 0
}
