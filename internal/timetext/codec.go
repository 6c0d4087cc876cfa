// Package timetext converts between ASCII digits and the Arabic-Indic digit
// glyphs used on the dashboard, and parses the localized 12-hour time and
// calendar date strings attached to bookings.
package timetext

import (
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Period markers appended to 12-hour time strings.
const (
	MarkerMorning = "بەیانی"
	MarkerNoon    = "نیوەڕۆ"
	MarkerEvening = "ئێوارە"
)

// ErrInvalidDate indicates a calendar date string that cannot be scheduled:
// no recognized separator, wrong component count, or non-numeric components.
var ErrInvalidDate = errors.New("timetext: invalid calendar date")

const (
	asciiZero     = '0'
	localizedZero = '٠' // ٠
)

var (
	toLocalized = runes.Map(func(r rune) rune {
		if r >= asciiZero && r <= asciiZero+9 {
			return localizedZero + (r - asciiZero)
		}
		return r
	})
	toASCII = runes.Map(func(r rune) rune {
		if r >= localizedZero && r <= localizedZero+9 {
			return asciiZero + (r - localizedZero)
		}
		return r
	})
)

// ToLocalizedDigits replaces every ASCII digit in s with the corresponding
// Arabic-Indic glyph. All other runes pass through unchanged, so composite
// strings such as "12:30" keep their separators.
func ToLocalizedDigits(s string) string {
	out, _, err := transform.String(toLocalized, s)
	if err != nil {
		return s
	}
	return out
}

// ToAsciiDigits is the exact inverse of ToLocalizedDigits.
func ToAsciiDigits(s string) string {
	out, _, err := transform.String(toASCII, s)
	if err != nil {
		return s
	}
	return out
}

// ParseTimeOfDay resolves a localized 12-hour time string with a trailing
// period marker into minutes since midnight (0..1439).
//
// The marker rules follow the dashboard's three-marker convention: morning
// keeps the hour (12 becomes 0), noon and evening add twelve hours unless the
// hour is already 12. A string without a recognizable hh:mm pair or period
// marker resolves to 0 rather than an error, so one malformed booking cannot
// stall the per-second recomputation of all others.
func ParseTimeOfDay(text string) int {
	normalized := ToAsciiDigits(text)

	hour, minute, ok := splitHourMinute(normalized)
	if !ok {
		return 0
	}

	switch {
	case strings.Contains(normalized, MarkerMorning):
		if hour == 12 {
			hour = 0
		}
	case strings.Contains(normalized, MarkerNoon), strings.Contains(normalized, MarkerEvening):
		if hour != 12 {
			hour += 12
		}
	default:
		return 0
	}

	total := hour*60 + minute
	if total < 0 || total > 23*60+59 {
		return 0
	}
	return total
}

// ParseCalendarDate parses a localized day-month-year date string separated by
// "-" or "/". Components outside those two separators, or non-numeric
// components, yield ErrInvalidDate.
func ParseCalendarDate(text string) (day, month, year int, err error) {
	normalized := strings.TrimSpace(ToAsciiDigits(text))

	var parts []string
	switch {
	case strings.Contains(normalized, "-"):
		parts = strings.Split(normalized, "-")
	case strings.Contains(normalized, "/"):
		parts = strings.Split(normalized, "/")
	default:
		return 0, 0, 0, ErrInvalidDate
	}

	if len(parts) != 3 {
		return 0, 0, 0, ErrInvalidDate
	}

	numbers := make([]int, 3)
	for i, part := range parts {
		value, convErr := strconv.Atoi(strings.TrimSpace(part))
		if convErr != nil {
			return 0, 0, 0, ErrInvalidDate
		}
		numbers[i] = value
	}

	day, month, year = numbers[0], numbers[1], numbers[2]
	if year < 100 {
		year += 2000
	}
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return 0, 0, 0, ErrInvalidDate
	}
	return day, month, year, nil
}

// splitHourMinute extracts the first hh:mm pair from a normalized string.
func splitHourMinute(s string) (hour, minute int, ok bool) {
	colon := strings.IndexByte(s, ':')
	if colon <= 0 {
		return 0, 0, false
	}

	hourStart := colon
	for hourStart > 0 && isASCIIDigit(s[hourStart-1]) {
		hourStart--
	}
	if hourStart == colon {
		return 0, 0, false
	}

	minuteEnd := colon + 1
	for minuteEnd < len(s) && isASCIIDigit(s[minuteEnd]) {
		minuteEnd++
	}
	if minuteEnd == colon+1 {
		return 0, 0, false
	}

	hour, err := strconv.Atoi(s[hourStart:colon])
	if err != nil {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(s[colon+1 : minuteEnd])
	if err != nil {
		return 0, 0, false
	}
	if hour < 0 || hour > 12 || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

func isASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
