// Package duration converts human-written duration literals such as "2 days",
// "1.5h" or "500ms" into a number of milliseconds, and back.
package duration

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnparsable is returned when a literal is malformed or names an unknown unit.
var ErrUnparsable = errors.New("duration: unparsable literal")

// Unit sizes in milliseconds.
const (
	Millisecond float64 = 1
	Second              = 1000 * Millisecond
	Minute              = 60 * Second
	Hour                = 60 * Minute
	Day                 = 24 * Hour
	Week                = 7 * Day
	Year                = 365.25 * Day
)

var literal = regexp.MustCompile(`^(-?(?:\d+)?\.?\d+) *([A-Za-z]+)?$`)

var units = map[string]float64{
	"years": Year, "year": Year, "yrs": Year, "yr": Year, "y": Year,
	"weeks": Week, "week": Week, "w": Week,
	"days": Day, "day": Day, "d": Day,
	"hours": Hour, "hour": Hour, "hrs": Hour, "hr": Hour, "h": Hour,
	"minutes": Minute, "minute": Minute, "mins": Minute, "min": Minute, "m": Minute,
	"seconds": Second, "second": Second, "secs": Second, "sec": Second, "s": Second,
	"milliseconds": Millisecond, "millisecond": Millisecond, "msecs": Millisecond,
	"msec": Millisecond, "ms": Millisecond,
}

// Parse returns the number of milliseconds a literal stands for. A bare number
// is read as milliseconds. Units are matched case-insensitively.
func Parse(s string) (float64, error) {
	m := literal.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, ErrUnparsable
	}

	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, ErrUnparsable
	}

	unit := "ms"
	if m[2] != "" {
		unit = strings.ToLower(m[2])
	}
	size, ok := units[unit]
	if !ok {
		return 0, ErrUnparsable
	}
	return n * size, nil
}

// MustParse is like Parse but panics if the literal cannot be parsed.
func MustParse(s string) float64 {
	ms, err := Parse(s)
	if err != nil {
		panic(`duration: Parse(` + strconv.Quote(s) + `): ` + err.Error())
	}
	return ms
}

// Format renders ms in its short form using the largest unit that fits,
// rounded to a whole number: 172800000 -> "2d", 1500 -> "2s", 250 -> "250ms".
func Format(ms float64) string {
	abs := math.Abs(ms)
	switch {
	case abs >= Day:
		return round(ms, Day) + "d"
	case abs >= Hour:
		return round(ms, Hour) + "h"
	case abs >= Minute:
		return round(ms, Minute) + "m"
	case abs >= Second:
		return round(ms, Second) + "s"
	}
	return strconv.FormatFloat(ms, 'f', -1, 64) + "ms"
}

func round(ms, unit float64) string {
	return strconv.FormatFloat(math.Round(ms/unit), 'f', -1, 64)
}
