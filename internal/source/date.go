package source

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

var (
	separatedDatePattern = regexp.MustCompile(`(\d{4})\s*[-/.年]\s*(\d{1,2})\s*[-/.月]\s*(\d{1,2})`)
	compactDatePattern   = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
)

// DateParts is a birth date as separate components, as most sources present it.
type DateParts struct {
	Year  int
	Month int
	Day   int
}

// Valid reports whether the parts describe a real calendar date.
func (d DateParts) Valid() bool {
	if d.Year < 1000 || d.Year > 9999 || d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	return t.Year() == d.Year && int(t.Month()) == d.Month && t.Day() == d.Day
}

// String renders the date as YYYY-MM-DD, or "" when invalid.
func (d DateParts) String() string {
	if !d.Valid() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ParseBirth extracts the first date found in raw text. Accepted shapes
// include 1990-01-02, 1990/1/2, 1990.1.2, 1990年1月2日 and 19900102; full-width
// digits are folded first.
func ParseBirth(raw string) (DateParts, bool) {
	text := strings.TrimSpace(norm.NFKC.String(raw))
	if text == "" {
		return DateParts{}, false
	}
	var match []string
	if m := compactDatePattern.FindStringSubmatch(text); m != nil {
		match = m
	} else if m := separatedDatePattern.FindStringSubmatch(text); m != nil {
		match = m
	} else {
		return DateParts{}, false
	}
	year, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	day, _ := strconv.Atoi(match[3])
	parts := DateParts{Year: year, Month: month, Day: day}
	if !parts.Valid() {
		return DateParts{}, false
	}
	return parts, true
}

// NormalizeBirth returns raw as YYYY-MM-DD, or "" when no valid date is found.
func NormalizeBirth(raw string) string {
	parts, ok := ParseBirth(raw)
	if !ok {
		return ""
	}
	return parts.String()
}
