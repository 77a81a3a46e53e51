package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var longDateRegex = regexp.MustCompile(`^(\d{1,2})\s+de\s+(\p{L}+)\s+(?:de|del)\s+(\d{4})$`)

// FormatLongDate renders t in its own location as "02 de enero de 2006".
func FormatLongDate(t time.Time) string {
	return fmt.Sprintf("%02d de %s de %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

// parseLongDate is the inverse of FormatLongDate and yields midnight in loc.
func parseLongDate(value string, loc *time.Location) (time.Time, error) {
	match := longDateRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(value)))
	if match == nil {
		return time.Time{}, fmt.Errorf("not a long-form date: %q", value)
	}

	day, _ := strconv.Atoi(match[1])
	year, _ := strconv.Atoi(match[3])
	month := monthNumber(match[2])
	if month == 0 {
		return time.Time{}, fmt.Errorf("unknown month %q", match[2])
	}

	parsed := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if parsed.Day() != day {
		return time.Time{}, fmt.Errorf("day %d out of range for %s %d", day, match[2], year)
	}
	return parsed, nil
}

func monthNumber(name string) time.Month {
	if name == "setiembre" {
		return time.September
	}
	for i, m := range monthNames {
		if m == name {
			return time.Month(i + 1)
		}
	}
	return 0
}
