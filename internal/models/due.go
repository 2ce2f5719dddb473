package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is how due dates are typed and shown
const DateLayout = "2006-01-02"

// MaxDueYear is the last year a due date can be stored in
const MaxDueYear = 9999

// maxDueOffset keeps +N small enough that day arithmetic cannot overflow
const maxDueOffset = 366 * MaxDueYear

// checkDueDate rejects due dates that cannot be written as RFC 3339
func checkDueDate(due time.Time) error {
	if y := due.Year(); y < 0 || y > MaxDueYear {
		return fmt.Errorf("%w: due date year %d is outside 0-%d", ErrInvalidInput, y, MaxDueYear)
	}
	return nil
}

// ParseDueDate reads a due date typed by the user. It accepts an empty string
// (no due date), YYYY-MM-DD, "today", "tomorrow" or "+N" days from now. The
// result is the last second of that day in now's location.
func ParseDueDate(s string, now time.Time) (*time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	var day time.Time
	switch {
	case s == "":
		return nil, nil
	case s == "today":
		day = now
	case s == "tomorrow":
		day = now.AddDate(0, 0, 1)
	case strings.HasPrefix(s, "+"):
		n, err := strconv.Atoi(s[1:])
		if err != nil || n < 0 || n > maxDueOffset {
			return nil, fmt.Errorf("%w: due date %q", ErrInvalidInput, s)
		}
		day = now.AddDate(0, 0, n)
	default:
		d, err := time.ParseInLocation(DateLayout, s, now.Location())
		if err != nil {
			return nil, fmt.Errorf("%w: due date %q is not YYYY-MM-DD", ErrInvalidInput, s)
		}
		day = d
	}
	y, m, d := day.Date()
	due := time.Date(y, m, d, 23, 59, 59, 0, now.Location())
	if err := checkDueDate(due); err != nil {
		return nil, err
	}
	return &due, nil
}
