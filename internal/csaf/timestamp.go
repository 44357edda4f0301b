package csaf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	errFractionSeparator = errors.New("fractional seconds must be separated by '.'")
	errOffsetRange       = errors.New("utc offset out of range")
)

// ParseTimestamp parses an RFC 3339 date-time with a mandatory UTC offset (or Z).
// The T and Z designators may be lower case.
func ParseTimestamp(s string) (time.Time, error) {
	norm := s
	if len(norm) > 10 && norm[10] == 't' {
		norm = norm[:10] + "T" + norm[11:]
	}
	if strings.HasSuffix(norm, "z") {
		norm = norm[:len(norm)-1] + "Z"
	}
	if strings.ContainsRune(norm, ',') {
		return time.Time{}, fmt.Errorf("parse %q as RFC 3339: %w", s, errFractionSeparator)
	}
	if err := checkOffset(norm); err != nil {
		return time.Time{}, fmt.Errorf("parse %q as RFC 3339: %w", s, err)
	}
	t, err := time.Parse(time.RFC3339Nano, norm)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q as RFC 3339: %w", s, err)
	}
	return t, nil
}

// checkOffset rejects numeric offsets with hours above 23 or minutes above 59.
// Malformed offsets are left to time.Parse.
func checkOffset(s string) error {
	if len(s) < 6 {
		return nil
	}
	off := s[len(s)-6:]
	if (off[0] != '+' && off[0] != '-') || off[3] != ':' {
		return nil
	}
	hh, err1 := strconv.Atoi(off[1:3])
	mm, err2 := strconv.Atoi(off[4:6])
	if err1 != nil || err2 != nil {
		return nil
	}
	if hh > 23 || mm > 59 {
		return fmt.Errorf("%w: %s", errOffsetRange, off)
	}
	return nil
}

// FormatTimestamp renders t in RFC 3339 form with a numeric offset (+00:00, never Z).
// Fractional seconds are omitted when zero and otherwise printed in groups of 3, 6 or 9 digits.
func FormatTimestamp(t time.Time) string {
	layout := "2006-01-02T15:04:05-07:00"
	switch ns := t.Nanosecond(); {
	case ns == 0:
	case ns%int(time.Millisecond) == 0:
		layout = "2006-01-02T15:04:05.000-07:00"
	case ns%int(time.Microsecond) == 0:
		layout = "2006-01-02T15:04:05.000000-07:00"
	default:
		layout = "2006-01-02T15:04:05.000000000-07:00"
	}
	return t.Format(layout)
}

// Offset returns the UTC offset of t in seconds east of UTC.
func Offset(t time.Time) int {
	_, off := t.Zone()
	return off
}
