package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/yorozuya-cybersecurity/csafcheck/internal/csaf"
	"github.com/yorozuya-cybersecurity/csafcheck/internal/validation"
)

// TimestampOrder decides when an SSVC timestamp counts as later than the newest revision date.
type TimestampOrder string

const (
	// OrderInstant compares instants. Equal instants are ordered by UTC offset, so
	// 10:00+02:00 is later than 08:00+00:00.
	OrderInstant TimestampOrder = "instant"
	// OrderOffset compares only the UTC offsets and ignores the instants. This is how
	// the upstream reference validator behaves.
	OrderOffset TimestampOrder = "offset"
)

// ParseTimestampOrder accepts "instant" or "offset"; empty selects OrderInstant.
func ParseTimestampOrder(s string) (TimestampOrder, error) {
	switch TimestampOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderInstant:
		return OrderInstant, nil
	case OrderOffset:
		return OrderOffset, nil
	default:
		return "", fmt.Errorf("unknown ssvc timestamp order %q (want instant or offset)", s)
	}
}

func (o TimestampOrder) later(a, b time.Time) bool {
	if o == OrderOffset {
		return csaf.Offset(a) > csaf.Offset(b)
	}
	if !a.Equal(b) {
		return a.After(b)
	}
	return csaf.Offset(a) > csaf.Offset(b)
}

// InconsistentSSVCTimestamp is 6.1.49 with OrderInstant. This is not the upstream reference
// comparison, which looks only at UTC offsets: here a later instant always fails, and the
// offsets only break ties between equal instants. Use CheckSSVCTimestamp(OrderOffset) for the
// offset-only behaviour.
func InconsistentSSVCTimestamp(doc csaf.Document) []validation.ValidationError {
	return CheckSSVCTimestamp(OrderInstant)(doc)
}

// CheckSSVCTimestamp builds 6.1.49 (Inconsistent SSVC Timestamp): once a document is final or
// interim, no SSVC timestamp may be later than the date of the newest revision.
// The rule stops at the first violation it finds.
func CheckSSVCTimestamp(order TimestampOrder) validation.Func {
	return func(doc csaf.Document) []validation.ValidationError {
		tracking := doc.Meta().Tracking()
		if !tracking.Status().Released() {
			return nil
		}

		var newest time.Time
		found := false
		for i, rev := range tracking.RevisionHistory() {
			date, err := csaf.ParseTimestamp(rev.Date())
			if err != nil {
				return []validation.ValidationError{validation.Errorf(
					revisionPath(i)+"/date",
					"Invalid date format in revision history: %s", rev.Date(),
				)}
			}
			// ties go to the later entry
			if !found || !date.Before(newest) {
				newest = date
				found = true
			}
		}
		if !found {
			return []validation.ValidationError{{
				Message:      "Revision history must not be empty for status final or interim",
				InstancePath: revisionHistoryPath,
			}}
		}

		for v, vuln := range doc.Vulnerabilities() {
			metrics, ok := vuln.Metrics()
			if !ok {
				continue
			}
			for m, metric := range metrics {
				content := metric.Content()
				if !content.HasSSVC() {
					continue
				}
				path := doc.Paths().MetricContent(v, m) + "/ssvc_v2"
				ssvc, err := content.SSVC()
				if err != nil {
					return []validation.ValidationError{validation.Errorf(path, "Invalid SSVC object: %v", err)}
				}
				if order.later(ssvc.Timestamp, newest) {
					return []validation.ValidationError{validation.Errorf(
						path+"/timestamp",
						"SSVC timestamp (%s) for vulnerability at index %d is later than the newest revision date (%s)",
						csaf.FormatTimestamp(ssvc.Timestamp), v, csaf.FormatTimestamp(newest),
					)}
				}
			}
		}
		return nil
	}
}
