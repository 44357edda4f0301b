package rules

import (
	"github.com/yorozuya-cybersecurity/csafcheck/internal/csaf"
	"github.com/yorozuya-cybersecurity/csafcheck/internal/validation"
)

// DateAndTime is 6.1.37: tracking dates must be RFC 3339 date-times with a UTC offset.
func DateAndTime(doc csaf.Document) []validation.ValidationError {
	tracking := doc.Meta().Tracking()
	var errs []validation.ValidationError
	check := func(value, path string) {
		if _, err := csaf.ParseTimestamp(value); err != nil {
			errs = append(errs, validation.Errorf(path, "Invalid date-time string %s", value))
		}
	}

	check(tracking.InitialReleaseDate(), "/document/tracking/initial_release_date")
	check(tracking.CurrentReleaseDate(), "/document/tracking/current_release_date")
	for i, rev := range tracking.RevisionHistory() {
		check(rev.Date(), revisionPath(i)+"/date")
	}
	return errs
}
