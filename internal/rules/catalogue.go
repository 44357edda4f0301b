// Package rules is the catalogue of CSAF mandatory tests (section 6.1 of the CSAF standard).
// Every rule is a validation.Func reading the document only through package csaf.
package rules

import "github.com/yorozuya-cybersecurity/csafcheck/internal/validation"

// Options switches behaviour of individual rules.
type Options struct {
	// SSVCTimestampOrder selects the comparison used by 6.1.49. Empty means OrderInstant, which
	// differs from the offset-only upstream comparison (OrderOffset).
	SSVCTimestampOrder TimestampOrder
}

// Catalogue returns the mandatory tests in section order.
func Catalogue(opts Options) validation.Catalogue {
	order := opts.SSVCTimestampOrder
	if order == "" {
		order = OrderInstant
	}
	return validation.MustCatalogue(
		validation.Rule{ID: "6.1.8", Name: "Invalid CVSS", Check: InvalidCVSS},
		validation.Rule{ID: "6.1.9", Name: "Invalid CVSS computation", Check: InvalidCVSSComputation},
		validation.Rule{ID: "6.1.13", Name: "PURL", Check: InvalidPURL},
		validation.Rule{ID: "6.1.14", Name: "Sorted Revision History", Check: SortedRevisionHistory},
		validation.Rule{ID: "6.1.16", Name: "Latest Document Version", Check: LatestDocumentVersion},
		validation.Rule{ID: "6.1.37", Name: "Date and Time", Check: DateAndTime},
		validation.Rule{ID: "6.1.49", Name: "Inconsistent SSVC Timestamp", Check: CheckSSVCTimestamp(order)},
	)
}

// Default is Catalogue with zero Options.
func Default() validation.Catalogue {
	return Catalogue(Options{})
}
