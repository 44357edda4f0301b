package rules

import (
	"github.com/package-url/packageurl-go"

	"github.com/yorozuya-cybersecurity/csafcheck/internal/csaf"
	"github.com/yorozuya-cybersecurity/csafcheck/internal/validation"
)

// InvalidPURL is 6.1.13: every PURL in the product tree must be a valid package URL.
func InvalidPURL(doc csaf.Document) []validation.ValidationError {
	tree, ok := doc.ProductTree()
	if !ok {
		return nil
	}
	var errs []validation.ValidationError
	for _, p := range tree.FullProductNames() {
		for i, purl := range p.PURLs() {
			if _, err := packageurl.FromString(purl); err != nil {
				errs = append(errs, validation.Errorf(doc.Paths().PURL(p.Path(), i), "Invalid PURL %s: %v", purl, err))
			}
		}
	}
	return errs
}
