// Package csaf describes the semantic shape of a CSAF advisory without committing to one
// schema version. Every supported version implements these interfaces; rules read documents
// only through them.
package csaf

// Document is the root of an advisory.
type Document interface {
	Meta() DocumentMetadata
	Vulnerabilities() []Vulnerability
	// ProductTree reports false when the document carries no product_tree.
	ProductTree() (ProductTree, bool)
	Paths() Addressing
}

// DocumentMetadata is the /document object.
type DocumentMetadata interface {
	CSAFVersion() string
	Tracking() Tracking
}

// Tracking is /document/tracking.
type Tracking interface {
	ID() string
	Status() DocumentStatus
	Version() string
	InitialReleaseDate() string
	CurrentReleaseDate() string
	// RevisionHistory is returned in document order, which is not guaranteed to be sorted.
	RevisionHistory() []Revision
}

// Revision is one entry of the revision history. Date is the raw text as stored.
type Revision interface {
	Date() string
	Number() string
	Summary() string
}

// Vulnerability is one item of /vulnerabilities.
type Vulnerability interface {
	CVE() string
	// Metrics reports false when the vulnerability has no metrics at all.
	Metrics() ([]Metric, bool)
}

// Metric pairs scoring content with the products it applies to.
type Metric interface {
	Content() Content
	Products() []string
}

// Content carries the scoring systems attached to a metric.
type Content interface {
	HasSSVC() bool
	// SSVC decodes the SSVC object. It fails when the object is malformed or when
	// HasSSVC is false.
	SSVC() (SSVC, error)
	CVSS() []CVSS
}

// ProductTree is /product_tree.
type ProductTree interface {
	// FullProductNames flattens full_product_names, branches and relationships.
	FullProductNames() []FullProductName
}

// FullProductName is a product definition wherever it occurs in the product tree.
type FullProductName interface {
	ProductID() string
	Name() string
	// Path is the instance path of the full_product_name object.
	Path() string
	PURLs() []string
}

// Addressing builds instance paths for locations whose layout differs between versions.
type Addressing interface {
	// MetricContent addresses the scoring content of metric m of vulnerability v.
	MetricContent(v, m int) string
	// PURL addresses the i-th PURL of the product at productPath.
	PURL(productPath string, i int) string
}
