// Package csaf21 holds the CSAF 2.1 document model.
package csaf21

import "encoding/json"

// Version is the csaf_version value handled by this package.
const Version = "2.1"

// Advisory is a CSAF 2.1 document as decoded from JSON
type Advisory struct {
	Document        Meta            `json:"document"`
	ProductTree     *ProductTree    `json:"product_tree,omitempty"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities,omitempty"`
}

// Meta is the /document object
type Meta struct {
	Category    string    `json:"category"`
	CSAFVersion string    `json:"csaf_version"`
	Title       string    `json:"title"`
	Lang        string    `json:"lang,omitempty"`
	Publisher   Publisher `json:"publisher"`
	Tracking    Tracking  `json:"tracking"`
}

type Publisher struct {
	Category  string `json:"category"`
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
}

type Tracking struct {
	ID                 string     `json:"id"`
	Status             string     `json:"status"`
	Version            string     `json:"version"`
	InitialReleaseDate string     `json:"initial_release_date"`
	CurrentReleaseDate string     `json:"current_release_date"`
	RevisionHistory    []Revision `json:"revision_history"`
}

type Revision struct {
	Date    string `json:"date"`
	Number  string `json:"number"`
	Summary string `json:"summary"`
}

type ProductTree struct {
	Branches         []Branch          `json:"branches,omitempty"`
	FullProductNames []FullProductName `json:"full_product_names,omitempty"`
	Relationships    []Relationship    `json:"relationships,omitempty"`
}

type Branch struct {
	Category string           `json:"category"`
	Name     string           `json:"name"`
	Branches []Branch         `json:"branches,omitempty"`
	Product  *FullProductName `json:"product,omitempty"`
}

type FullProductName struct {
	Name                        string                       `json:"name"`
	ProductID                   string                       `json:"product_id"`
	ProductIdentificationHelper *ProductIdentificationHelper `json:"product_identification_helper,omitempty"`
}

// ProductIdentificationHelper carries a list of PURLs in 2.1.
type ProductIdentificationHelper struct {
	CPE   string   `json:"cpe,omitempty"`
	PURLs []string `json:"purls,omitempty"`
}

type Relationship struct {
	Category                  string          `json:"category"`
	ProductReference          string          `json:"product_reference"`
	RelatesToProductReference string          `json:"relates_to_product_reference"`
	FullProductName           FullProductName `json:"full_product_name"`
}

type Vulnerability struct {
	CVE     string    `json:"cve,omitempty"`
	Title   string    `json:"title,omitempty"`
	Metrics *[]Metric `json:"metrics,omitempty"`
}

type Metric struct {
	Content  Content  `json:"content"`
	Products []string `json:"products"`
}

// Content keeps ssvc_v2 undecoded; it is decoded on access so a malformed
// object does not prevent the rest of the document from loading.
type Content struct {
	CVSSv2 *CVSS           `json:"cvss_v2,omitempty"`
	CVSSv3 *CVSS           `json:"cvss_v3,omitempty"`
	CVSSv4 *CVSS           `json:"cvss_v4,omitempty"`
	SSVCv2 json.RawMessage `json:"ssvc_v2,omitempty"`
}

type CVSS struct {
	Version      string  `json:"version"`
	VectorString string  `json:"vectorString"`
	BaseScore    float64 `json:"baseScore"`
	BaseSeverity string  `json:"baseSeverity,omitempty"`
}

type ssvcObject struct {
	ID            string            `json:"id"`
	SchemaVersion string            `json:"schemaVersion"`
	Role          string            `json:"role,omitempty"`
	Timestamp     *string           `json:"timestamp"`
	Selections    []json.RawMessage `json:"selections"`
}
