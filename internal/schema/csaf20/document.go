package csaf20

import (
	"encoding/json"
	"fmt"

	"github.com/yorozuya-cybersecurity/csafcheck/internal/csaf"
)

// Parse decodes a CSAF 2.0 document.
func Parse(data []byte) (csaf.Document, error) {
	var a Advisory
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode csaf 2.0 document: %w", err)
	}
	return New(&a), nil
}

// New wraps an already decoded advisory.
func New(a *Advisory) csaf.Document {
	return document{a: a}
}

type document struct{ a *Advisory }

func (d document) Meta() csaf.DocumentMetadata { return meta{m: &d.a.Document} }
func (d document) Paths() csaf.Addressing      { return addressing{} }

func (d document) Vulnerabilities() []csaf.Vulnerability {
	out := make([]csaf.Vulnerability, len(d.a.Vulnerabilities))
	for i := range d.a.Vulnerabilities {
		out[i] = vulnerability{v: &d.a.Vulnerabilities[i]}
	}
	return out
}

func (d document) ProductTree() (csaf.ProductTree, bool) {
	if d.a.ProductTree == nil {
		return nil, false
	}
	return productTree{t: d.a.ProductTree}, true
}

type meta struct{ m *Meta }

func (m meta) CSAFVersion() string     { return m.m.CSAFVersion }
func (m meta) Tracking() csaf.Tracking { return tracking{t: &m.m.Tracking} }

type tracking struct{ t *Tracking }

func (t tracking) ID() string                  { return t.t.ID }
func (t tracking) Status() csaf.DocumentStatus { return csaf.ParseStatus(t.t.Status) }
func (t tracking) Version() string             { return t.t.Version }
func (t tracking) InitialReleaseDate() string  { return t.t.InitialReleaseDate }
func (t tracking) CurrentReleaseDate() string  { return t.t.CurrentReleaseDate }

func (t tracking) RevisionHistory() []csaf.Revision {
	out := make([]csaf.Revision, len(t.t.RevisionHistory))
	for i := range t.t.RevisionHistory {
		out[i] = revision{r: &t.t.RevisionHistory[i]}
	}
	return out
}

type revision struct{ r *Revision }

func (r revision) Date() string    { return r.r.Date }
func (r revision) Number() string  { return r.r.Number }
func (r revision) Summary() string { return r.r.Summary }

type vulnerability struct{ v *Vulnerability }

func (v vulnerability) CVE() string { return v.v.CVE }

// Metrics exposes the 2.0 scores as metrics.
func (v vulnerability) Metrics() ([]csaf.Metric, bool) {
	if v.v.Scores == nil {
		return nil, false
	}
	scores := *v.v.Scores
	out := make([]csaf.Metric, len(scores))
	for i := range scores {
		out[i] = score{s: &scores[i]}
	}
	return out, true
}

// score is both the metric and its content; 2.0 has no nesting between the two.
type score struct{ s *Score }

func (s score) Content() csaf.Content { return s }
func (s score) Products() []string    { return s.s.Products }

// SSVC did not exist in CSAF 2.0.
func (s score) HasSSVC() bool            { return false }
func (s score) SSVC() (csaf.SSVC, error) { return csaf.SSVC{}, csaf.ErrNoSSVC }

func (s score) CVSS() []csaf.CVSS {
	var out []csaf.CVSS
	if c := s.s.CVSSv2; c != nil {
		out = append(out, convert(csaf.KeyCVSSv2, c))
	}
	if c := s.s.CVSSv3; c != nil {
		out = append(out, convert(csaf.KeyCVSSv3, c))
	}
	return out
}

func convert(key string, c *CVSS) csaf.CVSS {
	return csaf.CVSS{
		Key:          key,
		Version:      c.Version,
		VectorString: c.VectorString,
		BaseScore:    c.BaseScore,
		BaseSeverity: c.BaseSeverity,
	}
}

type productTree struct{ t *ProductTree }

func (p productTree) FullProductNames() []csaf.FullProductName {
	var out []csaf.FullProductName
	for i := range p.t.FullProductNames {
		out = append(out, product{p: &p.t.FullProductNames[i], path: fmt.Sprintf("/product_tree/full_product_names/%d", i)})
	}
	out = walkBranches(out, p.t.Branches, "/product_tree")
	for i := range p.t.Relationships {
		out = append(out, product{p: &p.t.Relationships[i].FullProductName, path: fmt.Sprintf("/product_tree/relationships/%d/full_product_name", i)})
	}
	return out
}

func walkBranches(out []csaf.FullProductName, branches []Branch, parent string) []csaf.FullProductName {
	for i := range branches {
		path := fmt.Sprintf("%s/branches/%d", parent, i)
		if branches[i].Product != nil {
			out = append(out, product{p: branches[i].Product, path: path + "/product"})
		}
		out = walkBranches(out, branches[i].Branches, path)
	}
	return out
}

type product struct {
	p    *FullProductName
	path string
}

func (p product) ProductID() string { return p.p.ProductID }
func (p product) Name() string      { return p.p.Name }
func (p product) Path() string      { return p.path }

func (p product) PURLs() []string {
	if h := p.p.ProductIdentificationHelper; h != nil && h.PURL != "" {
		return []string{h.PURL}
	}
	return nil
}

type addressing struct{}

func (addressing) MetricContent(v, m int) string {
	return fmt.Sprintf("/vulnerabilities/%d/scores/%d", v, m)
}

// PURL ignores i: a 2.0 product has a single purl field.
func (addressing) PURL(productPath string, _ int) string {
	return productPath + "/product_identification_helper/purl"
}
