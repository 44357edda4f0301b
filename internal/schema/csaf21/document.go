package csaf21

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yorozuya-cybersecurity/csafcheck/internal/csaf"
)

// Parse decodes a CSAF 2.1 document.
func Parse(data []byte) (csaf.Document, error) {
	var a Advisory
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode csaf 2.1 document: %w", err)
	}
	return New(&a), nil
}

// New wraps an already decoded advisory.
func New(a *Advisory) csaf.Document {
	return document{a: a}
}

type document struct{ a *Advisory }

func (d document) Meta() csaf.DocumentMetadata { return meta{m: &d.a.Document} }

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

func (d document) Paths() csaf.Addressing { return addressing{} }

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

func (v vulnerability) Metrics() ([]csaf.Metric, bool) {
	if v.v.Metrics == nil {
		return nil, false
	}
	ms := *v.v.Metrics
	out := make([]csaf.Metric, len(ms))
	for i := range ms {
		out[i] = metric{m: &ms[i]}
	}
	return out, true
}

type metric struct{ m *Metric }

func (m metric) Content() csaf.Content { return content{c: &m.m.Content} }
func (m metric) Products() []string    { return m.m.Products }

type content struct{ c *Content }

func (c content) HasSSVC() bool {
	raw := bytes.TrimSpace(c.c.SSVCv2)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func (c content) SSVC() (csaf.SSVC, error) {
	if !c.HasSSVC() {
		return csaf.SSVC{}, csaf.ErrNoSSVC
	}
	var obj ssvcObject
	if err := json.Unmarshal(c.c.SSVCv2, &obj); err != nil {
		return csaf.SSVC{}, fmt.Errorf("decode ssvc_v2: %w", err)
	}
	if obj.ID == "" {
		return csaf.SSVC{}, errors.New("missing field `id`")
	}
	if obj.Timestamp == nil {
		return csaf.SSVC{}, errors.New("missing field `timestamp`")
	}
	if len(obj.Selections) == 0 {
		return csaf.SSVC{}, errors.New("field `selections` must contain at least one item")
	}
	ts, err := csaf.ParseTimestamp(*obj.Timestamp)
	if err != nil {
		return csaf.SSVC{}, fmt.Errorf("timestamp: %w", err)
	}
	return csaf.SSVC{
		ID:            obj.ID,
		SchemaVersion: obj.SchemaVersion,
		Role:          obj.Role,
		Timestamp:     ts,
		Selections:    len(obj.Selections),
	}, nil
}

func (c content) CVSS() []csaf.CVSS {
	var out []csaf.CVSS
	for _, e := range []struct {
		key string
		v   *CVSS
	}{
		{csaf.KeyCVSSv2, c.c.CVSSv2},
		{csaf.KeyCVSSv3, c.c.CVSSv3},
		{csaf.KeyCVSSv4, c.c.CVSSv4},
	} {
		if e.v == nil {
			continue
		}
		out = append(out, csaf.CVSS{
			Key:          e.key,
			Version:      e.v.Version,
			VectorString: e.v.VectorString,
			BaseScore:    e.v.BaseScore,
			BaseSeverity: e.v.BaseSeverity,
		})
	}
	return out
}

type productTree struct{ t *ProductTree }

func (p productTree) FullProductNames() []csaf.FullProductName {
	var out []csaf.FullProductName
	for i := range p.t.FullProductNames {
		out = append(out, product{p: &p.t.FullProductNames[i], path: fmt.Sprintf("/product_tree/full_product_names/%d", i)})
	}
	out = appendBranches(out, p.t.Branches, "/product_tree")
	for i := range p.t.Relationships {
		out = append(out, product{p: &p.t.Relationships[i].FullProductName, path: fmt.Sprintf("/product_tree/relationships/%d/full_product_name", i)})
	}
	return out
}

func appendBranches(out []csaf.FullProductName, branches []Branch, parent string) []csaf.FullProductName {
	for i := range branches {
		b := &branches[i]
		path := fmt.Sprintf("%s/branches/%d", parent, i)
		if b.Product != nil {
			out = append(out, product{p: b.Product, path: path + "/product"})
		}
		out = appendBranches(out, b.Branches, path)
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
	if p.p.ProductIdentificationHelper == nil {
		return nil
	}
	return p.p.ProductIdentificationHelper.PURLs
}

type addressing struct{}

func (addressing) MetricContent(v, m int) string {
	return fmt.Sprintf("/vulnerabilities/%d/metrics/%d/content", v, m)
}

func (addressing) PURL(productPath string, i int) string {
	return fmt.Sprintf("%s/product_identification_helper/purls/%d", productPath, i)
}
