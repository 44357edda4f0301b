package csaf

import (
	"errors"
	"strings"
	"time"
)

// DocumentStatus is the publication state of a document.
type DocumentStatus string

const (
	StatusDraft   DocumentStatus = "draft"
	StatusInterim DocumentStatus = "interim"
	StatusFinal   DocumentStatus = "final"
)

// ParseStatus maps the tracking status text to a DocumentStatus. Unknown values are kept
// verbatim so they fail every status gate.
func ParseStatus(s string) DocumentStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "draft":
		return StatusDraft
	case "interim":
		return StatusInterim
	case "final":
		return StatusFinal
	default:
		return DocumentStatus(s)
	}
}

// Released reports whether the status is final or interim.
func (s DocumentStatus) Released() bool {
	return s == StatusFinal || s == StatusInterim
}

// SSVC is a decoded SSVC v2 decision point selection list.
type SSVC struct {
	ID            string
	SchemaVersion string
	Role          string
	// Timestamp keeps the UTC offset it was written with.
	Timestamp  time.Time
	Selections int
}

// CVSS keys as they appear in metric content.
const (
	KeyCVSSv2 = "cvss_v2"
	KeyCVSSv3 = "cvss_v3"
	KeyCVSSv4 = "cvss_v4"
)

// CVSS is one CVSS object attached to a metric.
type CVSS struct {
	Key          string
	Version      string
	VectorString string
	BaseScore    float64
	BaseSeverity string
}

// ErrNoSSVC is returned by Content.SSVC when the content carries no SSVC object.
var ErrNoSSVC = errors.New("content has no ssvc_v2 object")
