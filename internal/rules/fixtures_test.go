package rules

import (
	"encoding/json"
	"fmt"

	"github.com/yorozuya-cybersecurity/csafcheck/internal/csaf"
	"github.com/yorozuya-cybersecurity/csafcheck/internal/schema/csaf21"
)

func rev(number, date string) csaf21.Revision {
	return csaf21.Revision{Number: number, Date: date, Summary: "revision " + number}
}

// advisory builds a CSAF 2.1 advisory whose tracking block is consistent with revs.
func advisory(status string, revs ...csaf21.Revision) *csaf21.Advisory {
	version := ""
	if len(revs) > 0 {
		version = revs[len(revs)-1].Number
	}
	return &csaf21.Advisory{
		Document: csaf21.Meta{
			Category:    "csaf_security_advisory",
			CSAFVersion: csaf21.Version,
			Title:       "Test advisory",
			Publisher:   csaf21.Publisher{Category: "vendor", Name: "Example", Namespace: "https://example.com"},
			Tracking: csaf21.Tracking{
				ID:                 "EX-2024-001",
				Status:             status,
				Version:            version,
				InitialReleaseDate: "2024-01-24T10:00:00+00:00",
				CurrentReleaseDate: "2024-01-24T10:00:00+00:00",
				RevisionHistory:    revs,
			},
		},
	}
}

func ssvcJSON(timestamp string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"id": "CVE-2024-0001",
		"schemaVersion": "2.0.0",
		"selections": [{"namespace": "ssvc", "key": "E", "version": "1.1.0", "values": [{"key": "A"}]}],
		"timestamp": %q
	}`, timestamp))
}

// withMetrics appends a vulnerability carrying one metric per content.
func withMetrics(a *csaf21.Advisory, contents ...csaf21.Content) *csaf21.Advisory {
	metrics := make([]csaf21.Metric, 0, len(contents))
	for _, c := range contents {
		metrics = append(metrics, csaf21.Metric{Content: c, Products: []string{"CSAFPID-0001"}})
	}
	a.Vulnerabilities = append(a.Vulnerabilities, csaf21.Vulnerability{CVE: "CVE-2024-0001", Metrics: &metrics})
	return a
}

// withSSVC appends one vulnerability with an SSVC metric per timestamp.
func withSSVC(a *csaf21.Advisory, timestamps ...string) *csaf21.Advisory {
	contents := make([]csaf21.Content, 0, len(timestamps))
	for _, ts := range timestamps {
		contents = append(contents, csaf21.Content{SSVCv2: ssvcJSON(ts)})
	}
	return withMetrics(a, contents...)
}

func doc(a *csaf21.Advisory) csaf.Document {
	return csaf21.New(a)
}
