package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorozuya-cybersecurity/csafcheck/internal/schema/csaf20"
	"github.com/yorozuya-cybersecurity/csafcheck/internal/schema/csaf21"
	"github.com/yorozuya-cybersecurity/csafcheck/internal/validation"
)

const ssvcTimestampPath = "/vulnerabilities/0/metrics/0/content/ssvc_v2/timestamp"

func TestInconsistentSSVCTimestamp_Fixtures(t *testing.T) {
	tests := []struct {
		name     string
		revision string
		ssvc     string
		want     string
	}{
		{
			name:     "01",
			revision: "2024-01-24T10:00:00+00:00",
			ssvc:     "2024-07-13T10:00:00+00:00",
			want:     "SSVC timestamp (2024-07-13T10:00:00+00:00) for vulnerability at index 0 is later than the newest revision date (2024-01-24T10:00:00+00:00)",
		},
		{
			name:     "02",
			revision: "2024-02-29T10:00:00+00:00",
			ssvc:     "2024-02-29T10:30:00+00:00",
			want:     "SSVC timestamp (2024-02-29T10:30:00+00:00) for vulnerability at index 0 is later than the newest revision date (2024-02-29T10:00:00+00:00)",
		},
		{
			name:     "Z is rendered as +00:00",
			revision: "2024-02-29T10:00:00Z",
			ssvc:     "2024-02-29T10:30:00Z",
			want:     "SSVC timestamp (2024-02-29T10:30:00+00:00) for vulnerability at index 0 is later than the newest revision date (2024-02-29T10:00:00+00:00)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := doc(withSSVC(advisory("final", rev("1", tt.revision)), tt.ssvc))
			errs := InconsistentSSVCTimestamp(d)
			assert.Equal(t, []validation.ValidationError{{Message: tt.want, InstancePath: ssvcTimestampPath}}, errs)
		})
	}
}

func TestInconsistentSSVCTimestamp_Valid(t *testing.T) {
	tests := []struct {
		name string
		revs []csaf21.Revision
		ssvc []string
	}{
		{"earlier", []csaf21.Revision{rev("1", "2024-07-13T10:00:00+00:00")}, []string{"2024-01-24T10:00:00+00:00"}},
		{"equal", []csaf21.Revision{rev("1", "2024-07-13T10:00:00+00:00")}, []string{"2024-07-13T10:00:00+00:00"}},
		{"no metrics", []csaf21.Revision{rev("1", "2024-01-24T10:00:00+00:00")}, nil},
		{
			"newest is not the last entry",
			[]csaf21.Revision{rev("2", "2024-03-01T10:00:00+00:00"), rev("1", "2024-01-01T10:00:00+00:00")},
			[]string{"2024-02-01T10:00:00+00:00"},
		},
		{
			"newest found by instant, not wall clock",
			// 23:00-05:00 is 04:00Z the next day, later than 03:00Z
			[]csaf21.Revision{rev("1", "2024-01-01T23:00:00-05:00"), rev("2", "2024-01-02T03:00:00+00:00")},
			[]string{"2024-01-02T03:30:00+00:00"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := advisory("final", tt.revs...)
			if tt.ssvc != nil {
				withSSVC(a, tt.ssvc...)
			}
			assert.Empty(t, InconsistentSSVCTimestamp(doc(a)))
		})
	}
}

func TestInconsistentSSVCTimestamp_OnlyFinalOrInterim(t *testing.T) {
	for _, status := range []string{"draft", "", "retired"} {
		t.Run(status, func(t *testing.T) {
			broken := advisory(status, rev("1", "not-a-date"))
			withSSVC(broken, "2030-01-01T00:00:00+00:00")
			assert.Nil(t, InconsistentSSVCTimestamp(doc(broken)))

			empty := withSSVC(advisory(status), "2030-01-01T00:00:00+00:00")
			assert.Nil(t, InconsistentSSVCTimestamp(doc(empty)))
		})
	}
}

func TestInconsistentSSVCTimestamp_EmptyRevisionHistory(t *testing.T) {
	for _, status := range []string{"final", "interim"} {
		t.Run(status, func(t *testing.T) {
			errs := InconsistentSSVCTimestamp(doc(advisory(status)))
			assert.Equal(t, []validation.ValidationError{{
				Message:      "Revision history must not be empty for status final or interim",
				InstancePath: "/document/tracking/revision_history",
			}}, errs)
		})
	}
}

func TestInconsistentSSVCTimestamp_FailsFastOnBadRevisionDate(t *testing.T) {
	a := advisory("interim",
		rev("1", "2024-01-24T10:00:00+00:00"),
		rev("2", "not-a-date"),
		rev("3", "2024-13-45"),
	)
	withSSVC(a, "2030-01-01T00:00:00+00:00")

	errs := InconsistentSSVCTimestamp(doc(a))
	assert.Equal(t, []validation.ValidationError{{
		Message:      "Invalid date format in revision history: not-a-date",
		InstancePath: "/document/tracking/revision_history/1/date",
	}}, errs)
}

func TestInconsistentSSVCTimestamp_RevisionDateSyntax(t *testing.T) {
	for _, date := range []string{"2024-01-24T10:00:00,5+00:00", "2024-01-24T10:00:00+24:00"} {
		t.Run(date, func(t *testing.T) {
			a := withSSVC(advisory("final", rev("1", date)), "2024-01-01T00:00:00+00:00")
			assert.Equal(t, []validation.ValidationError{{
				Message:      "Invalid date format in revision history: " + date,
				InstancePath: "/document/tracking/revision_history/0/date",
			}}, InconsistentSSVCTimestamp(doc(a)))
		})
	}

	t.Run("lower case designators", func(t *testing.T) {
		a := withSSVC(advisory("final", rev("1", "2024-01-24t10:00:00z")), "2024-01-01T00:00:00+00:00")
		assert.Empty(t, InconsistentSSVCTimestamp(doc(a)))

		late := withSSVC(advisory("final", rev("1", "2024-01-24t10:00:00z")), "2024-07-13T10:00:00+00:00")
		errs := InconsistentSSVCTimestamp(doc(late))
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Message, "newest revision date (2024-01-24T10:00:00+00:00)")
	})
}

func TestInconsistentSSVCTimestamp_InvalidSSVCObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"missing timestamp", `{"id": "x", "selections": [{}]}`, "Invalid SSVC object: missing field `timestamp`"},
		{"missing id", `{"timestamp": "2024-01-01T00:00:00Z", "selections": [{}]}`, "Invalid SSVC object: missing field `id`"},
		{"no selections", `{"id": "x", "timestamp": "2024-01-01T00:00:00Z", "selections": []}`, "Invalid SSVC object: field `selections` must contain at least one item"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := withMetrics(advisory("final", rev("1", "2024-01-24T10:00:00+00:00")), csaf21.Content{SSVCv2: json.RawMessage(tt.raw)})
			errs := InconsistentSSVCTimestamp(doc(a))
			require.Len(t, errs, 1)
			assert.Equal(t, tt.want, errs[0].Message)
			assert.Equal(t, "/vulnerabilities/0/metrics/0/content/ssvc_v2", errs[0].InstancePath)
		})
	}

	t.Run("unparseable timestamp", func(t *testing.T) {
		a := withSSVC(advisory("final", rev("1", "2024-01-24T10:00:00+00:00")), "13/07/2024")
		errs := InconsistentSSVCTimestamp(doc(a))
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Message, "Invalid SSVC object: timestamp:")
		assert.Equal(t, "/vulnerabilities/0/metrics/0/content/ssvc_v2", errs[0].InstancePath)
	})
}

func TestInconsistentSSVCTimestamp_StopsAtFirstViolation(t *testing.T) {
	a := advisory("final", rev("1", "2024-01-24T10:00:00+00:00"))
	a.Vulnerabilities = append(a.Vulnerabilities, csaf21.Vulnerability{CVE: "CVE-2024-0000"})
	withMetrics(a, csaf21.Content{CVSSv3: &csaf21.CVSS{Version: "3.1"}}, csaf21.Content{SSVCv2: ssvcJSON("2024-05-01T00:00:00+00:00")})
	withSSVC(a, "2024-06-01T00:00:00+00:00")

	errs := InconsistentSSVCTimestamp(doc(a))
	assert.Equal(t, []validation.ValidationError{{
		Message:      "SSVC timestamp (2024-05-01T00:00:00+00:00) for vulnerability at index 1 is later than the newest revision date (2024-01-24T10:00:00+00:00)",
		InstancePath: "/vulnerabilities/1/metrics/1/content/ssvc_v2/timestamp",
	}}, errs)
}

func TestCheckSSVCTimestamp_OffsetOrdering(t *testing.T) {
	const revision = "2024-01-24T10:00:00+00:00"
	tests := []struct {
		name      string
		ssvc      string
		instant   bool
		offset    bool
		formatted string
	}{
		// identical instants: the UTC offsets decide
		{"same instant, greater offset", "2024-01-24T12:00:00+02:00", true, true, "2024-01-24T12:00:00+02:00"},
		{"same instant, smaller offset", "2024-01-24T08:00:00-02:00", false, false, ""},
		// different instants: only the offset ordering ignores them
		{"later instant, same offset", "2024-07-13T10:00:00+00:00", true, false, "2024-07-13T10:00:00+00:00"},
		{"earlier instant, greater offset", "2024-01-01T10:00:00+05:00", false, true, "2024-01-01T10:00:00+05:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := doc(withSSVC(advisory("final", rev("1", revision)), tt.ssvc))
			for _, c := range []struct {
				order TimestampOrder
				fail  bool
			}{{OrderInstant, tt.instant}, {OrderOffset, tt.offset}} {
				errs := CheckSSVCTimestamp(c.order)(d)
				if !c.fail {
					assert.Empty(t, errs, c.order)
					continue
				}
				require.Len(t, errs, 1, c.order)
				assert.Equal(t, "SSVC timestamp ("+tt.formatted+") for vulnerability at index 0 is later than the newest revision date ("+revision+")", errs[0].Message)
				assert.Equal(t, ssvcTimestampPath, errs[0].InstancePath)
			}
		})
	}
}

func TestInconsistentSSVCTimestamp_Idempotent(t *testing.T) {
	d := doc(withSSVC(advisory("final", rev("1", "2024-01-24T10:00:00+00:00")), "2024-07-13T10:00:00+00:00"))
	assert.Equal(t, InconsistentSSVCTimestamp(d), InconsistentSSVCTimestamp(d))
}

func TestInconsistentSSVCTimestamp_CSAF20(t *testing.T) {
	scores := []csaf20.Score{{Products: []string{"CSAFPID-0001"}, CVSSv3: &csaf20.CVSS{Version: "3.1"}}}
	a := &csaf20.Advisory{
		Document: csaf20.Meta{CSAFVersion: csaf20.Version, Tracking: csaf20.Tracking{
			Status:          "final",
			RevisionHistory: []csaf20.Revision{{Number: "1", Date: "2024-01-24T10:00:00+00:00"}},
		}},
		Vulnerabilities: []csaf20.Vulnerability{{Scores: &scores}},
	}
	assert.Empty(t, InconsistentSSVCTimestamp(csaf20.New(a)))

	a.Document.Tracking.RevisionHistory = nil
	assert.Len(t, InconsistentSSVCTimestamp(csaf20.New(a)), 1)
}

func TestParseTimestampOrder(t *testing.T) {
	for in, want := range map[string]TimestampOrder{"": OrderInstant, "instant": OrderInstant, "OFFSET": OrderOffset} {
		got, err := ParseTimestampOrder(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseTimestampOrder("wallclock")
	assert.Error(t, err)
}
