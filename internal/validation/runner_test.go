package validation

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yorozuya-cybersecurity/csafcheck/internal/csaf"
)

// stubDocument is the smallest csaf.Document the runner needs.
type stubDocument struct{ status csaf.DocumentStatus }

func (d stubDocument) Meta() csaf.DocumentMetadata          { return d }
func (d stubDocument) Vulnerabilities() []csaf.Vulnerability { return nil }
func (d stubDocument) ProductTree() (csaf.ProductTree, bool) { return nil, false }
func (d stubDocument) Paths() csaf.Addressing               { return nil }
func (d stubDocument) CSAFVersion() string                  { return "2.1" }
func (d stubDocument) Tracking() csaf.Tracking              { return d }
func (d stubDocument) ID() string                           { return "STUB-1" }
func (d stubDocument) Status() csaf.DocumentStatus          { return d.status }
func (d stubDocument) Version() string                      { return "1" }
func (d stubDocument) InitialReleaseDate() string           { return "" }
func (d stubDocument) CurrentReleaseDate() string           { return "" }
func (d stubDocument) RevisionHistory() []csaf.Revision     { return nil }

func failing(path string, n int) Func {
	return func(csaf.Document) []ValidationError {
		errs := make([]ValidationError, n)
		for i := range errs {
			errs[i] = Errorf(fmt.Sprintf("%s/%d", path, i), "broken %d", i)
		}
		return errs
	}
}

func passing(csaf.Document) []ValidationError { return nil }

func testCatalogue(t *testing.T) Catalogue {
	t.Helper()
	c, err := NewCatalogue(
		Rule{ID: "1", Name: "first fails", Check: failing("/a", 2)},
		Rule{ID: "2", Name: "passes", Check: passing},
		Rule{ID: "3", Name: "third fails", Check: failing("/b", 1)},
		Rule{ID: "4", Name: "only for drafts", Check: func(d csaf.Document) []ValidationError {
			if d.Meta().Tracking().Status() != csaf.StatusDraft {
				return nil
			}
			return []ValidationError{{Message: "draft", InstancePath: "/document/tracking/status"}}
		}},
	)
	require.NoError(t, err)
	return c
}

func TestRunner_CollectsEveryFailingRuleInOrder(t *testing.T) {
	rep := NewRunner(testCatalogue(t)).Run(stubDocument{status: csaf.StatusDraft})

	assert.False(t, rep.Passed())
	assert.Equal(t, "STUB-1", rep.TrackingID)
	assert.Equal(t, "draft", rep.Status)
	require.Len(t, rep.Results, 4)
	assert.True(t, rep.Results[1].Passed)
	assert.Nil(t, rep.Results[1].Errors)

	var ids []string
	for _, r := range rep.Failed() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"1", "3", "4"}, ids)
	assert.Equal(t, Errors{
		{Message: "broken 0", InstancePath: "/a/0"},
		{Message: "broken 1", InstancePath: "/a/1"},
		{Message: "broken 0", InstancePath: "/b/0"},
		{Message: "draft", InstancePath: "/document/tracking/status"},
	}, rep.Errors())
}

func TestRunner_Passes(t *testing.T) {
	c := MustCatalogue(Rule{ID: "ok", Check: passing})
	rep := NewRunner(c).Run(stubDocument{status: csaf.StatusFinal})
	assert.True(t, rep.Passed())
	assert.Empty(t, rep.Errors())
	assert.NoError(t, rep.Errors().Err())
}

func TestRunner_SchemaErrorsFailReport(t *testing.T) {
	rep := NewRunner(MustCatalogue(Rule{ID: "ok", Check: passing})).Run(stubDocument{})
	rep.SchemaErrors = Errors{{Message: "missing properties: 'title'", InstancePath: "/document"}}
	assert.False(t, rep.Passed())
}

func TestRunner_ConcurrentMatchesSequential(t *testing.T) {
	c := testCatalogue(t)
	doc := stubDocument{status: csaf.StatusDraft}
	want := NewRunner(c).Run(doc)
	for _, n := range []int{2, 3, 16} {
		assert.Equal(t, want, NewRunner(c, WithConcurrency(n)).Run(doc), "concurrency %d", n)
	}
}

func TestRunner_ConcurrentRunsEveryRule(t *testing.T) {
	var calls atomic.Int32
	count := func(csaf.Document) []ValidationError {
		calls.Add(1)
		return nil
	}
	var rules []Rule
	for i := 0; i < 50; i++ {
		rules = append(rules, Rule{ID: fmt.Sprint(i), Check: count})
	}
	rep := NewRunner(MustCatalogue(rules...), WithConcurrency(4)).Run(stubDocument{})
	assert.Equal(t, int32(50), calls.Load())
	assert.True(t, rep.Passed())
}

func TestRunner_RecoversPanickingRule(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	c := MustCatalogue(
		Rule{ID: "boom", Name: "panics", Check: func(csaf.Document) []ValidationError { panic("nil tracking") }},
		Rule{ID: "after", Name: "still runs", Check: failing("/c", 1)},
	)
	rep := NewRunner(c, WithLogger(zap.New(core))).Run(stubDocument{})

	require.Len(t, rep.Results, 2)
	assert.Equal(t, Errors{{Message: "rule panicked: nil tracking"}}, rep.Results[0].Errors)
	assert.False(t, rep.Results[1].Passed)
	assert.Equal(t, 1, logs.FilterMessage("rule panicked").Len())
}

// panickyDocument fails on every tracking accessor.
type panickyDocument struct{ stubDocument }

func (d panickyDocument) Meta() csaf.DocumentMetadata { return d }
func (d panickyDocument) Tracking() csaf.Tracking     { panic("tracking unavailable") }

func TestRunner_RecoversPanickingMetadata(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	c := MustCatalogue(
		Rule{ID: "reads-tracking", Check: func(d csaf.Document) []ValidationError {
			_ = d.Meta().Tracking()
			return nil
		}},
		Rule{ID: "ok", Check: passing},
	)

	var rep Report
	require.NotPanics(t, func() { rep = NewRunner(c, WithLogger(zap.New(core))).Run(panickyDocument{}) })
	assert.Equal(t, "2.1", rep.CSAFVersion)
	assert.Empty(t, rep.TrackingID)
	require.Len(t, rep.Results, 2)
	assert.Equal(t, Errors{{Message: "rule panicked: tracking unavailable"}}, rep.Results[0].Errors)
	assert.True(t, rep.Results[1].Passed)
	assert.Equal(t, 1, logs.FilterMessage("reading document metadata panicked").Len())
}

func TestRunner_Idempotent(t *testing.T) {
	r := NewRunner(testCatalogue(t))
	doc := stubDocument{status: csaf.StatusDraft}
	assert.Equal(t, r.Run(doc), r.Run(doc))
}
