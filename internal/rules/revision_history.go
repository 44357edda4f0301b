package rules

import (
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/yorozuya-cybersecurity/csafcheck/internal/csaf"
	"github.com/yorozuya-cybersecurity/csafcheck/internal/validation"
)

const revisionHistoryPath = "/document/tracking/revision_history"

func revisionPath(i int) string {
	return fmt.Sprintf("%s/%d", revisionHistoryPath, i)
}

type datedRevision struct {
	index  int
	date   time.Time
	number string
}

// datedRevisions parses every revision date. It reports false when any date is unparseable;
// those documents are left to the date-time rule.
func datedRevisions(revs []csaf.Revision) ([]datedRevision, bool) {
	out := make([]datedRevision, 0, len(revs))
	for i, rev := range revs {
		d, err := csaf.ParseTimestamp(rev.Date())
		if err != nil {
			return nil, false
		}
		out = append(out, datedRevision{index: i, date: d, number: rev.Number()})
	}
	return out, true
}

// SortedRevisionHistory is 6.1.14: sorting the revision history by date must leave the
// revision numbers ascending. Integer versions compare as semver majors.
func SortedRevisionHistory(doc csaf.Document) []validation.ValidationError {
	revs, ok := datedRevisions(doc.Meta().Tracking().RevisionHistory())
	if !ok || len(revs) < 2 {
		return nil
	}
	sort.SliceStable(revs, func(i, j int) bool { return revs[i].date.Before(revs[j].date) })

	for k := 1; k < len(revs); k++ {
		prev, cur := revs[k-1], revs[k]
		pv, err1 := semver.NewVersion(prev.number)
		cv, err2 := semver.NewVersion(cur.number)
		if err1 != nil || err2 != nil {
			continue
		}
		if cv.LessThan(pv) {
			return []validation.ValidationError{validation.Errorf(
				revisionPath(cur.index)+"/number",
				"The revision history is not sorted ascending: revision %s (%s) is dated after revision %s (%s)",
				cur.number, csaf.FormatTimestamp(cur.date), prev.number, csaf.FormatTimestamp(prev.date),
			)}
		}
	}
	return nil
}

// LatestDocumentVersion is 6.1.16: /document/tracking/version must equal the number of the
// newest revision. Drafts may carry a pre-release suffix on either side.
func LatestDocumentVersion(doc csaf.Document) []validation.ValidationError {
	tracking := doc.Meta().Tracking()
	revs, ok := datedRevisions(tracking.RevisionHistory())
	if !ok || len(revs) == 0 {
		return nil
	}
	newest := revs[0]
	for _, r := range revs[1:] {
		if !r.date.Before(newest.date) {
			newest = r
		}
	}

	if sameVersion(tracking.Version(), newest.number, tracking.Status() == csaf.StatusDraft) {
		return nil
	}
	return []validation.ValidationError{validation.Errorf(
		"/document/tracking/version",
		"The document version %s does not match the number %s of the newest revision",
		tracking.Version(), newest.number,
	)}
}

func sameVersion(a, b string, ignorePrerelease bool) bool {
	if a == b {
		return true
	}
	if !ignorePrerelease {
		return false
	}
	av, err := semver.NewVersion(a)
	if err != nil {
		return false
	}
	bv, err := semver.NewVersion(b)
	if err != nil {
		return false
	}
	strip := func(v *semver.Version) string {
		return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
	}
	return strip(av) == strip(bv)
}
