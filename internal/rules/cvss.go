package rules

import (
	"fmt"
	"math"
	"strings"

	gocvss20 "github.com/pandatix/go-cvss/20"
	gocvss30 "github.com/pandatix/go-cvss/30"
	gocvss31 "github.com/pandatix/go-cvss/31"
	gocvss40 "github.com/pandatix/go-cvss/40"

	"github.com/yorozuya-cybersecurity/csafcheck/internal/csaf"
	"github.com/yorozuya-cybersecurity/csafcheck/internal/validation"
)

// vectorVersion returns the CVSS version a vector string declares. CVSS v2 vectors carry no
// prefix, so cvss_v2 objects are always treated as 2.0.
func vectorVersion(c csaf.CVSS) string {
	switch {
	case c.Key == csaf.KeyCVSSv2:
		return "2.0"
	case strings.HasPrefix(c.VectorString, "CVSS:3.0/"):
		return "3.0"
	case strings.HasPrefix(c.VectorString, "CVSS:3.1/"):
		return "3.1"
	case strings.HasPrefix(c.VectorString, "CVSS:4.0/"):
		return "4.0"
	default:
		return ""
	}
}

// baseScore parses the vector and computes its base score.
func baseScore(c csaf.CVSS) (float64, error) {
	switch vectorVersion(c) {
	case "2.0":
		v, err := gocvss20.ParseVector(c.VectorString)
		if err != nil {
			return 0, err
		}
		return v.BaseScore(), nil
	case "3.0":
		v, err := gocvss30.ParseVector(c.VectorString)
		if err != nil {
			return 0, err
		}
		return v.BaseScore(), nil
	case "3.1":
		v, err := gocvss31.ParseVector(c.VectorString)
		if err != nil {
			return 0, err
		}
		return v.BaseScore(), nil
	case "4.0":
		v, err := gocvss40.ParseVector(c.VectorString)
		if err != nil {
			return 0, err
		}
		return v.Score(), nil
	default:
		return 0, fmt.Errorf("unrecognised CVSS prefix for %s", c.Key)
	}
}

func expectedKey(version string) string {
	switch version {
	case "2.0":
		return csaf.KeyCVSSv2
	case "3.0", "3.1":
		return csaf.KeyCVSSv3
	case "4.0":
		return csaf.KeyCVSSv4
	}
	return ""
}

// forEachCVSS visits every CVSS object with the instance path of its object.
func forEachCVSS(doc csaf.Document, visit func(c csaf.CVSS, path string)) {
	for v, vuln := range doc.Vulnerabilities() {
		metrics, ok := vuln.Metrics()
		if !ok {
			continue
		}
		for m, metric := range metrics {
			for _, c := range metric.Content().CVSS() {
				visit(c, doc.Paths().MetricContent(v, m)+"/"+c.Key)
			}
		}
	}
}

// InvalidCVSS is 6.1.8: every CVSS vector string must be valid for the CVSS object it sits in
// and agree with the declared version. Every invalid object is reported.
func InvalidCVSS(doc csaf.Document) []validation.ValidationError {
	var errs []validation.ValidationError
	forEachCVSS(doc, func(c csaf.CVSS, path string) {
		if _, err := baseScore(c); err != nil {
			errs = append(errs, validation.Errorf(path+"/vectorString", "Invalid CVSS vector string %s: %v", c.VectorString, err))
			return
		}
		vv := vectorVersion(c)
		if expectedKey(vv) != c.Key {
			errs = append(errs, validation.Errorf(path+"/vectorString", "CVSS %s vector string %s is not allowed in %s", vv, c.VectorString, c.Key))
			return
		}
		if c.Version != vv {
			errs = append(errs, validation.Errorf(path+"/version", "CVSS version %s does not match the vector string %s", c.Version, c.VectorString))
		}
	})
	return errs
}

// InvalidCVSSComputation is 6.1.9: baseScore and baseSeverity must match the values computed
// from the vector string. Objects with an invalid vector are left to 6.1.8.
func InvalidCVSSComputation(doc csaf.Document) []validation.ValidationError {
	var errs []validation.ValidationError
	forEachCVSS(doc, func(c csaf.CVSS, path string) {
		score, err := baseScore(c)
		if err != nil {
			return
		}
		if math.Abs(score-c.BaseScore) > 0.001 {
			errs = append(errs, validation.Errorf(path+"/baseScore",
				"The baseScore %.1f does not match the score %.1f computed from %s", c.BaseScore, score, c.VectorString))
		}
		if c.Key == csaf.KeyCVSSv2 || c.BaseSeverity == "" {
			return
		}
		if want := severityRating(score); !strings.EqualFold(c.BaseSeverity, want) {
			errs = append(errs, validation.Errorf(path+"/baseSeverity",
				"The baseSeverity %s does not match the severity %s of score %.1f", c.BaseSeverity, want, score))
		}
	})
	return errs
}

// severityRating maps a CVSS v3/v4 score to its qualitative rating.
func severityRating(score float64) string {
	switch {
	case score == 0:
		return "NONE"
	case score < 4.0:
		return "LOW"
	case score < 7.0:
		return "MEDIUM"
	case score < 9.0:
		return "HIGH"
	default:
		return "CRITICAL"
	}
}
