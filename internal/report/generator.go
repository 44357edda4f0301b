package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yorozuya-cybersecurity/csafcheck/internal/validation"
)

//go:embed report.html.tmpl
var reportHTMLTemplate string

// schemaRuleID labels structural pre-check findings in the report.
const schemaRuleID = "schema"

// ---------- Public API ----------

// GenerateHTML renders rep into <outDir>/report.html and returns the file path.
func GenerateHTML(rep validation.Report, outDir string) (string, error) {
	vm := buildViewModel(rep, time.Now().UTC())

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create out dir: %w", err)
	}

	tmpl, err := template.New("report").Parse(reportHTMLTemplate)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vm); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	htmlPath := filepath.Join(outDir, "report.html")
	if err := os.WriteFile(htmlPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write report.html: %w", err)
	}

	return htmlPath, nil
}

// ---------- View Model & helpers ----------

type viewModel struct {
	Source       string
	TrackingID   string
	CSAFVersion  string
	Status       string
	Version      string
	RunID        string
	ValidatedAt  string
	Verdict      string
	TotalRules   int
	FailedRules  int
	TotalErrors  int
	SchemaErrors int
	Score        int
	Grade        string
	Rules        []ruleRow
	Errors       []errorRow
	Generator    string
	GeneratedAt  string
	Year         int
}

type ruleRow struct {
	ID     string
	Name   string
	Status string
	Errors int
}

type errorRow struct {
	Rule         string
	InstancePath string
	Message      string
}

func buildViewModel(rep validation.Report, now time.Time) viewModel {
	var rules []ruleRow
	var rows []errorRow
	failed := 0

	for _, e := range rep.SchemaErrors {
		rows = append(rows, errorRow{Rule: schemaRuleID, InstancePath: emptyFallback(e.InstancePath, "/"), Message: trimTo(e.Message, 500)})
	}
	for _, res := range rep.Results {
		status := "PASS"
		if !res.Passed {
			status = "FAIL"
			failed++
		}
		rules = append(rules, ruleRow{ID: res.ID, Name: res.Name, Status: status, Errors: len(res.Errors)})
		for _, e := range res.Errors {
			rows = append(rows, errorRow{Rule: res.ID, InstancePath: emptyFallback(e.InstancePath, "/"), Message: trimTo(e.Message, 500)})
		}
	}

	// Sort errors: schema first, then rule number, then path
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Rule != rows[j].Rule {
			return ruleLess(rows[i].Rule, rows[j].Rule)
		}
		return rows[i].InstancePath < rows[j].InstancePath
	})

	score := 100
	if len(rep.Results) > 0 {
		score = (len(rep.Results) - failed) * 100 / len(rep.Results)
	}
	verdict := "PASS"
	if !rep.Passed() {
		verdict = "FAIL"
	}
	validatedAt := "-"
	if !rep.ValidatedAt.IsZero() {
		validatedAt = rep.ValidatedAt.UTC().Format(time.RFC3339)
	}

	return viewModel{
		Source:       emptyFallback(rep.Source, "-"),
		TrackingID:   emptyFallback(rep.TrackingID, "N/A"),
		CSAFVersion:  rep.CSAFVersion,
		Status:       rep.Status,
		Version:      rep.Version,
		RunID:        emptyFallback(rep.RunID, "-"),
		ValidatedAt:  validatedAt,
		Verdict:      verdict,
		TotalRules:   len(rep.Results),
		FailedRules:  failed,
		TotalErrors:  len(rows),
		SchemaErrors: len(rep.SchemaErrors),
		Score:        score,
		Grade:        scoreToGrade(score),
		Rules:        rules,
		Errors:       rows,
		Generator:    "csafcheck",
		GeneratedAt:  now.Format(time.RFC3339),
		Year:         now.Year(),
	}
}

// ruleLess orders rule ids section by section ("6.1.8" < "6.1.13"); schema comes first.
func ruleLess(a, b string) bool {
	if a == schemaRuleID || b == schemaRuleID {
		return a == schemaRuleID && b != schemaRuleID
	}
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		ai, errA := strconv.Atoi(as[i])
		bi, errB := strconv.Atoi(bs[i])
		if errA != nil || errB != nil {
			if as[i] != bs[i] {
				return as[i] < bs[i]
			}
			continue
		}
		if ai != bi {
			return ai < bi
		}
	}
	return len(as) < len(bs)
}

func scoreToGrade(score int) string {
	switch {
	case score >= 100:
		return "A"
	case score >= 90:
		return "B"
	case score >= 75:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

func trimTo(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}

func emptyFallback(s, fb string) string {
	if strings.TrimSpace(s) == "" {
		return fb
	}
	return s
}
