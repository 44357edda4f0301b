package validation

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yorozuya-cybersecurity/csafcheck/internal/csaf"
)

// Runner applies every rule of a catalogue to a document. A failing rule never stops the
// rules after it.
type Runner struct {
	catalogue   Catalogue
	logger      *zap.Logger
	concurrency int
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for per-rule debug output and the run summary.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithConcurrency runs up to n rules at once. Values below 2 run rules sequentially.
func WithConcurrency(n int) Option {
	return func(r *Runner) { r.concurrency = n }
}

// NewRunner builds a runner over c.
func NewRunner(c Catalogue, opts ...Option) *Runner {
	r := &Runner{catalogue: c, logger: zap.NewNop(), concurrency: 1}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalogue returns the rules this runner applies.
func (r *Runner) Catalogue() Catalogue { return r.catalogue }

// Run validates doc against the whole catalogue. Results are in catalogue order whatever the
// concurrency.
func (r *Runner) Run(doc csaf.Document) Report {
	start := time.Now()
	rules := r.catalogue.rules
	results := make([]RuleResult, len(rules))

	if r.concurrency > 1 && len(rules) > 1 {
		var g errgroup.Group
		g.SetLimit(r.concurrency)
		for i := range rules {
			i := i // per-iteration copy; module targets go 1.21
			g.Go(func() error {
				results[i] = r.runRule(rules[i], doc)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range rules {
			results[i] = r.runRule(rules[i], doc)
		}
	}

	rep := r.header(doc)
	rep.Results = results
	r.logger.Info("validation finished",
		zap.String("tracking_id", rep.TrackingID),
		zap.Int("rules", len(results)),
		zap.Int("failed_rules", len(rep.Failed())),
		zap.Int("errors", len(rep.Errors())),
		zap.Duration("took", time.Since(start)),
	)
	return rep
}

// header copies the document metadata into a Report. A panicking accessor leaves the fields
// read so far and is logged.
func (r *Runner) header(doc csaf.Document) (rep Report) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("reading document metadata panicked", zap.Any("panic", p))
		}
	}()
	meta := doc.Meta()
	rep.CSAFVersion = meta.CSAFVersion()
	tracking := meta.Tracking()
	rep.TrackingID = tracking.ID()
	rep.Status = string(tracking.Status())
	rep.Version = tracking.Version()
	return rep
}

func (r *Runner) runRule(rule Rule, doc csaf.Document) (res RuleResult) {
	res = RuleResult{ID: rule.ID, Name: rule.Name}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("rule panicked", zap.String("rule", rule.ID), zap.Any("panic", p))
			res.Passed = false
			res.Errors = Errors{{Message: fmt.Sprintf("rule panicked: %v", p)}}
		}
	}()

	errs := rule.Check(doc)
	res.Passed = len(errs) == 0
	if !res.Passed {
		res.Errors = Errors(errs)
	}
	r.logger.Debug("rule checked",
		zap.String("rule", rule.ID),
		zap.Bool("passed", res.Passed),
		zap.Int("errors", len(errs)),
	)
	return res
}
