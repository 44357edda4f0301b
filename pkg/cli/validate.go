package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/yorozuya-cybersecurity/csafcheck/internal/rules"
	"github.com/yorozuya-cybersecurity/csafcheck/internal/schema"
	"github.com/yorozuya-cybersecurity/csafcheck/internal/validation"
	"github.com/yorozuya-cybersecurity/csafcheck/pkg/utils"
)

// ErrValidationFailed is returned when at least one document does not conform.
var ErrValidationFailed = errors.New("validation failed")

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "validate FILE...",
		Short:   "Validate CSAF documents against the mandatory tests",
		Example: "csafcheck validate advisory.json --format json --skip 6.1.13",
		Args:    cobra.MinimumNArgs(1),
		RunE:    runValidate,
	}

	cmd.Flags().StringSlice("only", nil, "Run only these rule IDs (e.g. 6.1.49)")
	cmd.Flags().StringSlice("skip", nil, "Skip these rule IDs")
	cmd.Flags().String("format", "text", "Output format: text, json or yaml")
	cmd.Flags().Int("concurrency", 1, "Number of rules run in parallel per document")
	cmd.Flags().String("ssvc-order", string(rules.OrderInstant), "SSVC timestamp comparison for 6.1.49: instant or offset")
	cmd.Flags().Bool("skip-schema", false, "Skip the structural JSON-schema pre-check")
	cmd.Flags().Bool("save", false, "Save each report as results.json under --output")

	_ = viper.BindPFlag("validate.only", cmd.Flags().Lookup("only"))
	_ = viper.BindPFlag("validate.skip", cmd.Flags().Lookup("skip"))
	_ = viper.BindPFlag("validate.format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("validate.concurrency", cmd.Flags().Lookup("concurrency"))
	_ = viper.BindPFlag("validate.ssvc-order", cmd.Flags().Lookup("ssvc-order"))
	_ = viper.BindPFlag("validate.skip-schema", cmd.Flags().Lookup("skip-schema"))
	_ = viper.BindPFlag("validate.save", cmd.Flags().Lookup("save"))
	return cmd
}

func buildCatalogue() (validation.Catalogue, error) {
	order, err := rules.ParseTimestampOrder(viper.GetString("validate.ssvc-order"))
	if err != nil {
		return validation.Catalogue{}, err
	}
	cat, err := rules.Catalogue(rules.Options{SSVCTimestampOrder: order}).Select(viper.GetStringSlice("validate.only")...)
	if err != nil {
		return validation.Catalogue{}, err
	}
	return cat.Skip(viper.GetStringSlice("validate.skip")...)
}

func runValidate(cmd *cobra.Command, files []string) error {
	format := strings.ToLower(strings.TrimSpace(viper.GetString("validate.format")))
	switch format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cat, err := buildCatalogue()
	if err != nil {
		return err
	}
	loaderOpts := []schema.Option{schema.WithLogger(logger)}
	if viper.GetBool("validate.skip-schema") {
		loaderOpts = append(loaderOpts, schema.WithoutSchemaCheck())
	}
	loader, err := schema.NewLoader(loaderOpts...)
	if err != nil {
		return err
	}
	runner := validation.NewRunner(cat,
		validation.WithLogger(logger),
		validation.WithConcurrency(viper.GetInt("validate.concurrency")),
	)

	out := cmd.OutOrStdout()
	var reports []validation.Report
	failed := 0
	for _, file := range files {
		loaded, err := loader.LoadFile(file)
		if err != nil {
			// a document that cannot be loaded still must not stop the others
			logger.Error("load failed", zap.String("file", file), zap.Error(err))
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %s: %v\n", file, err)
			failed++
			continue
		}

		rep := runner.Run(loaded.Document)
		rep.RunID = uuid.NewString()
		rep.Source = file
		rep.ValidatedAt = time.Now().UTC()
		rep.SchemaErrors = loaded.SchemaErrors
		if !rep.Passed() {
			failed++
		}

		if viper.GetBool("validate.save") {
			path, err := utils.SaveReport(rep, viper.GetString("output"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "💾 Report saved to %s\n", path)
		}
		if format == "text" {
			writeText(out, rep)
		}
		reports = append(reports, rep)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d documents", ErrValidationFailed, failed, len(files))
	}
	return nil
}

func writeText(w io.Writer, rep validation.Report) {
	header := fmt.Sprintf("%s (CSAF %s, %s)", rep.Source, rep.CSAFVersion, rep.TrackingID)
	if rep.Passed() {
		fmt.Fprintf(w, "✅ %s: all %d rules passed\n", header, len(rep.Results))
		return
	}
	summary := fmt.Sprintf("%d of %d rules failed", len(rep.Failed()), len(rep.Results))
	if n := len(rep.SchemaErrors); n > 0 {
		summary += fmt.Sprintf(", %d schema errors", n)
	}
	fmt.Fprintf(w, "❌ %s: %s\n", header, summary)
	for _, e := range rep.SchemaErrors {
		fmt.Fprintf(w, "   [schema] %s\n", e.Error())
	}
	for _, res := range rep.Failed() {
		fmt.Fprintf(w, "   [%s] %s\n", res.ID, res.Name)
		for _, e := range res.Errors {
			fmt.Fprintf(w, "     %s\n", e.Error())
		}
	}
}
