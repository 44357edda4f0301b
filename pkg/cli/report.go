package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	reportpkg "github.com/yorozuya-cybersecurity/csafcheck/internal/report"
	"github.com/yorozuya-cybersecurity/csafcheck/pkg/utils"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "report",
		Short:   "Generate HTML/PDF report from a saved validation result directory",
		Example: "csafcheck report --from ./reports/EX-2024-001_20250911_131722 --format html,pdf",
		RunE:    runReport,
	}

	cmd.Flags().String("from", "", "Result directory (must contain results.json)")
	cmd.Flags().String("format", "html", "Output formats: html,pdf,json (json just points to results.json)")

	_ = viper.BindPFlag("report.from", cmd.Flags().Lookup("from"))
	_ = viper.BindPFlag("report.format", cmd.Flags().Lookup("format"))
	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	from := viper.GetString("report.from")
	if from == "" {
		return errors.New("please provide --from pointing to the result directory (with results.json)")
	}

	formats := strings.Split(viper.GetString("report.format"), ",")
	for i := range formats {
		formats[i] = strings.TrimSpace(strings.ToLower(formats[i]))
	}
	out := cmd.OutOrStdout()

	// Load the saved report and render HTML
	rep, err := utils.LoadReport(from)
	if err != nil {
		return err
	}
	htmlPath, err := reportpkg.GenerateHTML(rep, from)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "📝 HTML report: %s\n", htmlPath)

	// Optional PDF (headless Chrome)
	if contains(formats, "pdf") {
		pdfPath, err := reportpkg.GeneratePDF(cmd.Context(), htmlPath)
		if err != nil {
			fmt.Fprintf(out, "⚠️  PDF generation failed: %v\n", err)
		} else {
			fmt.Fprintf(out, "📄 PDF report:  %s\n", pdfPath)
		}
	}

	// Optional JSON passthrough
	if contains(formats, "json") {
		fmt.Fprintf(out, "📦 JSON already exists at: %s\n", filepath.Join(from, utils.ResultsFile))
	}

	return nil
}

func contains(arr []string, v string) bool {
	for _, x := range arr {
		if x == v {
			return true
		}
	}
	return false
}
