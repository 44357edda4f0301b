package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yorozuya-cybersecurity/csafcheck/internal/validation"
)

// ResultsFile is the name of the saved report inside a result directory.
const ResultsFile = "results.json"

// SaveReport writes a validation report to <outputDir>/<tracking_id>_<timestamp>[_<run>]/results.json.
// An existing result directory is never reused; a numeric suffix is appended instead.
func SaveReport(rep validation.Report, outputDir string) (string, error) {
	name := rep.TrackingID
	if strings.TrimSpace(name) == "" {
		name = strings.TrimSuffix(filepath.Base(rep.Source), filepath.Ext(rep.Source))
	}
	base := safeName(name) + "_" + rep.ValidatedAt.Format("20060102_150405")
	if run := strings.TrimSpace(rep.RunID); run != "" {
		if len(run) > 8 {
			run = run[:8]
		}
		base += "_" + safeName(run)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	dir, err := createUniqueDir(filepath.Join(outputDir, base))
	if err != nil {
		return "", err
	}

	file := filepath.Join(dir, ResultsFile)
	fh, err := os.Create(file)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", ResultsFile, err)
	}
	defer fh.Close()

	enc := json.NewEncoder(fh)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	return file, nil
}

// LoadReport reads results.json from a result directory
func LoadReport(fromDir string) (validation.Report, error) {
	var rep validation.Report
	data, err := os.ReadFile(filepath.Join(fromDir, ResultsFile))
	if err != nil {
		return rep, fmt.Errorf("read %s: %w", ResultsFile, err)
	}
	if err := json.Unmarshal(data, &rep); err != nil {
		return rep, fmt.Errorf("parse %s: %w", ResultsFile, err)
	}
	return rep, nil
}

func createUniqueDir(base string) (string, error) {
	dir := base
	for n := 2; ; n++ {
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("failed to create output dir: %w", err)
		}
		dir = fmt.Sprintf("%s-%d", base, n)
	}
}

// safeName replaces characters not safe for file paths
func safeName(s string) string {
	invalid := []rune{'/', '\\', ':', '*', '?', '"', '<', '>', '|', ' '}
	rs := []rune(s)
	for i, r := range rs {
		for _, bad := range invalid {
			if r == bad {
				rs[i] = '_'
			}
		}
	}
	return string(rs)
}
