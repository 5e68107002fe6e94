package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathsConfig locates the input files and output directories. All relative
// paths resolve against the working directory.
type PathsConfig struct {
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR"`
	StockFile     string `yaml:"stock_file" envconfig:"STOCK_FILE"`
	ReferenceFile string `yaml:"reference_file" envconfig:"REFERENCE_FILE"`
	ReportsDir    string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
}

// StockPath returns the full path of the monthly stock file.
func (p PathsConfig) StockPath() string {
	return filepath.Join(p.DataDir, p.StockFile)
}

// ReferencePath returns the full path of the reference index series.
func (p PathsConfig) ReferencePath() string {
	return filepath.Join(p.DataDir, p.ReferenceFile)
}

// Validate checks that the path fields are non-empty.
func (p PathsConfig) Validate() error {
	if p.DataDir == "" {
		return fmt.Errorf("paths: data_dir must not be empty")
	}
	if p.StockFile == "" {
		return fmt.Errorf("paths: stock_file must not be empty")
	}
	if p.ReferenceFile == "" {
		return fmt.Errorf("paths: reference_file must not be empty")
	}
	if p.ReportsDir == "" {
		return fmt.Errorf("paths: reports_dir must not be empty")
	}
	return nil
}

// EnsureReportsDir creates the reports directory when absent.
func (p PathsConfig) EnsureReportsDir() error {
	if err := os.MkdirAll(p.ReportsDir, 0o755); err != nil {
		return fmt.Errorf("create reports directory: %w", err)
	}
	return nil
}
