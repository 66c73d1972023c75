// Package config loads and saves the reviewer's settings document.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/infra/fsx"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

const (
	dirName  = ".seg_qc_tool"
	fileName = "config.yaml"
)

// DefaultPath returns the settings location under the user's home directory,
// or a file in the working directory when no home directory is known.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return fileName
	}
	return filepath.Join(home, dirName, fileName)
}

// Load reads the settings at path. A missing file yields the defaults; keys
// absent from the file keep their default values.
func Load(path string) (models.Settings, error) {
	s := models.DefaultSettings()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return models.DefaultSettings(), fmt.Errorf("error parsing config file: %w", err)
	}
	if err := Validate(&s); err != nil {
		return models.DefaultSettings(), fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return s, nil
}

// Save writes s to path atomically, creating the directory as needed
func Save(path string, s models.Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := fsx.WriteFileAtomic(filepath.Dir(path), filepath.Base(path), data); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// Validate rejects unknown enumerations and pulls numeric values into range
func Validate(s *models.Settings) error {
	switch s.Metric {
	case "":
		s.Metric = models.MetricLevenshtein
	case models.MetricLevenshtein, models.MetricRatio:
	default:
		return fmt.Errorf("unknown metric %q", s.Metric)
	}

	switch s.DiscardPolicy {
	case "":
		s.DiscardPolicy = models.DiscardCopy
	case models.DiscardCopy, models.DiscardMove:
	default:
		return fmt.Errorf("unknown discard_policy %q", s.DiscardPolicy)
	}

	s.Brightness = clamp01(s.Brightness)
	s.Contrast = clamp01(s.Contrast)
	if s.MaxDistance < 0 {
		s.MaxDistance = 0
	}
	if len(s.WindowSize) != 0 && (len(s.WindowSize) != 2 || s.WindowSize[0] <= 0 || s.WindowSize[1] <= 0) {
		s.WindowSize = nil
	}
	return nil
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
