package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Storage persists benchmark run reports as JSON files.
type Storage struct {
	logger *Logger
}

// NewStorage creates a storage instance.
func NewStorage(logger *Logger) *Storage {
	if logger == nil {
		logger = Nop()
	}
	return &Storage{logger: logger}
}

// SaveRun writes a run report to path. The trials array is what downstream
// analysis scripts consume; the surrounding metadata identifies the run.
func (s *Storage) SaveRun(report *RunReport, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}

	s.logger.Info("benchmark report saved", "path", path, "trials", len(report.Trials))
	return nil
}

// LoadRun reads a run report back from disk.
func (s *Storage) LoadRun(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run report: %w", err)
	}
	var report RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run report: %w", err)
	}
	return &report, nil
}
