package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/evolab/petri/config"
)

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir            string
	generationFile *os.File
	championFile   *os.File

	// Track if headers have been written
	generationHeaderWritten bool
	championHeaderWritten   bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "generations.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating generations.csv: %w", err)
	}
	om.generationFile = f

	f, err = os.Create(filepath.Join(dir, "champions.csv"))
	if err != nil {
		om.generationFile.Close()
		return nil, fmt.Errorf("creating champions.csv: %w", err)
	}
	om.championFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteGeneration appends one population's generation stats to generations.csv.
func (om *OutputManager) WriteGeneration(stats GenerationStats) error {
	if om == nil {
		return nil
	}

	records := []GenerationStats{stats}

	if !om.generationHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.generationFile); err != nil {
			return fmt.Errorf("writing generation stats: %w", err)
		}
		om.generationHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.generationFile); err != nil {
			return fmt.Errorf("writing generation stats: %w", err)
		}
	}
	return nil
}

// WriteChampion appends a champion record to champions.csv.
func (om *OutputManager) WriteChampion(rec ChampionRecord) error {
	if om == nil {
		return nil
	}

	records := []ChampionRecord{rec}

	if !om.championHeaderWritten {
		if err := gocsv.Marshal(records, om.championFile); err != nil {
			return fmt.Errorf("writing champion: %w", err)
		}
		om.championHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.championFile); err != nil {
			return fmt.Errorf("writing champion: %w", err)
		}
	}
	return nil
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	if err := om.generationFile.Close(); err != nil {
		firstErr = err
	}
	if err := om.championFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
