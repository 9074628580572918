package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// LoadClassIndex reads a JSON object of "<id>": "<label>" pairs.
func LoadClassIndex(path string) (ClassIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read class index: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse class index: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("class index %s is empty", path)
	}

	classes := make(ClassIndex, len(raw))
	for key, label := range raw {
		id, err := strconv.Atoi(key)
		if err != nil || id < 0 || strconv.Itoa(id) != key {
			return nil, fmt.Errorf("class index key %q is not a canonical non-negative integer", key)
		}
		if label == "" {
			return nil, fmt.Errorf("class index entry %d has an empty label", id)
		}
		classes[id] = label
	}
	return classes, nil
}

// LoadPreprocessConfig reads preprocess.json and checks its shape.
func LoadPreprocessConfig(path string) (PreprocessConfig, error) {
	var cfg PreprocessConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read preprocess config: %w", err)
	}

	var raw preprocessFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("failed to parse preprocess config: %w", err)
	}

	if len(raw.InputSize) != 2 {
		return cfg, fmt.Errorf("input_size must have 2 entries, got %d", len(raw.InputSize))
	}
	if raw.InputSize[0] <= 0 || raw.InputSize[1] <= 0 {
		return cfg, fmt.Errorf("input_size must be positive, got %v", raw.InputSize)
	}
	if len(raw.NormalizeMean) != 3 {
		return cfg, fmt.Errorf("normalize_mean must have 3 entries, got %d", len(raw.NormalizeMean))
	}
	if len(raw.NormalizeStd) != 3 {
		return cfg, fmt.Errorf("normalize_std must have 3 entries, got %d", len(raw.NormalizeStd))
	}
	for i, s := range raw.NormalizeStd {
		if s == 0 {
			return cfg, fmt.Errorf("normalize_std[%d] is zero", i)
		}
	}

	cfg.InputWidth = raw.InputSize[0]
	cfg.InputHeight = raw.InputSize[1]
	copy(cfg.Mean[:], raw.NormalizeMean)
	copy(cfg.Std[:], raw.NormalizeStd)
	return cfg, nil
}

// LoadArtifacts reads the class index and preprocessing config concurrently.
func LoadArtifacts(classIndexPath, preprocessPath string) (*Artifacts, error) {
	var (
		g   errgroup.Group
		art Artifacts
	)

	g.Go(func() error {
		classes, err := LoadClassIndex(classIndexPath)
		if err != nil {
			return fmt.Errorf("%s: %w", classIndexPath, err)
		}
		art.Classes = classes
		return nil
	})
	g.Go(func() error {
		cfg, err := LoadPreprocessConfig(preprocessPath)
		if err != nil {
			return fmt.Errorf("%s: %w", preprocessPath, err)
		}
		art.Preprocess = cfg
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &art, nil
}
