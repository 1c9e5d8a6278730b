package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/piwi3910/BarCut/internal/model"
)

// LoadRequest reads an optimization request from a JSON or YAML file,
// selected by extension (.yaml/.yml vs everything else).
func LoadRequest(path string) (model.OptimizationRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.OptimizationRequest{}, fmt.Errorf("failed to read request file: %w", err)
	}

	var req model.OptimizationRequest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &req)
	default:
		err = json.Unmarshal(data, &req)
	}
	if err != nil {
		return model.OptimizationRequest{}, fmt.Errorf("failed to parse request file: %w", err)
	}
	return req, nil
}

// SaveRequest writes a request to a JSON file, creating directories as needed.
func SaveRequest(path string, req model.OptimizationRequest) error {
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create request directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// SaveResult writes an optimization result to a JSON file.
func SaveResult(path string, result *model.OptimizationResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
