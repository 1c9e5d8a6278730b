package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/piwi3910/BarCut/internal/model"
)

// Catalogue is the on-disk data set a FileProvider serves from: the demanded
// items, the available stock bar lengths, and optional shop constraints.
type Catalogue struct {
	Items        []model.Item        `json:"items" yaml:"items"`
	StockLengths []model.StockLength `json:"stock_lengths" yaml:"stock_lengths"`
	Constraints  *model.Constraints  `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// LoadCatalogue reads a catalogue from a JSON or YAML file. A missing file
// yields an empty catalogue rather than an error.
func LoadCatalogue(path string) (Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Catalogue{}, nil
		}
		return Catalogue{}, fmt.Errorf("failed to read catalogue: %w", err)
	}

	var cat Catalogue
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cat)
	default:
		err = json.Unmarshal(data, &cat)
	}
	if err != nil {
		return Catalogue{}, fmt.Errorf("failed to parse catalogue: %w", err)
	}
	return cat, nil
}

// SaveCatalogue writes a catalogue to a JSON file, creating directories as
// needed.
func SaveCatalogue(path string, cat Catalogue) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalogue: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create catalogue directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// FileProvider serves optimization inputs from a catalogue file. It
// implements the engine's DataProvider interface and re-reads the file on
// each call so edits are picked up between runs.
type FileProvider struct {
	Path string
}

// NewFileProvider creates a provider backed by the given catalogue file.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

// GetOptimizationItems returns the catalogue items, optionally filtered to
// one work order.
func (p *FileProvider) GetOptimizationItems(ctx context.Context, workOrderID string) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cat, err := LoadCatalogue(p.Path)
	if err != nil {
		return nil, err
	}
	if workOrderID == "" {
		return cat.Items, nil
	}
	var filtered []model.Item
	for _, it := range cat.Items {
		if it.WorkOrderID == workOrderID {
			filtered = append(filtered, it)
		}
	}
	return filtered, nil
}

// GetMaterialStockLengths returns the catalogue's stock bar lengths.
func (p *FileProvider) GetMaterialStockLengths(ctx context.Context) ([]model.StockLength, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cat, err := LoadCatalogue(p.Path)
	if err != nil {
		return nil, err
	}
	return cat.StockLengths, nil
}

// GetConstraints returns the catalogue's constraint set, or nil when the
// catalogue does not define one.
func (p *FileProvider) GetConstraints(ctx context.Context) (*model.Constraints, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cat, err := LoadCatalogue(p.Path)
	if err != nil {
		return nil, err
	}
	return cat.Constraints, nil
}

// GetWorkOrderItems returns the items belonging to one work order.
func (p *FileProvider) GetWorkOrderItems(ctx context.Context, workOrderID string) ([]model.Item, error) {
	return p.GetOptimizationItems(ctx, workOrderID)
}
