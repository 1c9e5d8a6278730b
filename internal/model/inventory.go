package model

import "github.com/google/uuid"

// StockPreset represents a reusable stock bar definition.
type StockPreset struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Length        float64 `json:"length"`
	ProfileType   string  `json:"profile_type"`
	MaterialGrade string  `json:"material_grade"`
	CostPerStock  float64 `json:"cost_per_stock"`
	Weight        float64 `json:"weight"`
}

// NewStockPreset creates a new StockPreset with a generated ID.
func NewStockPreset(name string, length float64, profileType, grade string) StockPreset {
	return StockPreset{
		ID:            uuid.New().String()[:8],
		Name:          name,
		Length:        length,
		ProfileType:   profileType,
		MaterialGrade: grade,
	}
}

// ToStockLength converts a StockPreset into a StockLength catalogue entry.
func (sp StockPreset) ToStockLength() StockLength {
	return StockLength{
		StockLength:   sp.Length,
		ProfileType:   sp.ProfileType,
		MaterialGrade: sp.MaterialGrade,
		CostPerStock:  sp.CostPerStock,
		Weight:        sp.Weight,
	}
}

// Inventory holds the saved stock bar presets.
type Inventory struct {
	Stocks []StockPreset `json:"stocks"`
}

// DefaultInventory returns an inventory populated with common mill bar lengths.
func DefaultInventory() Inventory {
	return Inventory{
		Stocks: []StockPreset{
			NewStockPreset("Standard 6100", 6100, "", "EN AW-6060"),
			NewStockPreset("Standard 6500", 6500, "", "EN AW-6060"),
			NewStockPreset("Long 7000", 7000, "", "EN AW-6060"),
			NewStockPreset("Double 12200", 12200, "", "EN AW-6060"),
			NewStockPreset("Short 4000", 4000, "", "EN AW-6063"),
		},
	}
}

// FindStockByID returns a pointer to the preset with the given ID, or nil.
func (inv *Inventory) FindStockByID(id string) *StockPreset {
	for i := range inv.Stocks {
		if inv.Stocks[i].ID == id {
			return &inv.Stocks[i]
		}
	}
	return nil
}

// FindStockByName returns a pointer to the first preset with the given name, or nil.
func (inv *Inventory) FindStockByName(name string) *StockPreset {
	for i := range inv.Stocks {
		if inv.Stocks[i].Name == name {
			return &inv.Stocks[i]
		}
	}
	return nil
}

// StockNames returns the preset names in catalogue order.
func (inv *Inventory) StockNames() []string {
	names := make([]string, len(inv.Stocks))
	for i, s := range inv.Stocks {
		names[i] = s.Name
	}
	return names
}

// ToCatalogue converts every preset into a StockLength entry.
func (inv *Inventory) ToCatalogue() []StockLength {
	catalogue := make([]StockLength, len(inv.Stocks))
	for i, s := range inv.Stocks {
		catalogue[i] = s.ToStockLength()
	}
	return catalogue
}
