// Package backup reads and writes the JSON snapshot format used for
// manual export/import of the whole shop state.
package backup

import (
	"encoding/json"
	"errors"
	"time"

	"smartshop/internal/models"
)

// FormatVersion tags exported files; import accepts any version as long as
// both arrays are present.
const FormatVersion = "1.0"

type Snapshot struct {
	Version   string           `json:"version"`
	Timestamp int64            `json:"timestamp"`
	Products  []models.Product `json:"products"`
	Sales     []models.Sale    `json:"sales"`
}

var ErrMissingSection = errors.New("backup must contain both products and sales")

// Export serializes the current state into a downloadable snapshot.
func Export(products []models.Product, sales []models.Sale) ([]byte, error) {
	if products == nil {
		products = []models.Product{}
	}
	if sales == nil {
		sales = []models.Sale{}
	}
	snap := Snapshot{
		Version:   FormatVersion,
		Timestamp: time.Now().UnixMilli(),
		Products:  products,
		Sales:     sales,
	}
	return json.MarshalIndent(snap, "", "  ")
}

// Import parses a snapshot file. Both the products and sales arrays must
// be present (empty is fine, absent is not) or the file is rejected before
// any state changes.
func Import(data []byte) ([]models.Product, []models.Sale, error) {
	var probe struct {
		Products json.RawMessage `json:"products"`
		Sales    json.RawMessage `json:"sales"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, nil, err
	}
	if probe.Products == nil || probe.Sales == nil {
		return nil, nil, ErrMissingSection
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil, err
	}
	return snap.Products, snap.Sales, nil
}
