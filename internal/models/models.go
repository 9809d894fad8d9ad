package models

import (
	"time"
)

// Product - one sellable item in the catalog.
// JSON field names follow the backup/snapshot format, so exported files
// stay compatible with earlier data dumps.
type Product struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	Name          string    `json:"name"`
	Brand         string    `json:"brand,omitempty"`
	Description   string    `json:"description,omitempty"`
	PurchasePrice float64   `json:"purchasePrice"`
	SellingPrice  float64   `json:"sellingPrice"`
	Stock         int       `json:"stock"`
	ImageURL      string    `json:"imageUrl"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CustomerInfo - free-text buyer details attached to a sale. No identity,
// no validation beyond the configurable name requirement.
type CustomerInfo struct {
	FullName string `json:"fullName"`
	Address  string `json:"address,omitempty"`
	IDCard   string `json:"idCard,omitempty"`
}

// Sale - one completed transaction. Name and prices are snapshots taken at
// sale time; editing the product later never changes historical rows.
type Sale struct {
	ID            string       `gorm:"primaryKey;size:64" json:"id"`
	ProductID     string       `gorm:"size:64;index" json:"productId"`
	ProductName   string       `json:"productName"`
	Quantity      int          `json:"quantity"`
	SellingPrice  float64      `json:"sellingPrice"`
	PurchasePrice float64      `json:"purchasePrice"`
	TotalAmount   float64      `json:"totalAmount"`
	Timestamp     time.Time    `gorm:"index" json:"timestamp"`
	Customer      CustomerInfo `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
}

// ScanResult - what the recognition gateway returns for a captured photo.
// ProductID is only a hint; the caller re-checks it against the catalog.
type ScanResult struct {
	ProductID     string  `json:"productId,omitempty"`
	Confidence    float64 `json:"confidence"`
	SuggestedName string  `json:"suggestedName,omitempty"`
	Brand         string  `json:"brand,omitempty"`
	Description   string  `json:"description,omitempty"`
}

// ScanCandidate - the catalog context sent alongside the image.
type ScanCandidate struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
