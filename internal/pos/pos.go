package pos

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartshop/internal/models"
	"smartshop/internal/search"
)

// Controller owns the authoritative in-memory catalog and sales ledger.
// There is exactly one writer (the HTTP layer is serialized through the
// mutex); persistence is a side effect signalled through OnChange/OnSale
// and must never block or roll back an applied mutation.
type Controller struct {
	mu       sync.RWMutex
	products []models.Product
	sales    []models.Sale

	requireCustomerName bool
	onChange            func()
	onSale              func(models.Sale)
	now                 func() time.Time
}

type Options struct {
	// RequireCustomerName controls whether RecordSale rejects an empty
	// customer name. The walk-in variant records the sale anonymously.
	RequireCustomerName bool
	// OnChange fires after every successful mutation (fire-and-forget).
	OnChange func()
	// OnSale fires with the new sale record after RecordSale, in addition
	// to OnChange.
	OnSale func(models.Sale)
}

func New(opts Options) *Controller {
	c := &Controller{
		requireCustomerName: opts.RequireCustomerName,
		onChange:            opts.OnChange,
		onSale:              opts.OnSale,
		now:                 time.Now,
	}
	if c.onChange == nil {
		c.onChange = func() {}
	}
	if c.onSale == nil {
		c.onSale = func(models.Sale) {}
	}
	return c
}

// Load seeds state at startup without triggering persistence.
func (c *Controller) Load(products []models.Product, sales []models.Sale) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = append([]models.Product(nil), products...)
	c.sales = append([]models.Sale(nil), sales...)
}

// ProductInput carries the fields of the product-entry form.
type ProductInput struct {
	Name          string  `json:"name"`
	Brand         string  `json:"brand"`
	Description   string  `json:"description"`
	PurchasePrice float64 `json:"purchasePrice"`
	SellingPrice  float64 `json:"sellingPrice"`
	Stock         int     `json:"stock"`
	ImageURL      string  `json:"imageUrl"`
}

func (c *Controller) AddProduct(in ProductInput) (models.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return models.Product{}, invalid("name", "must not be empty")
	}
	if strings.TrimSpace(in.ImageURL) == "" {
		return models.Product{}, invalid("imageUrl", "a product image is required")
	}
	if in.PurchasePrice < 0 || in.SellingPrice < 0 {
		return models.Product{}, invalid("price", "must not be negative")
	}
	if in.Stock < 0 {
		return models.Product{}, invalid("stock", "must not be negative")
	}

	p := models.Product{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		Brand:         strings.TrimSpace(in.Brand),
		Description:   in.Description,
		PurchasePrice: in.PurchasePrice,
		SellingPrice:  in.SellingPrice,
		Stock:         in.Stock,
		ImageURL:      in.ImageURL,
		CreatedAt:     c.now(),
	}

	c.mu.Lock()
	c.products = append(c.products, p)
	c.mu.Unlock()

	c.onChange()
	return p, nil
}

// ProductPatch is a partial update; nil fields are left untouched.
type ProductPatch struct {
	Name          *string  `json:"name,omitempty"`
	Brand         *string  `json:"brand,omitempty"`
	Description   *string  `json:"description,omitempty"`
	PurchasePrice *float64 `json:"purchasePrice,omitempty"`
	SellingPrice  *float64 `json:"sellingPrice,omitempty"`
	Stock         *int     `json:"stock,omitempty"`
	ImageURL      *string  `json:"imageUrl,omitempty"`
}

func (c *Controller) UpdateProduct(id string, patch ProductPatch) (models.Product, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return models.Product{}, invalid("name", "must not be empty")
	}
	if patch.PurchasePrice != nil && *patch.PurchasePrice < 0 {
		return models.Product{}, invalid("purchasePrice", "must not be negative")
	}
	if patch.SellingPrice != nil && *patch.SellingPrice < 0 {
		return models.Product{}, invalid("sellingPrice", "must not be negative")
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return models.Product{}, invalid("stock", "must not be negative")
	}

	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return models.Product{}, ErrNotFound
	}
	p := &c.products[idx]
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Brand != nil {
		p.Brand = strings.TrimSpace(*patch.Brand)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.PurchasePrice != nil {
		p.PurchasePrice = *patch.PurchasePrice
	}
	if patch.SellingPrice != nil {
		p.SellingPrice = *patch.SellingPrice
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	updated := *p
	c.mu.Unlock()

	c.onChange()
	return updated, nil
}

// Restock adds delta units to the existing stock. Additive, never an
// overwrite.
func (c *Controller) Restock(id string, delta int) (models.Product, error) {
	if delta < 1 {
		return models.Product{}, invalid("quantity", "must be at least 1")
	}

	c.mu.Lock()
	idx := c.indexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return models.Product{}, ErrNotFound
	}
	c.products[idx].Stock += delta
	updated := c.products[idx]
	c.mu.Unlock()

	c.onChange()
	return updated, nil
}

func (c *Controller) GetProduct(id string) (models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if idx := c.indexOf(id); idx >= 0 {
		return c.products[idx], nil
	}
	return models.Product{}, ErrNotFound
}

// ListProducts returns products in insertion order, optionally filtered by
// a diacritic-insensitive substring match over name, brand and id.
func (c *Controller) ListProducts(filter string) []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if strings.TrimSpace(filter) == "" {
		return append([]models.Product(nil), c.products...)
	}

	q := search.Fold(filter)
	var out []models.Product
	for _, p := range c.products {
		// Each field is matched on its own; a query never spans the
		// boundary between name and brand.
		if strings.Contains(search.Fold(p.Name), q) ||
			strings.Contains(search.Fold(p.Brand), q) ||
			strings.Contains(search.Fold(p.ID), q) {
			out = append(out, p)
		}
	}
	return out
}

// RecordSale is the only place inventory is depleted. Stock decrement and
// ledger append happen under one lock so no reader ever observes one
// without the other.
func (c *Controller) RecordSale(productID string, quantity int, customer models.CustomerInfo) (models.Sale, error) {
	if quantity < 1 {
		return models.Sale{}, invalid("quantity", "must be at least 1")
	}
	if c.requireCustomerName && strings.TrimSpace(customer.FullName) == "" {
		return models.Sale{}, invalid("customer.fullName", "must not be empty")
	}

	c.mu.Lock()
	idx := c.indexOf(productID)
	if idx < 0 {
		c.mu.Unlock()
		return models.Sale{}, ErrNotFound
	}
	p := &c.products[idx]
	if quantity > p.Stock {
		c.mu.Unlock()
		return models.Sale{}, ErrInsufficientStock
	}

	p.Stock -= quantity
	sale := models.Sale{
		ID:            uuid.NewString(),
		ProductID:     p.ID,
		ProductName:   p.Name,
		Quantity:      quantity,
		SellingPrice:  p.SellingPrice,
		PurchasePrice: p.PurchasePrice,
		TotalAmount:   p.SellingPrice * float64(quantity),
		Timestamp:     c.now(),
		Customer:      customer,
	}
	c.sales = append(c.sales, sale)
	c.mu.Unlock()

	c.onSale(sale)
	c.onChange()
	return sale, nil
}

func (c *Controller) Products() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Product(nil), c.products...)
}

func (c *Controller) Sales() []models.Sale {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Sale(nil), c.sales...)
}

// SoldProduct feeds the report filter dropdown: every product that appears
// in the ledger, with its name as recorded at sale time.
type SoldProduct struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *Controller) SoldProducts() []SoldProduct {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool, len(c.sales))
	var out []SoldProduct
	for _, s := range c.sales {
		if seen[s.ProductID] {
			continue
		}
		seen[s.ProductID] = true
		out = append(out, SoldProduct{ID: s.ProductID, Name: s.ProductName})
	}
	return out
}

// Stats summarizes the catalog for the dashboard header.
type Stats struct {
	ProductCount int     `json:"productCount"`
	TotalUnits   int     `json:"totalUnits"`
	Investment   float64 `json:"investment"`
}

func (c *Controller) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var st Stats
	st.ProductCount = len(c.products)
	for _, p := range c.products {
		st.TotalUnits += p.Stock
		st.Investment += p.PurchasePrice * float64(p.Stock)
	}
	return st
}

// ReplaceAll swaps in a restored snapshot and signals persistence.
func (c *Controller) ReplaceAll(products []models.Product, sales []models.Sale) {
	c.mu.Lock()
	c.products = append([]models.Product(nil), products...)
	c.sales = append([]models.Sale(nil), sales...)
	c.mu.Unlock()
	c.onChange()
}

// indexOf must be called with the mutex held.
func (c *Controller) indexOf(id string) int {
	for i := range c.products {
		if c.products[i].ID == id {
			return i
		}
	}
	return -1
}
