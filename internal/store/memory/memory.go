// Package memory is an in-memory Gateway used by tests and by dev runs
// that have no database configured.
package memory

import (
	"context"
	"sync"

	"smartshop/internal/models"
)

type Store struct {
	mu       sync.Mutex
	products []models.Product
	sales    []models.Sale

	// Save counters let tests assert on debounce coalescing.
	CatalogSaves  int
	SaleSaves     int
	AllSalesSaves int
}

func New() *Store {
	return &Store{}
}

func (s *Store) LoadCatalog(_ context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Product(nil), s.products...), nil
}

func (s *Store) LoadSales(_ context.Context) ([]models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Sale(nil), s.sales...), nil
}

func (s *Store) SaveCatalog(_ context.Context, products []models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append([]models.Product(nil), products...)
	s.CatalogSaves++
	return nil
}

func (s *Store) SaveSale(_ context.Context, sale models.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = append(s.sales, sale)
	s.SaleSaves++
	return nil
}

func (s *Store) SaveAllSales(_ context.Context, sales []models.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = append([]models.Sale(nil), sales...)
	s.AllSalesSaves++
	return nil
}

// Counters returns a consistent snapshot of the save counters.
func (s *Store) Counters() (catalog, sale, allSales int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CatalogSaves, s.SaleSaves, s.AllSalesSaves
}
