// Package store defines the persistence gateway the POS core writes
// through. The core treats every save as a best-effort sink; only the
// local embedded store is the durability backstop.
package store

import (
	"context"
	"log"

	"smartshop/internal/models"
)

type Gateway interface {
	LoadCatalog(ctx context.Context) ([]models.Product, error)
	LoadSales(ctx context.Context) ([]models.Sale, error)
	SaveCatalog(ctx context.Context, products []models.Product) error
	SaveSale(ctx context.Context, sale models.Sale) error
	SaveAllSales(ctx context.Context, sales []models.Sale) error
}

// Tee writes to the local store first and mirrors to the remote
// opportunistically. Local errors propagate (the caller decides how loud
// to be); mirror errors are logged and dropped — the remote is never a
// source of truth and must never block a local write.
type Tee struct {
	Local  Gateway
	Mirror Gateway
}

func (t *Tee) LoadCatalog(ctx context.Context) ([]models.Product, error) {
	return t.Local.LoadCatalog(ctx)
}

func (t *Tee) LoadSales(ctx context.Context) ([]models.Sale, error) {
	return t.Local.LoadSales(ctx)
}

func (t *Tee) SaveCatalog(ctx context.Context, products []models.Product) error {
	err := t.Local.SaveCatalog(ctx, products)
	if t.Mirror != nil {
		if merr := t.Mirror.SaveCatalog(ctx, products); merr != nil {
			log.Printf("mirror: catalog sync skipped: %v", merr)
		}
	}
	return err
}

func (t *Tee) SaveSale(ctx context.Context, sale models.Sale) error {
	err := t.Local.SaveSale(ctx, sale)
	if t.Mirror != nil {
		if merr := t.Mirror.SaveSale(ctx, sale); merr != nil {
			log.Printf("mirror: sale sync skipped: %v", merr)
		}
	}
	return err
}

func (t *Tee) SaveAllSales(ctx context.Context, sales []models.Sale) error {
	err := t.Local.SaveAllSales(ctx, sales)
	if t.Mirror != nil {
		if merr := t.Mirror.SaveAllSales(ctx, sales); merr != nil {
			log.Printf("mirror: ledger sync skipped: %v", merr)
		}
	}
	return err
}
