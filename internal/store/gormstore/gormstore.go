// Package gormstore is the local embedded store: a SQLite file by default,
// or MySQL when a DSN is configured. This is the durability backstop —
// failures here are worth surfacing, unlike mirror failures.
package gormstore

import (
	"context"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"smartshop/internal/models"
)

type Store struct {
	db *gorm.DB
}

// Open connects to MySQL when dsn is non-empty, otherwise to the SQLite
// file at path, and migrates the schema. MySQL may still be starting up
// alongside us, so the connection is retried a few times.
func Open(path, dsn string) (*Store, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var db *gorm.DB
	var err error
	if dsn != "" {
		for i := 0; i < 5; i++ {
			db, err = gorm.Open(mysql.Open(dsn), cfg)
			if err == nil {
				break
			}
			log.Printf("local store: mysql not ready, retrying in 2s (%d/5)", i+1)
			time.Sleep(2 * time.Second)
		}
	} else {
		db, err = gorm.Open(sqlite.Open(path), cfg)
	}
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.Product{}, &models.Sale{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) LoadCatalog(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).Order("created_at asc").Find(&products).Error
	return products, err
}

func (s *Store) LoadSales(ctx context.Context) ([]models.Sale, error) {
	var sales []models.Sale
	err := s.db.WithContext(ctx).Order("timestamp asc").Find(&sales).Error
	return sales, err
}

// SaveCatalog replaces the stored catalog with the in-memory snapshot.
// The in-memory state is authoritative; rows removed there disappear here.
func (s *Store) SaveCatalog(ctx context.Context, products []models.Product) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Product{}).Error; err != nil {
			return err
		}
		if len(products) == 0 {
			return nil
		}
		return tx.CreateInBatches(products, 100).Error
	})
}

// SaveSale inserts one sale immediately after checkout. The debounced
// full-ledger flush may race it, so the write is an upsert on id.
func (s *Store) SaveSale(ctx context.Context, sale models.Sale) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&sale).Error
}

func (s *Store) SaveAllSales(ctx context.Context, sales []models.Sale) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Sale{}).Error; err != nil {
			return err
		}
		if len(sales) == 0 {
			return nil
		}
		return tx.CreateInBatches(sales, 100).Error
	})
}
