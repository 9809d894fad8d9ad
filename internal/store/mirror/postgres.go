package mirror

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartshop/internal/models"
)

// Postgres mirrors rows straight into a hosted Postgres over a connection
// string, for deployments that prefer SQL access over the REST surface.
// Same contract as REST: last write wins, failures are the caller's to
// swallow.
type Postgres struct {
	pool *pgxpool.Pool
}

const mirrorSchema = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	brand TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	purchase_price DOUBLE PRECISION NOT NULL DEFAULT 0,
	selling_price DOUBLE PRECISION NOT NULL DEFAULT 0,
	stock INTEGER NOT NULL DEFAULT 0,
	image_url TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS sales (
	id TEXT PRIMARY KEY,
	product_id TEXT NOT NULL,
	product_name TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	selling_price DOUBLE PRECISION NOT NULL,
	purchase_price DOUBLE PRECISION NOT NULL,
	total_amount DOUBLE PRECISION NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	customer_full_name TEXT NOT NULL DEFAULT '',
	customer_address TEXT NOT NULL DEFAULT '',
	customer_id_card TEXT NOT NULL DEFAULT ''
);`

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := pool.Exec(setupCtx, mirrorSchema); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

const upsertProductSQL = `
INSERT INTO products (id, name, brand, description, purchase_price, selling_price, stock, image_url, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	brand = EXCLUDED.brand,
	description = EXCLUDED.description,
	purchase_price = EXCLUDED.purchase_price,
	selling_price = EXCLUDED.selling_price,
	stock = EXCLUDED.stock,
	image_url = EXCLUDED.image_url,
	created_at = EXCLUDED.created_at`

const upsertSaleSQL = `
INSERT INTO sales (id, product_id, product_name, quantity, selling_price, purchase_price, total_amount, ts, customer_full_name, customer_address, customer_id_card)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO NOTHING`

func (p *Postgres) SaveCatalog(ctx context.Context, products []models.Product) error {
	batch := &pgx.Batch{}
	for _, pr := range products {
		batch.Queue(upsertProductSQL, pr.ID, pr.Name, pr.Brand, pr.Description,
			pr.PurchasePrice, pr.SellingPrice, pr.Stock, pr.ImageURL, pr.CreatedAt)
	}
	return p.pool.SendBatch(ctx, batch).Close()
}

func (p *Postgres) SaveSale(ctx context.Context, sale models.Sale) error {
	_, err := p.pool.Exec(ctx, upsertSaleSQL,
		sale.ID, sale.ProductID, sale.ProductName, sale.Quantity,
		sale.SellingPrice, sale.PurchasePrice, sale.TotalAmount, sale.Timestamp,
		sale.Customer.FullName, sale.Customer.Address, sale.Customer.IDCard)
	return err
}

func (p *Postgres) SaveAllSales(ctx context.Context, sales []models.Sale) error {
	batch := &pgx.Batch{}
	for _, s := range sales {
		batch.Queue(upsertSaleSQL,
			s.ID, s.ProductID, s.ProductName, s.Quantity,
			s.SellingPrice, s.PurchasePrice, s.TotalAmount, s.Timestamp,
			s.Customer.FullName, s.Customer.Address, s.Customer.IDCard)
	}
	return p.pool.SendBatch(ctx, batch).Close()
}

func (p *Postgres) LoadCatalog(ctx context.Context) ([]models.Product, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, brand, description, purchase_price, selling_price, stock, image_url, created_at FROM products ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var pr models.Product
		if err := rows.Scan(&pr.ID, &pr.Name, &pr.Brand, &pr.Description,
			&pr.PurchasePrice, &pr.SellingPrice, &pr.Stock, &pr.ImageURL, &pr.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, pr)
	}
	return products, rows.Err()
}

func (p *Postgres) LoadSales(ctx context.Context) ([]models.Sale, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, product_id, product_name, quantity, selling_price, purchase_price, total_amount, ts, customer_full_name, customer_address, customer_id_card FROM sales ORDER BY ts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []models.Sale
	for rows.Next() {
		var s models.Sale
		if err := rows.Scan(&s.ID, &s.ProductID, &s.ProductName, &s.Quantity,
			&s.SellingPrice, &s.PurchasePrice, &s.TotalAmount, &s.Timestamp,
			&s.Customer.FullName, &s.Customer.Address, &s.Customer.IDCard); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}
