// Package mirror holds the best-effort remote copies of the catalog and
// ledger. A mirror is opportunistic: writes may fail silently, reads are
// only consulted at startup, and the local store always wins.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"smartshop/internal/models"
)

// REST mirrors rows to a hosted PostgREST-style endpoint (Supabase shape):
// POST /rest/v1/{table}?on_conflict=id with merge-duplicates upsert.
type REST struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewREST(baseURL, apiKey string) *REST {
	return &REST{
		// Short timeout: a slow mirror must not pile up goroutines.
		client:  &http.Client{Timeout: 5 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (r *REST) upsert(ctx context.Context, table string, rows any) error {
	body, err := json.Marshal(rows)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/rest/v1/%s?on_conflict=id", r.baseURL, table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Prefer", "resolution=merge-duplicates")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mirror upsert %s: status %d", table, resp.StatusCode)
	}
	return nil
}

func (r *REST) fetch(ctx context.Context, table, orderBy string, out any) error {
	url := fmt.Sprintf("%s/rest/v1/%s?select=*&order=%s.desc", r.baseURL, table, orderBy)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mirror fetch %s: status %d", table, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (r *REST) LoadCatalog(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.fetch(ctx, "products", "createdAt", &products)
	return products, err
}

func (r *REST) LoadSales(ctx context.Context) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.fetch(ctx, "sales", "timestamp", &sales)
	return sales, err
}

func (r *REST) SaveCatalog(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.upsert(ctx, "products", products)
}

func (r *REST) SaveSale(ctx context.Context, sale models.Sale) error {
	return r.upsert(ctx, "sales", []models.Sale{sale})
}

func (r *REST) SaveAllSales(ctx context.Context, sales []models.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	return r.upsert(ctx, "sales", sales)
}
