// Package report derives revenue, cost and profit figures from the sales
// ledger. Everything here is a pure function of its inputs: no state, no
// persistence, same answer for the same (sales, filter) pair.
package report

import (
	"sort"
	"time"

	"smartshop/internal/models"
	"smartshop/internal/search"
)

// Filter bounds the report window and optionally narrows it by customer or
// product. From/To are calendar days; the window covers From 00:00:00
// through To 23:59:59.999... inclusive, in the timestamps' location.
type Filter struct {
	From          time.Time
	To            time.Time
	CustomerQuery string
	ProductID     string
}

// Report is the aggregate the dashboard renders. Sales are ordered most
// recent first.
type Report struct {
	Sales   []models.Sale `json:"sales"`
	Revenue float64       `json:"revenue"`
	Cost    float64       `json:"cost"`
	Profit  float64       `json:"profit"`
	Count   int           `json:"count"`
}

// Build filters and aggregates the ledger. Cost uses the purchase price
// snapshotted on each sale, never the product's current price.
func Build(sales []models.Sale, f Filter) Report {
	start := startOfDay(f.From)
	end := endOfDay(f.To)

	filtered := make([]models.Sale, 0, len(sales))
	for _, s := range sales {
		if s.Timestamp.Before(start) || s.Timestamp.After(end) {
			continue
		}
		if f.CustomerQuery != "" && !matchesCustomer(s, f.CustomerQuery) {
			continue
		}
		if f.ProductID != "" && s.ProductID != f.ProductID {
			continue
		}
		filtered = append(filtered, s)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})

	var r Report
	r.Sales = filtered
	r.Count = len(filtered)
	for _, s := range filtered {
		r.Revenue += s.TotalAmount
		r.Cost += s.PurchasePrice * float64(s.Quantity)
	}
	r.Profit = r.Revenue - r.Cost
	return r
}

func matchesCustomer(s models.Sale, query string) bool {
	return search.Contains(s.Customer.FullName, query) ||
		(s.Customer.IDCard != "" && search.Contains(s.Customer.IDCard, query))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
