package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smartshop/internal/models"
	"smartshop/internal/report"
)

const dateLayout = "2006-01-02"

// --- GET /api/reports?from=&to=&customer=&productId= ---
// The report is rebuilt from the ledger on every read; nothing is cached
// or persisted.
func (h *Handler) GetSalesReport(c *gin.Context) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := now

	if v := c.Query("from"); v != "" {
		parsed, err := time.ParseInLocation(dateLayout, v, now.Location())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.ParseInLocation(dateLayout, v, now.Location())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
			return
		}
		to = parsed
	}

	result := report.Build(h.POS.Sales(), report.Filter{
		From:          from,
		To:            to,
		CustomerQuery: c.Query("customer"),
		ProductID:     c.Query("productId"),
	})
	if result.Sales == nil {
		result.Sales = []models.Sale{}
	}
	c.JSON(http.StatusOK, result)
}

// ValuationItem is one row of the stock valuation table.
type ValuationItem struct {
	Name      string  `json:"name"`
	Stock     int     `json:"stock"`
	CostPrice float64 `json:"costPrice"`
	TotalCost float64 `json:"totalCost"`
}

// BrandGroup groups valuation rows by brand for display.
type BrandGroup struct {
	Brand    string          `json:"brand"`
	Items    []ValuationItem `json:"items"`
	Subtotal float64         `json:"subtotal"`
}

type ValuationResponse struct {
	Groups     []BrandGroup `json:"groups"`
	GrandTotal float64      `json:"grandTotal"`
}

// --- GET /api/reports/valuation ---
// GetStockValuation prices the physical inventory at purchase cost: what
// is currently tied up on the shelves.
func (h *Handler) GetStockValuation(c *gin.Context) {
	products := h.POS.Products()

	var grandTotal float64
	grouped := make(map[string]*BrandGroup)
	var order []string

	for _, p := range products {
		brand := p.Brand
		if brand == "" {
			brand = "Unbranded"
		}
		group, ok := grouped[brand]
		if !ok {
			group = &BrandGroup{Brand: brand}
			grouped[brand] = group
			order = append(order, brand)
		}

		itemTotal := float64(p.Stock) * p.PurchasePrice
		group.Items = append(group.Items, ValuationItem{
			Name:      p.Name,
			Stock:     p.Stock,
			CostPrice: p.PurchasePrice,
			TotalCost: itemTotal,
		})
		group.Subtotal += itemTotal
		grandTotal += itemTotal
	}

	resp := ValuationResponse{GrandTotal: grandTotal, Groups: []BrandGroup{}}
	for _, brand := range order {
		resp.Groups = append(resp.Groups, *grouped[brand])
	}
	c.JSON(http.StatusOK, resp)
}
